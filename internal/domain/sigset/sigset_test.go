package sigset_test

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/okian/tradeflow/internal/domain/sigset"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSet(t *testing.T) {
	Convey("Given a new Set", t, func() {
		s := sigset.New()

		Convey("When it is empty", func() {
			Convey("Then it holds nothing", func() {
				So(s.Len(), ShouldEqual, 0)
				So(s.Items(), ShouldBeEmpty)
				So(s.Has("r=1&p=all&ps=now&cc=AG2"), ShouldBeFalse)
			})
		})

		Convey("When adding signatures", func() {
			So(s.Add("a"), ShouldBeTrue)
			So(s.Add("b"), ShouldBeTrue)
			So(s.Add("c"), ShouldBeTrue)

			Convey("Then they keep insertion order", func() {
				So(s.Items(), ShouldResemble, []string{"a", "b", "c"})
				So(s.Len(), ShouldEqual, 3)
			})

			Convey("And a signature is added again", func() {
				added := s.Add("a")

				Convey("Then it is reported as present and keeps its position", func() {
					So(added, ShouldBeFalse)
					So(s.Items(), ShouldResemble, []string{"a", "b", "c"})
				})
			})
		})

		Convey("When removing signatures", func() {
			s.Add("a")
			s.Add("b")
			s.Add("c")

			Convey("And the middle one goes", func() {
				So(s.Remove("b"), ShouldBeTrue)

				Convey("Then the rest stay linked", func() {
					So(s.Items(), ShouldResemble, []string{"a", "c"})
					So(s.Has("b"), ShouldBeFalse)
				})
			})

			Convey("And the ends go", func() {
				So(s.Remove("a"), ShouldBeTrue)
				So(s.Remove("c"), ShouldBeTrue)

				Convey("Then only the middle is left", func() {
					So(s.Items(), ShouldResemble, []string{"b"})
					s.Add("d")
					So(s.Items(), ShouldResemble, []string{"b", "d"})
				})
			})

			Convey("And an unknown one is removed", func() {
				So(s.Remove("zzz"), ShouldBeFalse)

				Convey("Then the size is unaffected", func() {
					So(s.Len(), ShouldEqual, 3)
				})
			})
		})
	})
}

func TestSetBounded(t *testing.T) {
	Convey("Given a set bounded to three", t, func() {
		s := sigset.New(sigset.WithMaxSize(3))
		for _, sig := range []string{"a", "b", "c"} {
			s.Add(sig)
		}

		Convey("When a fourth signature arrives", func() {
			s.Add("d")

			Convey("Then the oldest is evicted", func() {
				So(s.Len(), ShouldEqual, 3)
				So(s.Has("a"), ShouldBeFalse)
				So(s.Items(), ShouldResemble, []string{"b", "c", "d"})
			})
		})
	})

	Convey("Given a set with a negative bound", t, func() {
		s := sigset.New(sigset.WithMaxSize(-1))
		for i := 0; i < 1000; i++ {
			s.Add(fmt.Sprintf("sig-%d", i))
		}

		Convey("Then it is unbounded", func() {
			So(s.Len(), ShouldEqual, 1000)
		})
	})
}

func TestSetEdgeCases(t *testing.T) {
	Convey("Given edge-case signatures", t, func() {
		s := sigset.New()

		Convey("Then the empty string is a valid member", func() {
			So(s.Add(""), ShouldBeTrue)
			So(s.Has(""), ShouldBeTrue)
		})

		Convey("Then very long signatures are kept intact", func() {
			long := strings.Repeat("x", 10000)
			s.Add(long)
			So(s.Items()[0], ShouldEqual, long)
		})
	})
}

func TestSetConcurrency(t *testing.T) {
	Convey("Given a set shared between goroutines", t, func() {
		s := sigset.New()
		const goroutines, perG = 10, 100

		Convey("When they add and remove concurrently", func() {
			var wg sync.WaitGroup
			for g := 0; g < goroutines; g++ {
				wg.Add(1)
				go func(g int) {
					defer wg.Done()
					for i := 0; i < perG; i++ {
						sig := fmt.Sprintf("g%d-%d", g, i)
						s.Add(sig)
						if i%2 == 0 {
							s.Remove(sig)
						}
					}
				}(g)
			}
			wg.Wait()

			Convey("Then exactly the odd entries survive", func() {
				So(s.Len(), ShouldEqual, goroutines*perG/2)
				So(len(s.Items()), ShouldEqual, s.Len())
			})
		})
	})
}
