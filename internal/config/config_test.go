package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/tradeflow/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.MinInterval(), convey.ShouldEqual, 1100*time.Millisecond)
			convey.So(cfg.RetryGrace(), convey.ShouldEqual, 100*time.Millisecond)
			convey.So(cfg.RequestTimeout(), convey.ShouldEqual, 75*time.Second)
			convey.So(cfg.MaxConflictRetries, convey.ShouldEqual, 1)
			convey.So(cfg.MaxRecords, convey.ShouldEqual, 50_000)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one invalid field", t, func() {
		cases := map[string]func(c *config.Config){
			"empty addr":         func(c *config.Config) { c.Addr = "" },
			"empty base url":     func(c *config.Config) { c.APIBaseURL = " " },
			"negative interval":  func(c *config.Config) { c.MinIntervalMS = -1 },
			"negative grace":     func(c *config.Config) { c.RetryGraceMS = -1 },
			"zero timeout":       func(c *config.Config) { c.RequestTimeoutMS = 0 },
			"negative conflicts": func(c *config.Config) { c.MaxConflictRetries = -1 },
			"zero queue":         func(c *config.Config) { c.JobQueueSize = 0 },
			"zero workers":       func(c *config.Config) { c.WorkerCount = 0 },
		}
		for name, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()

			convey.Convey("Then "+name+" is rejected", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}
