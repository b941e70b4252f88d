package model

import (
	"net/url"
	"strconv"
	"strings"
)

type dimState uint8

const (
	dimUnset dimState = iota
	dimAll
	dimToken
)

// Dim is a three-state dimension selector: unset, "all", or a concrete token.
// The zero value is unset.
type Dim struct {
	state dimState
	token string
}

// Unset returns an unset Dim.
func Unset() Dim { return Dim{} }

// All returns the "all" Dim.
func All() Dim { return Dim{state: dimAll} }

// Token returns a Dim selecting a concrete code.
func Token(token string) Dim { return Dim{state: dimToken, token: token} }

// ID returns a Dim selecting a concrete numeric code.
func ID(id int) Dim { return Token(strconv.Itoa(id)) }

// ParseDim maps "" to unset, "all" to All and anything else to a token.
func ParseDim(s string) Dim {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return Unset()
	case TokenAll:
		return All()
	default:
		return Token(s)
	}
}

// IsSet reports whether d is not unset.
func (d Dim) IsSet() bool { return d.state != dimUnset }

// IsAll reports whether d is "all".
func (d Dim) IsAll() bool { return d.state == dimAll }

// IsToken reports whether d holds a concrete token.
func (d Dim) IsToken() bool { return d.state == dimToken }

// Is reports whether d holds exactly token.
func (d Dim) Is(token string) bool { return d.state == dimToken && d.token == token }

// Int returns the token as an integer.
func (d Dim) Int() (int, bool) {
	if d.state != dimToken {
		return 0, false
	}
	n, err := strconv.Atoi(d.token)
	if err != nil {
		return 0, false
	}
	return n, true
}

// String renders d; unset renders as "".
func (d Dim) String() string {
	switch d.state {
	case dimAll:
		return TokenAll
	case dimToken:
		return d.token
	default:
		return ""
	}
}

// or returns d's rendering, or def when d is unset.
func (d Dim) or(def string) string {
	if !d.IsSet() {
		return def
	}
	return d.String()
}

// Query describes one outbound request. Unset fields take the upstream
// defaults: reporter 0, partner all, year now, commodity AG2.
type Query struct {
	Reporter  Dim
	Partner   Dim
	Year      Dim
	Commodity Dim
}

// Upstream parameter names and defaults.
const (
	ParamReporter  = "r"
	ParamPartner   = "p"
	ParamYear      = "ps"
	ParamCommodity = "cc"

	defaultReporter  = "0"
	defaultPartner   = TokenAll
	defaultYear      = "now"
	defaultCommodity = CommodityAG2
)

// Values returns the variable request parameters with defaults applied.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set(ParamReporter, q.Reporter.or(defaultReporter))
	v.Set(ParamPartner, q.Partner.or(defaultPartner))
	v.Set(ParamYear, q.Year.or(defaultYear))
	v.Set(ParamCommodity, q.Commodity.or(defaultCommodity))
	return v
}

// Signature is the canonical identity of the request q produces.
// Two queries share a signature exactly when they hit the same upstream URL.
func (q Query) Signature() string {
	var b strings.Builder
	b.WriteString(ParamReporter + "=" + q.Reporter.or(defaultReporter))
	b.WriteString("&" + ParamPartner + "=" + q.Partner.or(defaultPartner))
	b.WriteString("&" + ParamYear + "=" + q.Year.or(defaultYear))
	b.WriteString("&" + ParamCommodity + "=" + q.Commodity.or(defaultCommodity))
	return b.String()
}

// StoreFilter derives the Fact Store filter of q. Dimensions keep their
// state, so partner "all" still excludes the World aggregate.
func (q Query) StoreFilter() Filter {
	return Filter{
		Reporter:  q.Reporter,
		Partner:   q.Partner,
		Year:      q.Year,
		Commodity: q.Commodity,
	}
}

// DedupeFilter derives the merge scope of q. It is StoreFilter with partner
// "all" dropped, so World facts already stored are matched as well.
func (q Query) DedupeFilter() Filter {
	f := q.StoreFilter()
	if f.Partner.IsAll() {
		f.Partner = Unset()
	}
	return f
}

// Filter selects facts from the Fact Store.
//
//   - Reporter: exact match when a token.
//   - Partner: unset matches any; all excludes World; token is exact.
//   - Year: unset or all matches any; token is exact.
//   - Commodity: unset matches TOTAL; AG2 matches everything but TOTAL; token is exact.
//   - Flow: FlowAll matches both; otherwise exact.
type Filter struct {
	Reporter  Dim
	Partner   Dim
	Year      Dim
	Commodity Dim
	Flow      Flow
}

// Match reports whether f selects fact.
func (f Filter) Match(fact TradeFact) bool {
	if f.Reporter.IsToken() && !f.Reporter.matchesInt(fact.Reporter) {
		return false
	}
	switch {
	case f.Partner.IsAll():
		if fact.Partner == WorldPartner {
			return false
		}
	case f.Partner.IsToken():
		if !f.Partner.matchesInt(fact.Partner) {
			return false
		}
	}
	if f.Year.IsToken() && !f.Year.matchesInt(fact.Year) {
		return false
	}
	switch {
	case !f.Commodity.IsSet():
		if fact.Commodity != CommodityTotal {
			return false
		}
	case f.Commodity.Is(CommodityAG2):
		if fact.Commodity == CommodityTotal {
			return false
		}
	case f.Commodity.IsToken():
		if fact.Commodity != f.Commodity.String() {
			return false
		}
	}
	if f.Flow != FlowAll && f.Flow != fact.Flow {
		return false
	}
	return true
}

// matchesInt reports whether the token parses to n. Non-numeric tokens match nothing.
func (d Dim) matchesInt(n int) bool {
	v, ok := d.Int()
	return ok && v == n
}

// Filters is the user selection delivered on every refresh. Unset is
// distinct from "all".
type Filters struct {
	Reporter  Dim
	Partner   Dim
	Commodity Dim
	Year      Dim
	Flow      Flow
}

// HasPartner reports whether a concrete, non-World partner is selected.
func (f Filters) HasPartner() bool {
	n, ok := f.Partner.Int()
	return ok && n != WorldPartner
}

// HasCommodity reports whether a concrete commodity is selected.
func (f Filters) HasCommodity() bool {
	return f.Commodity.IsToken()
}
