// internal/workers/quote/resolve-qualifier/models.go
package resolvequalifier

import (
	"net/url"
	"strings"

	"quote-workflow/internal/models"
)

// Input is the qualifier submission of one session.
type Input struct {
	SessionID string              `json:"sessionId"`
	Qualifier models.QuoteRequest `json:"qualifier"`
}

// RouteKind names the page a decision navigates to.
type RouteKind string

const (
	RouteApplication    RouteKind = "application"
	RouteAutoRenewal    RouteKind = "auto_renewal"
	RoutePendingPayment RouteKind = "pending_payment"
	RouteRegister       RouteKind = "register"
	RouteLogin          RouteKind = "login"
)

const (
	registerMessage = "Please register to fetch your previous year policy details for pre-filling the application."
	loginMessage    = "Please login to fetch your previous year policy details for pre-filling the application."
)

// QueryParam keeps query parameters in the order they are rendered.
type QueryParam struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type Route struct {
	Kind  RouteKind    `json:"kind"`
	Path  string       `json:"path"`
	Query []QueryParam `json:"query,omitempty"`
}

// String renders the route as a relative URL. Values are encoded the way
// browsers encode URI components, so spaces become %20.
func (r Route) String() string {
	if len(r.Query) == 0 {
		return r.Path
	}
	var b strings.Builder
	b.WriteString(r.Path)
	for i, p := range r.Query {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(encodeComponent(p.Value))
	}
	return b.String()
}

func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Decision is where the applicant goes after the qualifier.
type Decision struct {
	Route     Route            `json:"route"`
	URL       string           `json:"url"`
	QuoteID   string           `json:"quoteId"`
	QuoteType models.QuoteType `json:"quoteType"`
	FromCache bool             `json:"fromCache"`
}

// Output is the job result.
type Output struct {
	SessionID string   `json:"sessionId"`
	Decision  Decision `json:"decision"`
}
