// internal/workers/quote/resolve-qualifier/service.go
package resolvequalifier

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"quote-workflow/internal/common/cache"
	apperrors "quote-workflow/internal/common/errors"
	"quote-workflow/internal/common/logger"
	"quote-workflow/internal/common/metrics"
	"quote-workflow/internal/common/session"
	"quote-workflow/internal/models"
)

// QualifierAPI is the backend call the resolver needs.
type QualifierAPI interface {
	Qualifier(ctx context.Context, q models.QuoteRequest) (models.QuoteResponse, error)
}

type ServiceDependencies struct {
	API    QualifierAPI
	Logger logger.Logger
	Clock  func() time.Time
}

type Service struct {
	config *Config
	api    QualifierAPI
	logger logger.Logger
	now    func() time.Time
	group  singleflight.Group
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Service{
		config: config,
		api:    deps.API,
		logger: deps.Logger,
		now:    deps.Clock,
	}
}

type quoteResult struct {
	resp      models.QuoteResponse
	fromCache bool
}

// Resolve validates a qualifier submission, obtains its quote (from the
// session cache when an identical submission is still fresh) and decides
// where the applicant goes next.
func (s *Service) Resolve(ctx context.Context, st *session.State, req models.QuoteRequest) (*Decision, error) {
	req, err := Validate(req.Normalized(), s.now(), s.config)
	if err != nil {
		return nil, err
	}

	key := st.ID() + "|" + requestKey(req)
	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		return s.obtainQuote(ctx, st, req)
	})
	if err != nil {
		return nil, err
	}
	res := v.(quoteResult)

	decision, err := Decide(req, res.resp)
	if err != nil {
		s.logger.Warn("Qualifier returned an unroutable quote", map[string]interface{}{
			"sessionId": st.ID(),
			"quoteId":   res.resp.QuoteID(),
			"quoteType": res.resp.Header().QuoteType,
		})
		return nil, err
	}
	decision.FromCache = res.fromCache

	if err := s.advance(st, decision.Route.Kind); err != nil {
		return nil, err
	}

	metrics.QualifierDecisions.WithLabelValues(string(decision.QuoteType), strconv.FormatBool(decision.FromCache)).Inc()
	s.logger.Info("Qualifier resolved", map[string]interface{}{
		"sessionId": st.ID(),
		"quoteId":   decision.QuoteID,
		"quoteType": decision.QuoteType,
		"route":     decision.URL,
		"fromCache": decision.FromCache,
		"shared":    shared,
	})
	return &decision, nil
}

func (s *Service) advance(st *session.State, kind RouteKind) error {
	if kind == RouteRegister || kind == RouteLogin {
		return st.Restart(session.StageQuoted, session.StageAuthenticating)
	}
	return st.Restart(session.StageQuoted)
}

func (s *Service) obtainQuote(ctx context.Context, st *session.State, req models.QuoteRequest) (quoteResult, error) {
	quotes := cache.NewTyped[models.CachedQuote](st.Cache(), cache.KeyCachedQuote, s.logger, cache.WithClock(s.now))

	if entry, ok := quotes.LoadEntry(ctx); ok {
		cached := entry.Value
		if entry.Fresh(s.now()) && cached.FormData == req && cached.QuoteResponse.QuoteID() != "" {
			s.rememberQuoteID(ctx, st, cached.QuoteResponse.QuoteID())
			return quoteResult{resp: cached.QuoteResponse, fromCache: true}, nil
		}
		s.logger.Debug("Cached quote not reusable", map[string]interface{}{
			"sessionId": st.ID(),
			"age":       entry.Age(s.now()).String(),
			"sameForm":  cached.FormData == req,
		})
	}

	form := cache.NewTyped[models.QuoteRequest](st.Cache(), cache.KeyQualifierForm, s.logger)
	if err := form.Save(ctx, req); err != nil {
		s.cacheWriteFailed(st, cache.KeyQualifierForm, err)
	}

	resp, err := s.api.Qualifier(ctx, req)
	if err != nil {
		return quoteResult{}, err
	}
	if resp.QuoteID() == "" {
		return quoteResult{}, apperrors.NewQuoteIDMissingError()
	}

	s.rememberQuoteID(ctx, st, resp.QuoteID())
	if err := quotes.SaveEntry(ctx, models.CachedQuote{FormData: req, QuoteResponse: resp}, s.config.QuoteTTL); err != nil {
		s.cacheWriteFailed(st, cache.KeyCachedQuote, err)
	}
	return quoteResult{resp: resp}, nil
}

func (s *Service) rememberQuoteID(ctx context.Context, st *session.State, quoteID string) {
	ids := cache.NewTyped[string](st.Cache(), cache.KeyQuoteID, s.logger)
	if err := ids.Save(ctx, quoteID); err != nil {
		s.cacheWriteFailed(st, cache.KeyQuoteID, err)
	}
}

func (s *Service) cacheWriteFailed(st *session.State, key string, err error) {
	s.logger.Warn("Cache write failed", map[string]interface{}{
		"sessionId": st.ID(),
		"key":       key,
		"error":     err.Error(),
	})
}

func requestKey(r models.QuoteRequest) string {
	return strings.Join([]string{
		r.ProgramCode,
		r.State,
		strconv.FormatBool(r.CurrentlyInsurance),
		strconv.FormatBool(r.GAInsurance),
		r.EffectiveDate,
		r.ExpiryDate,
		r.PolicyNum,
	}, "|")
}

// Decide maps a qualifier response to a route. It has no side effects.
func Decide(req models.QuoteRequest, resp models.QuoteResponse) (Decision, error) {
	h := resp.Header()
	var route Route

	switch resp.Variant.(type) {
	case models.NewBusinessQuote:
		program := h.ProgramCode
		if program == "" {
			program = req.ProgramCode
		}
		route = Route{Kind: RouteApplication, Path: quotePath(program, h.QuoteID)}
	case models.RenewalQuote:
		route = gate(h, Route{Kind: RouteApplication, Path: quotePath(req.ProgramCode, h.QuoteID)})
	case models.AutoRenewalQuote:
		route = gate(h, Route{Kind: RouteAutoRenewal, Path: "/quote/auto-renew/" + h.QuoteID})
	case models.SecondYearPaymentQuote:
		route = Route{Kind: RoutePendingPayment, Path: "/quote/pending-payment/" + h.QuoteID}
	default:
		return Decision{}, apperrors.NewUnknownQuoteTypeError(string(h.QuoteType))
	}

	return Decision{
		Route:     route,
		URL:       route.String(),
		QuoteID:   h.QuoteID,
		QuoteType: h.QuoteType,
	}, nil
}

func quotePath(program, quoteID string) string {
	return "/quote/" + strings.ToLower(program) + "/" + quoteID
}

// gate sends renewing applicants through registration or login first so
// their prior policy can be prefilled.
func gate(h models.QuoteHeader, target Route) Route {
	switch {
	case h.RegistrationStatus == models.NotRegistered:
		return Route{Kind: RouteRegister, Path: "/register", Query: authQuery(target, registerMessage)}
	case h.LoginStatus == models.NotLoggedIn:
		return Route{Kind: RouteLogin, Path: "/login", Query: authQuery(target, loginMessage)}
	default:
		return target
	}
}

func authQuery(target Route, message string) []QueryParam {
	return []QueryParam{
		{Key: "returnUrl", Value: target.String()},
		{Key: "message", Value: message},
	}
}

// Validate checks the qualifier form and rewrites its dates as MM/DD/YYYY.
// The first failing field is returned as QUALIFIER_VALIDATION_FAILED.
func Validate(req models.QuoteRequest, now time.Time, cfg *Config) (models.QuoteRequest, error) {
	if req.ProgramCode == "" || !models.IsKnownProgram(req.ProgramCode) {
		return req, apperrors.NewQualifierValidationError("program_code", "Please select a program.")
	}
	if req.State == "" {
		return req, apperrors.NewQualifierValidationError("state", "Please select a state.")
	}

	effective, hasEffective := models.ParseDate(req.EffectiveDate)
	expiry, hasExpiry := models.ParseDate(req.ExpiryDate)

	if !req.CurrentlyInsurance || !req.GAInsurance {
		if !hasEffective {
			return req, apperrors.NewQualifierValidationError("effective_date", "Date is required")
		}
		lower, upper := effectiveWindow(now, cfg)
		if effective.Before(lower) || effective.After(upper) {
			return req, apperrors.NewQualifierValidationError("effective_date",
				fmt.Sprintf("Effective date must be between %s and %s",
					models.Date{Time: lower}.USDate(), models.Date{Time: upper}.USDate()))
		}
	} else if !hasExpiry {
		return req, apperrors.NewQualifierValidationError("expiry_date", "Date is required")
	}

	req.EffectiveDate = effective.USDate()
	req.ExpiryDate = expiry.USDate()
	return req, nil
}

func effectiveWindow(now time.Time, cfg *Config) (time.Time, time.Time) {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return today.AddDate(0, 0, -cfg.EffectiveDaysBack), today.AddDate(0, 0, cfg.EffectiveDaysAhead)
}
