// internal/workflow/steps.go
package workflow

import (
	"context"
	"time"

	"quote-workflow/internal/common/backend"
	"quote-workflow/internal/common/cache"
	"quote-workflow/internal/common/camunda"
	"quote-workflow/internal/common/config"
	"quote-workflow/internal/common/logger"
	"quote-workflow/internal/common/session"
	buildreview "quote-workflow/internal/workers/application/build-review"
	prepareapplicationform "quote-workflow/internal/workers/application/prepare-application-form"
	submitapplication "quote-workflow/internal/workers/application/submit-application"
	processpayment "quote-workflow/internal/workers/payment/process-payment"
	calculatepremium "quote-workflow/internal/workers/quote/calculate-premium"
	fetchsupportedstates "quote-workflow/internal/workers/quote/fetch-supported-states"
	resolvequalifier "quote-workflow/internal/workers/quote/resolve-qualifier"
	submitautorenewal "quote-workflow/internal/workers/renewal/submit-auto-renewal"
	submitsecondyearpayment "quote-workflow/internal/workers/renewal/submit-second-year-payment"
)

// Backend is every call the steps make to the external insurance API.
// *backend.Client implements it.
type Backend interface {
	resolvequalifier.QualifierAPI
	fetchsupportedstates.StatesAPI
	submitapplication.SaveAPI
	buildreview.PDFLinker
	processpayment.PayAPI
	submitautorenewal.AutoRenewAPI
	submitsecondyearpayment.SecondYearAPI
	UploadDocument(ctx context.Context, doc backend.Document) (string, error)
	SendVerificationEmail(ctx context.Context, email string) error
}

var _ Backend = (*backend.Client)(nil)

// Steps holds one handler per workflow step. The same handlers serve Zeebe
// jobs and HTTP requests.
type Steps struct {
	Sessions *session.Registry
	Backend  Backend

	Qualifier       *resolvequalifier.Handler
	Premium         *calculatepremium.Handler
	SupportedStates *fetchsupportedstates.Handler
	Form            *prepareapplicationform.Handler
	Submit          *submitapplication.Handler
	Review          *buildreview.Handler
	Payment         *processpayment.Handler
	AutoRenewal     *submitautorenewal.Handler
	SecondYear      *submitsecondyearpayment.Handler
}

type Options struct {
	Config   *config.Config
	Backend  Backend
	Store    cache.Store
	Sessions *session.Registry
	Logger   logger.Logger
	Clock    func() time.Time
}

func New(opts Options) *Steps {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	sessions := opts.Sessions
	if sessions == nil {
		sessions = session.NewRegistry(opts.Store)
	}
	api := opts.Backend

	return &Steps{
		Sessions: sessions,
		Backend:  api,
		Qualifier: resolvequalifier.NewHandler(resolvequalifier.HandlerOptions{
			AppConfig: opts.Config,
			API:       api,
			Sessions:  sessions,
			Logger:    log,
			Clock:     opts.Clock,
		}),
		Premium: calculatepremium.NewHandler(opts.Config, log),
		SupportedStates: fetchsupportedstates.NewHandler(fetchsupportedstates.HandlerOptions{
			AppConfig: opts.Config,
			API:       api,
			Store:     opts.Store,
			Sessions:  sessions,
			Logger:    log,
			Clock:     opts.Clock,
		}),
		Form:        prepareapplicationform.NewHandler(opts.Config, sessions, log),
		Submit:      submitapplication.NewHandler(opts.Config, api, sessions, log),
		Review:      buildreview.NewHandler(opts.Config, api, sessions, log),
		Payment:     processpayment.NewHandler(opts.Config, api, sessions, log),
		AutoRenewal: submitautorenewal.NewHandler(opts.Config, api, api, sessions, log),
		SecondYear:  submitsecondyearpayment.NewHandler(opts.Config, api, api, sessions, log),
	}
}

// JobHandlers maps every task type to its handler.
func (s *Steps) JobHandlers() map[string]camunda.JobHandler {
	return map[string]camunda.JobHandler{
		resolvequalifier.TaskType:        s.Qualifier,
		calculatepremium.TaskType:        s.Premium,
		fetchsupportedstates.TaskType:    s.SupportedStates,
		prepareapplicationform.TaskType:  s.Form,
		submitapplication.TaskType:       s.Submit,
		buildreview.TaskType:             s.Review,
		processpayment.TaskType:          s.Payment,
		submitautorenewal.TaskType:       s.AutoRenewal,
		submitsecondyearpayment.TaskType: s.SecondYear,
	}
}
