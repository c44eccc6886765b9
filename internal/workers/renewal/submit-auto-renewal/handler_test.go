package submitautorenewal

import (
	"context"
	"testing"
	"time"

	"quote-workflow/internal/common/cache"
	apperrors "quote-workflow/internal/common/errors"
	"quote-workflow/internal/common/logger"
	"quote-workflow/internal/common/session"
	"quote-workflow/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

const autoRenewalQuote = `{
	"quote_id": "AR1",
	"quote_type": "auto_renewal",
	"program_code": "RAP",
	"state": "MA",
	"email": "jane@example.com",
	"autoRenewal_data": {
		"firm_name": "Doe Appraisals",
		"state": "MA",
		"policy_num": "RAP1234567",
		"current_limit_option": "100000/300000",
		"limit_claim_id": "7",
		"convenience_fees": 25,
		"annual_premium": "700",
		"total_amount_without_tax": 700,
		"tax_amount": "35.00",
		"total_amount_with_tax": "735.00"
	}
}`

type fakeAPI struct {
	calls   int
	payload interface{}
	resp    models.QuoteSaveResponse
	err     error
}

func (f *fakeAPI) SubmitAutoRenewal(_ context.Context, payload interface{}) (models.QuoteSaveResponse, error) {
	f.calls++
	f.payload = payload
	return f.resp, f.err
}

type pdfLinks struct{}

func (pdfLinks) PDFDownloadURL(quoteID string) string { return "https://files.example.com/" + quoteID }

func cacheQuote(t *testing.T, st *session.State, body string) {
	resp, err := models.ParseQuoteResponse([]byte(body))
	require.NoError(t, err)
	typed := cache.NewTyped[models.CachedQuote](st.Cache(), cache.KeyCachedQuote, nil)
	require.NoError(t, typed.SaveEntry(context.Background(), models.CachedQuote{QuoteResponse: resp}, 36*time.Hour))
}

func validInput(sessionID string) Input {
	return Input{
		SessionID: sessionID,
		QuoteID:   "AR1",
		Email:     " jane@example.com ",
		ESign:     "Jane Doe",
		TAndC:     models.NewBool(true),
		NoChanges: NoChangesAnswers{
			AddressContact:     models.NewBool(true),
			NewFirmsAdditional: models.NewBool(true),
			LimitChanges:       models.NewBool(true),
		},
	}
}

func setup(t *testing.T, api *fakeAPI) (*Handler, *session.State) {
	registry := session.NewRegistry(cache.NewMemoryStore())
	st, err := registry.GetOrCreate(uuid.NewString())
	require.NoError(t, err)
	cacheQuote(t, st, autoRenewalQuote)
	return NewHandler(nil, api, pdfLinks{}, registry, logger.NewTestLogger(t)), st
}

func backendResponse(total string) models.QuoteSaveResponse {
	return models.QuoteSaveResponse{
		QuoteID:            "AR1",
		QuoteType:          "auto_renewal",
		PaymentClientToken: "tok_ar",
		PolicyData:         models.SavedPolicyData{TotalAmount: models.MustParseMoney(total)},
	}
}

// ==========================
// Validation
// ==========================

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Input)
		field   string
		message string
	}{
		{
			name:    "address unchanged not confirmed",
			mutate:  func(in *Input) { in.NoChanges.AddressContact = models.NewBool(false) },
			field:   "no_changes.address_contact",
			message: "You must agree to continue with auto renewal",
		},
		{
			name:    "limit changes missing",
			mutate:  func(in *Input) { in.NoChanges.LimitChanges = models.Bool{} },
			field:   "no_changes.limit_changes",
			message: "You must agree to continue with auto renewal",
		},
		{
			name:    "bad email",
			mutate:  func(in *Input) { in.Email = "jane@" },
			field:   "email",
			message: "Invalid email address",
		},
		{
			name:    "no signature",
			mutate:  func(in *Input) { in.ESign = "  " },
			field:   "e_sign",
			message: "E-signature is required",
		},
		{
			name:    "terms not accepted",
			mutate:  func(in *Input) { in.TAndC = models.NewBool(false) },
			field:   "t_and_c",
			message: "You must accept the terms and conditions to continue",
		},
	}

	assert.True(t, Validate(validInput("")).Valid)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput("")
			tt.mutate(&in)
			res := Validate(in)
			require.False(t, res.Valid)
			first, ok := res.First()
			require.True(t, ok)
			assert.Equal(t, tt.field, first.Field)
			assert.Equal(t, tt.message, first.Message)
		})
	}
}

// ==========================
// Request
// ==========================

func TestBuildRequest_Totals(t *testing.T) {
	resp, err := models.ParseQuoteResponse([]byte(autoRenewalQuote))
	require.NoError(t, err)
	q := resp.Variant.(models.AutoRenewalQuote)
	fee := models.MustParseMoney("25")

	in := validInput("")
	req := BuildRequest(q, in, fee)
	assert.Equal(t, models.PolicyPaymentAutoRenewal, req.PolicyPaymentType)
	assert.Equal(t, "RAP1234567", req.PolicyNum)
	assert.Equal(t, "jane@example.com", req.Email)
	assert.Equal(t, "100000/300000", req.PolicyData.PriceLimit.String())
	assert.Equal(t, "735.00", req.PolicyData.TotalAmount.String())
	assert.True(t, req.PolicyData.ConvenienceFee.IsZero())
	assert.True(t, req.NoChanges.LimitChanges)

	in.ConvenienceFee = models.NewBool(true)
	req = BuildRequest(q, in, fee)
	assert.Equal(t, "760.00", req.PolicyData.TotalAmount.String())
	assert.Equal(t, "25.00", req.PolicyData.ConvenienceFee.String())
}

// ==========================
// Submit
// ==========================

func TestExecute_Success(t *testing.T) {
	api := &fakeAPI{resp: backendResponse("760.00")}
	h, st := setup(t, api)

	in := validInput(st.ID())
	in.ConvenienceFee = models.NewBool(true)
	out, err := h.Execute(context.Background(), &in)
	require.NoError(t, err)

	assert.Equal(t, 1, api.calls)
	sent, ok := api.payload.(models.AutoRenewalRequest)
	require.True(t, ok)
	assert.Equal(t, "760.00", sent.PolicyData.TotalAmount.String())

	assert.Equal(t, "760.00", out.Handoff.Amount)
	assert.Equal(t, models.PolicyPaymentAutoRenewal, out.Handoff.PolicyPaymentType)
	assert.Equal(t, "https://files.example.com/AR1", out.DownloadURL)
	assert.Equal(t, session.StageReviewing, st.Stage())

	h2, err := st.MatchingHandoff("AR1", "tok_ar")
	require.NoError(t, err)
	assert.Equal(t, "760.00", h2.Amount)

	draft := cache.NewTyped[models.AutoRenewalRequest](st.Cache(), models.RenewalDraftKey(models.PolicyPaymentAutoRenewal, "AR1"), nil)
	saved, ok := draft.Load(context.Background())
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", saved.ESign)
}

func TestExecute_InvalidSkipsBackend(t *testing.T) {
	api := &fakeAPI{resp: backendResponse("735.00")}
	h, st := setup(t, api)

	in := validInput(st.ID())
	in.ESign = ""
	_, err := h.Execute(context.Background(), &in)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeApplicationValidationFailed))
	assert.Equal(t, 0, api.calls)
	_, ok := st.Handoff()
	assert.False(t, ok)
}

func TestExecute_QuoteNotFound(t *testing.T) {
	tests := []struct {
		name    string
		quoteID string
		cached  string
	}{
		{name: "different quote id", quoteID: "AR2", cached: autoRenewalQuote},
		{name: "not an auto-renewal quote", quoteID: "Q1", cached: `{"quote_id":"Q1","quote_type":"new_business","program_code":"RAP"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			h, st := setup(t, api)
			cacheQuote(t, st, tt.cached)

			in := validInput(st.ID())
			in.QuoteID = tt.quoteID
			_, err := h.Execute(context.Background(), &in)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeQuoteNotFound))
			assert.Equal(t, 0, api.calls)
		})
	}
}

func TestExecute_BackendFailure(t *testing.T) {
	api := &fakeAPI{err: apperrors.NewBackendHTTPError(503, "Service Unavailable")}
	h, st := setup(t, api)

	in := validInput(st.ID())
	_, err := h.Execute(context.Background(), &in)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeBackendHTTP))
	assert.Equal(t, session.StageDrafting, st.Stage())
	_, ok := st.Handoff()
	assert.False(t, ok)
}
