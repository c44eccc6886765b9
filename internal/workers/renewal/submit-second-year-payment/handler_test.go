package submitsecondyearpayment

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

const secondYearQuote = `{
	"quote_id": "SY1",
	"quote_type": "second_year_payment",
	"program_code": "RAS",
	"state": "RI",
	"email": "ash@example.com",
	"policy_num": "RAS4885410-24",
	"secondYear_payment": {
		"fullname": "Ash Howell",
		"firm_name": "Howell Realty",
		"current_limit_option": "250000/500000",
		"limit_claim_id": "3",
		"annual_premium": 1200,
		"total_amount_without_tax": 1200,
		"tax_amount": "60",
		"convenience_fee": 0,
		"total_amount_with_tax": "1260.00"
	}
}`

type fakeAPI struct {
	calls   int
	payload interface{}
	resp    models.QuoteSaveResponse
	err     error
}

func (f *fakeAPI) SubmitSecondYearPayment(_ context.Context, payload interface{}) (models.QuoteSaveResponse, error) {
	f.calls++
	f.payload = payload
	return f.resp, f.err
}

func setup(t *testing.T, api *fakeAPI) (*Handler, *session.State) {
	registry := session.NewRegistry(cache.NewMemoryStore())
	st, err := registry.GetOrCreate(uuid.NewString())
	require.NoError(t, err)

	resp, err := models.ParseQuoteResponse([]byte(secondYearQuote))
	require.NoError(t, err)
	typed := cache.NewTyped[models.CachedQuote](st.Cache(), cache.KeyCachedQuote, nil)
	require.NoError(t, typed.SaveEntry(context.Background(), models.CachedQuote{QuoteResponse: resp}, 36*time.Hour))

	return NewHandler(nil, api, nil, registry, logger.NewTestLogger(t)), st
}

func validInput(sessionID string) Input {
	return Input{
		SessionID: sessionID,
		QuoteID:   "SY1",
		Email:     "ash@example.com",
		ESign:     "Ash Howell",
		TAndC:     models.NewBool(true),
	}
}

func TestValidate(t *testing.T) {
	assert.True(t, Validate(validInput("")).Valid)

	res := Validate(Input{Email: "nope"})
	require.False(t, res.Valid)
	fields := make([]string, 0, len(res.Errors))
	for _, e := range res.Errors {
		fields = append(fields, e.Field)
	}
	assert.Equal(t, []string{"email", "e_sign", "t_and_c"}, fields)
}

func TestBuildRequest(t *testing.T) {
	resp, err := models.ParseQuoteResponse([]byte(secondYearQuote))
	require.NoError(t, err)
	q := resp.Variant.(models.SecondYearPaymentQuote)
	fee := models.MustParseMoney("25")

	req := BuildRequest(q, validInput(""), fee)
	assert.Equal(t, models.PolicyPaymentSecondYearPayment, req.PolicyPaymentType)
	assert.Equal(t, "RAS4885410-24", req.PolicyNum)
	assert.Equal(t, "Ash Howell", req.Fullname)
	assert.Equal(t, "60.00", req.PolicyData.TaxAmount.String())
	assert.Equal(t, "1260.00", req.PolicyData.TotalAmount.String())

	in := validInput("")
	in.ConvenienceFee = models.NewBool(true)
	req = BuildRequest(q, in, fee)
	assert.Equal(t, "1285.00", req.PolicyData.TotalAmount.String())
}

func TestExecute_Success(t *testing.T) {
	api := &fakeAPI{resp: models.QuoteSaveResponse{
		QuoteID:            "SY1",
		PaymentClientToken: "tok_sy",
		PolicyData:         models.SavedPolicyData{TotalAmount: models.MustParseMoney("1260")},
	}}
	h, st := setup(t, api)

	in := validInput(st.ID())
	out, err := h.Execute(context.Background(), &in)
	require.NoError(t, err)

	assert.Equal(t, 1, api.calls)
	_, ok := api.payload.(models.SecondYearPaymentRequest)
	assert.True(t, ok)
	assert.Equal(t, "1260.00", out.Handoff.Amount)
	assert.Equal(t, models.PolicyPaymentSecondYearPayment, out.Handoff.PolicyPaymentType)
	assert.Empty(t, out.DownloadURL)
	assert.Equal(t, session.StageReviewing, st.Stage())
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
		apiErr error
		code   apperrors.ErrorCode
		calls  int
	}{
		{
			name:   "other quote",
			mutate: func(in *Input) { in.QuoteID = "SY2" },
			code:   apperrors.ErrCodeQuoteNotFound,
		},
		{
			name:   "terms not accepted",
			mutate: func(in *Input) { in.TAndC = models.Bool{} },
			code:   apperrors.ErrCodeApplicationValidationFailed,
		},
		{
			name:   "backend rejects",
			mutate: func(*Input) {},
			apiErr: apperrors.NewBackendHTTPError(500, "Internal Server Error"),
			code:   apperrors.ErrCodeBackendHTTP,
			calls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{err: tt.apiErr}
			h, st := setup(t, api)

			in := validInput(st.ID())
			tt.mutate(&in)
			_, err := h.Execute(context.Background(), &in)
			assert.True(t, apperrors.HasCode(err, tt.code), "%v", err)
			assert.Equal(t, tt.calls, api.calls)
			_, ok := st.Handoff()
			assert.False(t, ok)
		})
	}
}
