package submitapplication

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"quote-workflow/internal/common/cache"
	apperrors "quote-workflow/internal/common/errors"
	"quote-workflow/internal/common/logger"
	"quote-workflow/internal/common/session"
	"quote-workflow/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeSaver struct {
	calls int
	got   models.ApplicationForm
	err   error
}

func (f *fakeSaver) SaveQuote(_ context.Context, form models.ApplicationForm) (models.QuoteSaveResponse, error) {
	f.calls++
	f.got = form
	if f.err != nil {
		return models.QuoteSaveResponse{}, f.err
	}
	return models.QuoteSaveResponse{
		QuoteID:            form.QuoteID,
		Program:            form.ProgramCode,
		PaymentClientToken: "tok_123",
		PolicyData:         models.SavedPolicyData{TotalAmount: models.MustParseMoney("812.50")},
	}, nil
}

func allTrue() models.Answers {
	var a models.Answers
	for i := range a {
		a[i] = models.NewBool(true)
	}
	return a
}

func validRAP() models.ApplicationForm {
	return models.ApplicationForm{
		QuoteID:            "Q1",
		QuoteType:          "new_business",
		Program:            "Individual Real Estate Appraiser Application",
		ProgramCode:        "RAP",
		State:              "MA",
		CurrentlyInsurance: models.NewBool(false),
		GAInsurance:        models.NewBool(false),
		Fullname:           "Jane Doe",
		FirmNames:          models.FirmNameList("Doe Appraisals", ""),
		Address:            models.Address{AddressLine1: "1 Main St", City: "Boston", State: "MA", Zipcode: "02108"},
		IsMailingSame:      models.NewBool(true),
		PhoneNo:            "6175550100",
		Email:              "jane@example.com",
		ConfirmEmail:       "jane@example.com",
		NoOfProfessional:   "2",
		EffectiveDate:      models.NewDate(2025, time.June, 10),
		GrossAnnualIncome:  "$120,000",
		PremiumTable:       "Table1-50000-1000-750.00-1000,50000",
		Answers:            allTrue(),
		PolicyData: models.PolicyData{
			AnnualPremium:  models.MustParseMoney("750"),
			TaxPercent:     "5",
			StateTax:       models.MustParseMoney("37.50"),
			ConvenienceFee: models.MustParseMoney("25"),
			TotalAmount:    models.MustParseMoney("812.50"),
			BillTerm:       1,
			PolicyTerm:     1,
		},
		ConvenienceFees: models.NewBool(true),
		ESign:           "Jane Doe",
		TAndC:           models.NewBool(true),
	}
}

func validRAS() models.ApplicationForm {
	f := validRAP()
	f.ProgramCode = "RAS"
	f.FirmNames = models.SingleFirmName("Acme Realty")
	f.NoOfProfessional = ""
	f.ApplicantIs = "Broker"
	f.NoOfProfessionalMoreThan20k = "3"
	f.NoOfProfessionalLessThan20k = "1"
	f.NoOfTransactions = "40"
	f.HasPredecessorCoverage = models.NewBool(false)
	return f
}

func setup(t *testing.T, api SaveAPI) (*Handler, *session.State) {
	registry := session.NewRegistry(cache.NewMemoryStore())
	st := registry.Create()
	require.NoError(t, st.Advance(session.StageDrafting))
	return NewHandler(nil, api, registry, logger.NewTestLogger(t)), st
}

// ==========================
// Validation gate
// ==========================

func TestValidate_Valid(t *testing.T) {
	assert.True(t, Validate(validRAP()).Valid)
	assert.True(t, Validate(validRAS()).Valid)
}

func TestValidate_FirstInvalidField(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(f *models.ApplicationForm)
		field    string
		message  string
		strategy FocusStrategy
		popover  bool
	}{
		{
			name:     "short name",
			mutate:   func(f *models.ApplicationForm) { f.Fullname = "J" },
			field:    "fullname",
			message:  "Full Name must be at least 2 characters.",
			strategy: StrategyFocus,
		},
		{
			name:     "no firm name",
			mutate:   func(f *models.ApplicationForm) { f.FirmNames = models.FirmNameList("", " ") },
			field:    "firm_name.0",
			message:  "Firm Name must be at least 2 characters.",
			strategy: StrategyFocus,
		},
		{
			name:     "short second firm name",
			mutate:   func(f *models.ApplicationForm) { f.FirmNames = models.FirmNameList("Doe Appraisals", "D") },
			field:    "firm_name.1",
			message:  "Firm Name must be at least 2 characters.",
			strategy: StrategyFocus,
		},
		{
			name:     "short zip",
			mutate:   func(f *models.ApplicationForm) { f.Address.Zipcode = "021" },
			field:    "address.zipcode",
			message:  "Zip code is required",
			strategy: StrategyFocus,
		},
		{
			name:     "short phone",
			mutate:   func(f *models.ApplicationForm) { f.PhoneNo = "617555" },
			field:    "phone_no",
			message:  "Phone Number must be at least 10 digits.",
			strategy: StrategyFocus,
		},
		{
			name:     "bad website",
			mutate:   func(f *models.ApplicationForm) { f.WebsiteURL = "doe appraisals" },
			field:    "website_url",
			message:  "Please enter a valid URL.",
			strategy: StrategyFocus,
		},
		{
			name:     "emails differ",
			mutate:   func(f *models.ApplicationForm) { f.ConfirmEmail = "jane@example.org" },
			field:    "confirmEmail",
			message:  "Emails don't match",
			strategy: StrategyFocus,
		},
		{
			name:     "no effective date",
			mutate:   func(f *models.ApplicationForm) { f.EffectiveDate = models.Date{} },
			field:    "effective_date",
			message:  "Effective Date is required.",
			strategy: StrategyScrollIntoView,
			popover:  true,
		},
		{
			name:     "income not a number",
			mutate:   func(f *models.ApplicationForm) { f.GrossAnnualIncome = "lots" },
			field:    "gross_annual_income",
			message:  "Please enter a valid amount",
			strategy: StrategyFocus,
		},
		{
			name:     "income negative",
			mutate:   func(f *models.ApplicationForm) { f.GrossAnnualIncome = "-5" },
			field:    "gross_annual_income",
			message:  "Please enter a valid amount",
			strategy: StrategyFocus,
		},
		{
			name:     "RAP answer false",
			mutate:   func(f *models.ApplicationForm) { f.Answers[4] = models.NewBool(false) },
			field:    "answers",
			message:  "You must answer 'True' to this question to be eligible for this insurance.",
			strategy: StrategyScrollIntoView,
		},
		{
			name:     "answer missing",
			mutate:   func(f *models.ApplicationForm) { f.Answers[2] = models.Bool{} },
			field:    "answers",
			message:  "All qualifier questions need to be answered",
			strategy: StrategyScrollIntoView,
		},
		{
			name:     "no coverage",
			mutate:   func(f *models.ApplicationForm) { f.PolicyData.AnnualPremium = models.Money{} },
			field:    "premium_table",
			message:  "Please select a coverage option",
			strategy: StrategyScrollIntoView,
		},
		{
			name:     "fee not accepted",
			mutate:   func(f *models.ApplicationForm) { f.ConvenienceFees = models.NewBool(false) },
			field:    "convenience_fees",
			message:  "You must accept the convenience fee to proceed.",
			strategy: StrategyFocus,
		},
		{
			name:     "no signature",
			mutate:   func(f *models.ApplicationForm) { f.ESign = "  " },
			field:    "e_sign",
			message:  "E-Signature is required",
			strategy: StrategyFocus,
		},
		{
			name:     "terms not accepted",
			mutate:   func(f *models.ApplicationForm) { f.TAndC = models.Bool{} },
			field:    "t_and_c",
			message:  "You must agree to the terms and conditions",
			strategy: StrategyFocus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validRAP()
			tt.mutate(&f)

			res := Validate(f)
			require.False(t, res.Valid)
			first, ok := res.First()
			require.True(t, ok)
			assert.Equal(t, tt.field, first.Field)
			assert.Equal(t, tt.message, first.Message)

			ferr := newFormError(res)
			assert.Equal(t, FocusTarget{Field: tt.field, Strategy: tt.strategy, OpenPopover: tt.popover}, ferr.Focus)
			assert.True(t, apperrors.HasCode(ferr, apperrors.ErrCodeApplicationValidationFailed))
			assert.Equal(t, tt.message, apperrors.UserMessage(ferr))
		})
	}
}

func TestValidate_DeclarationOrder(t *testing.T) {
	f := validRAP()
	f.TAndC = models.NewBool(false)
	f.Fullname = ""
	f.ConfirmEmail = "other@example.com"

	res := Validate(f)
	require.Len(t, res.Errors, 3)
	assert.Equal(t, "fullname", res.Errors[0].Field)
	assert.Equal(t, "confirmEmail", res.Errors[1].Field)
	assert.Equal(t, "t_and_c", res.Errors[2].Field)
}

func TestValidate_RAS(t *testing.T) {
	f := validRAS()
	f.Answers[6] = models.NewBool(false)
	assert.True(t, Validate(f).Valid, "RAS answers only need to be present")

	f.HasPredecessorCoverage = models.NewBool(true)
	res := Validate(f)
	require.False(t, res.Valid)
	require.Len(t, res.Errors, 3)
	assert.Equal(t, "predecessor_name", res.Errors[0].Field)
	assert.Equal(t, "predecessor_retroactive_date", res.Errors[1].Field)
	assert.Equal(t, FocusTarget{Field: "predecessor_retroactive_date", Strategy: StrategyScrollIntoView, OpenPopover: true},
		FocusFor(res.Errors[1].Field))

	f.PredecessorName = "Old Firm LLC"
	f.PredecessorRetroactiveDate = models.NewDate(2019, time.January, 15)
	f.PredecessorDissolutionDate = models.NewDate(2024, time.December, 31)
	assert.True(t, Validate(f).Valid)

	f.NoOfTransactions = "forty"
	res = Validate(f)
	first, _ := res.First()
	assert.Equal(t, "no_of_transactions", first.Field)
	assert.Equal(t, "Please enter a valid value.", first.Message)
}

func TestValidate_MailingAddress(t *testing.T) {
	f := validRAP()
	f.IsMailingSame = models.NewBool(false)
	f.MailingAddress = models.Address{AddressLine1: "PO Box 9", City: "Boston", State: "MA", Zipcode: "021"}

	res := Validate(f)
	assert.True(t, res.HasErrors("mailing_address.zipcode"))

	f.MailingAddress = models.Address{}
	assert.True(t, Validate(f).Valid, "a blank mailing address is optional")
}

// ==========================
// Submit
// ==========================

func TestSubmit_Success(t *testing.T) {
	api := &fakeSaver{}
	h, st := setup(t, api)
	ctx := context.Background()

	form := validRAP()
	form.MailingAddress = models.Address{AddressLine1: "stale"}

	out, err := h.Execute(ctx, &Input{SessionID: st.ID(), Form: form})
	require.NoError(t, err)
	assert.Equal(t, "Q1", out.QuoteID)
	assert.Equal(t, "tok_123", out.Submission.PaymentClientToken)
	assert.Equal(t, session.StageSubmitting, st.Stage())

	assert.Equal(t, 1, api.calls)
	assert.Equal(t, form.Address, api.got.MailingAddress, "mailing address copied from address")
	assert.Equal(t, models.Income("120000"), api.got.GrossAnnualIncome)

	body, err := json.Marshal(api.got)
	require.NoError(t, err)
	var sent map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &sent))
	assert.JSONEq(t, `120000`, string(sent["gross_annual_income"]), "income is posted as a number")

	draft, ok := cache.NewTyped[models.ApplicationForm](st.Cache(), models.DraftKey("RAP", "Q1"), nil).Load(ctx)
	require.True(t, ok)
	assert.Equal(t, form.Address, draft.MailingAddress)
}

func TestSubmit_InvalidSkipsBackend(t *testing.T) {
	api := &fakeSaver{}
	h, st := setup(t, api)
	ctx := context.Background()

	form := validRAP()
	form.Answers[0] = models.NewBool(false)

	_, err := h.Execute(ctx, &Input{SessionID: st.ID(), Form: form})
	require.Error(t, err)

	var ferr *FormError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, "answers", ferr.Focus.Field)
	assert.Equal(t, 0, api.calls)
	assert.Equal(t, session.StageDrafting, st.Stage())

	_, ok := cache.NewTyped[models.ApplicationForm](st.Cache(), models.DraftKey("RAP", "Q1"), nil).Load(ctx)
	assert.True(t, ok, "the draft is kept for retry")
}

func TestSubmit_SchemaRejectsShape(t *testing.T) {
	api := &fakeSaver{}
	h, st := setup(t, api)

	form := validRAP()
	form.PolicyData.PolicyTerm = 0

	_, err := h.Service().Submit(context.Background(), st, form)
	var ferr *FormError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, "policy_data.policy_term", ferr.Focus.Field)
	assert.Equal(t, 0, api.calls)
}

func TestSubmit_BackendFailureKeepsDraft(t *testing.T) {
	api := &fakeSaver{err: apperrors.NewBackendAPIError("Quote expired")}
	h, st := setup(t, api)
	ctx := context.Background()

	_, err := h.Service().Submit(ctx, st, validRAS())
	require.Error(t, err)
	assert.Equal(t, "API Error: Quote expired", apperrors.UserMessage(err))
	assert.Equal(t, session.StageDrafting, st.Stage())
	assert.Equal(t, 1, api.calls)

	draft, ok := cache.NewTyped[models.ApplicationForm](st.Cache(), models.DraftKey("RAS", "Q1"), nil).Load(ctx)
	require.True(t, ok)
	assert.Equal(t, "Acme Realty", draft.FirmNames.First())
	assert.True(t, draft.FirmNames.Scalar)
}

func TestHandler_Execute_BadSession(t *testing.T) {
	h, _ := setup(t, &fakeSaver{})
	_, err := h.Execute(context.Background(), &Input{SessionID: "nope", Form: validRAP()})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSessionNotFound))
}
