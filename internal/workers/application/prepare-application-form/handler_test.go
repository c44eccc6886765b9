package prepareapplicationform

import (
	"context"
	"testing"
	"time"

	"quote-workflow/internal/common/cache"
	apperrors "quote-workflow/internal/common/errors"
	"quote-workflow/internal/common/logger"
	"quote-workflow/internal/common/session"
	"quote-workflow/internal/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

const rapQuote = `{
	"quote_type": "new_business",
	"quote_id": "Q1",
	"program": "Individual Real Estate Appraiser Application",
	"program_code": "RAP",
	"state": "MA",
	"fullname": "Jane Doe",
	"email": "jane@example.com",
	"address": {"address_line1": "1 Main St", "city": "Boston", "state": "MA", "zipcode": "02108"},
	"currently_insurance": "0",
	"questions": {"question1": "Do you hold a license?"},
	"answers": {"question1": "true", "question2": "yes", "question3": 1},
	"effective_date": "06/10/2025",
	"policy_data": {"annual_premium": "0"},
	"rates": {"table1_rate": [{"1000": {"50000": "750.00", "100000": ["900.00", "1000,100000"]}}]},
	"tax_fees": {"tax": "5", "convenience_fees": "25", "license_no": "LIC-1", "fraud_warning": "Fraud is a crime."}
}`

const rasRenewal = `{
	"quote_type": "renewal",
	"quote_id": "Q2",
	"program_code": "RAS",
	"state": "RI",
	"registration_status": "registered",
	"login_status": "logged_in",
	"has_predecessor_coverage": "1",
	"predecessor_name": "Old Firm LLC",
	"predecessor_retroactive_date": "2019-01-15",
	"predecessor_dissolution_date": "not a date",
	"rates": {"table_rate": {"0": {"100000": "1000"}, "2500": {"100000": "900"}}},
	"tax_fees": {"tax": 7.25, "convenience_fees": "25"},
	"renewal": {"firmname": "Acme Realty", "firm1": "Acme North", "policynum1": "RAS-1001"}
}`

func setup(t *testing.T) (*Handler, *session.State) {
	registry := session.NewRegistry(cache.NewMemoryStore())
	return NewHandler(nil, registry, logger.NewTestLogger(t)), registry.Create()
}

func cacheQuote(t *testing.T, st *session.State, body string) {
	resp, err := models.ParseQuoteResponse([]byte(body))
	require.NoError(t, err)
	typed := cache.NewTyped[models.CachedQuote](st.Cache(), cache.KeyCachedQuote, nil)
	require.NoError(t, typed.SaveEntry(context.Background(), models.CachedQuote{QuoteResponse: resp}, 36*time.Hour))
}

func saveDraft(t *testing.T, st *session.State, program, quoteID string, form models.ApplicationForm) {
	typed := cache.NewTyped[models.ApplicationForm](st.Cache(), models.DraftKey(program, quoteID), nil)
	require.NoError(t, typed.Save(context.Background(), form))
}

// ==========================
// ResolveField
// ==========================

func TestResolveField(t *testing.T) {
	assert.Equal(t, "draft", ResolveField("draft", "quote", "default"))
	assert.Equal(t, "quote", ResolveField("", "quote", "default"))
	assert.Equal(t, "default", ResolveField("", "", "default"))
	assert.Equal(t, "", ResolveField[string]())

	// An answered false is a value; an unanswered question is not.
	assert.Equal(t, models.NewBool(false), ResolveField(models.NewBool(false), models.NewBool(true)))
	assert.Equal(t, models.NewBool(true), ResolveField(models.Bool{}, models.NewBool(true)))

	assert.Equal(t, "25.00", ResolveField(models.Money{}, models.MustParseMoney("25")).String())
	assert.Equal(t, models.Int(1), ResolveField(models.Int(0), 1))

	d := models.NewDate(2025, time.June, 10)
	assert.Equal(t, d, ResolveField(models.Date{}, d))
	assert.Equal(t, models.FirmNameList(""), ResolveField(models.FirmNames{}, models.FirmNameList("")))
}

// ==========================
// Prepare
// ==========================

func TestPrepare_FromQuote(t *testing.T) {
	h, st := setup(t)
	cacheQuote(t, st, rapQuote)

	out, err := h.Service().Prepare(context.Background(), st, "rap", "Q1")
	require.NoError(t, err)
	assert.False(t, out.FromDraft)
	assert.Equal(t, session.StageDrafting, st.Stage())

	f := out.Form
	assert.Equal(t, "Q1", f.QuoteID)
	assert.Equal(t, "new_business", f.QuoteType)
	assert.Equal(t, "RAP", f.ProgramCode)
	assert.Equal(t, "jane@example.com", f.ConfirmEmail)
	assert.Equal(t, models.FirmNameList(""), f.FirmNames)
	assert.Equal(t, models.NewBool(false), f.CurrentlyInsurance)
	assert.Equal(t, models.NewBool(false), f.ConvenienceFees)
	assert.Equal(t, "06/10/2025", f.EffectiveDate.USDate())
	assert.Equal(t, models.Text("Fraud is a crime."), f.FraudWarning)
	assert.Equal(t, models.Text("Do you hold a license?"), f.Questions["question1"])

	wantAnswers := models.Answers{models.NewBool(true), models.NewBool(true), models.NewBool(true)}
	if diff := cmp.Diff(wantAnswers, f.Answers); diff != "" {
		t.Errorf("answers mismatch (-want +got):\n%s", diff)
	}

	wantPolicy := models.PolicyData{
		LicenseNo:      "LIC-1",
		TaxPercent:     "5",
		ConvenienceFee: models.MustParseMoney("25"),
		BillTerm:       1,
		PolicyTerm:     1,
		FraudWarning:   "Fraud is a crime.",
	}
	if diff := cmp.Diff(wantPolicy, f.PolicyData); diff != "" {
		t.Errorf("policy data mismatch (-want +got):\n%s", diff)
	}

	name, table := out.Rates.Table(f.Answers)
	assert.Equal(t, "Table1", name)
	assert.Len(t, table.Cells(name, false), 2)
}

func TestPrepare_DraftWins(t *testing.T) {
	h, st := setup(t)
	cacheQuote(t, st, rapQuote)
	saveDraft(t, st, "RAP", "Q1", models.ApplicationForm{
		QuoteID:         "Q1",
		ProgramCode:     "RAP",
		Fullname:        "Jane Q. Doe",
		FirmNames:       models.FirmNameList("Doe Appraisals", "Doe North"),
		Email:           "jane.doe@example.com",
		ConvenienceFees: models.NewBool(true),
		PremiumTable:    "Table1-50000-1000-750.00-1000,50000",
		Answers:         models.Answers{models.NewBool(false)},
		PolicyData: models.PolicyData{
			AnnualPremium: models.MustParseMoney("750"),
			PriceLimit:    "50000",
		},
	})

	out, err := h.Service().Prepare(context.Background(), st, "RAP", "Q1")
	require.NoError(t, err)
	assert.True(t, out.FromDraft)

	f := out.Form
	assert.Equal(t, "Jane Q. Doe", f.Fullname)
	assert.Equal(t, []string{"Doe Appraisals", "Doe North"}, f.FirmNames.Names)
	assert.Equal(t, "jane.doe@example.com", f.ConfirmEmail)
	assert.Equal(t, models.NewBool(false), f.ConvenienceFees, "the fee must be accepted again")
	assert.Equal(t, "Table1-50000-1000-750.00-1000,50000", f.PremiumTable)
	assert.Equal(t, models.NewBool(false), f.Answers[0])
	assert.False(t, f.Answers[1].Valid, "draft answers replace the quote's as a whole")
	assert.Equal(t, "750.00", f.PolicyData.AnnualPremium.String())
	assert.Equal(t, models.Text("5"), f.PolicyData.TaxPercent, "backfilled from the tax schedule")
	assert.Equal(t, models.Text("LIC-1"), f.PolicyData.LicenseNo)
	assert.Equal(t, "Boston", f.Address.City, "empty draft address falls back to the quote")
	assert.False(t, out.Rates.Empty())
}

func TestPrepare_DraftForOtherQuoteKeepsCache(t *testing.T) {
	h, st := setup(t)
	ctx := context.Background()
	cacheQuote(t, st, rapQuote)
	saveDraft(t, st, "RAP", "Q7", models.ApplicationForm{QuoteID: "Q7", ProgramCode: "RAP", Fullname: "Old Draft"})

	out, err := h.Service().Prepare(ctx, st, "RAP", "Q7")
	require.NoError(t, err)
	assert.Equal(t, "Old Draft", out.Form.Fullname)
	assert.True(t, out.Rates.Empty())

	_, ok, _ := st.Cache().Get(ctx, cache.KeyCachedQuote)
	assert.True(t, ok)
}

func TestPrepare_QuoteNotFound(t *testing.T) {
	tests := []struct {
		name  string
		quote string
	}{
		{name: "cached quote is another quote", quote: rapQuote},
		{name: "nothing cached"},
		{name: "cached quote is not an application", quote: `{"quote_type":"second_year_payment","quote_id":"Q9"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, st := setup(t)
			ctx := context.Background()
			if tt.quote != "" {
				cacheQuote(t, st, tt.quote)
			}

			_, err := h.Service().Prepare(ctx, st, "RAP", "Q9")
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeQuoteNotFound))
			assert.Equal(t, "Unable to load form data. Please try again later.", apperrors.UserMessage(err))

			_, ok, _ := st.Cache().Get(ctx, cache.KeyCachedQuote)
			assert.False(t, ok)
		})
	}
}

func TestPrepare_RASRenewal(t *testing.T) {
	h, st := setup(t)
	cacheQuote(t, st, rasRenewal)

	out, err := h.Service().Prepare(context.Background(), st, "RAS", "Q2")
	require.NoError(t, err)

	f := out.Form
	assert.True(t, f.FirmNames.Scalar)
	assert.Equal(t, "Acme Realty", f.FirmNames.First())
	assert.True(t, f.HasPredecessorCoverage.True())
	assert.Equal(t, "Old Firm LLC", f.PredecessorName)
	assert.Equal(t, "01/15/2019", f.PredecessorRetroactiveDate.USDate())
	assert.True(t, f.PredecessorDissolutionDate.IsZero(), "invalid dates are absent")
	assert.True(t, f.PolicyData.ConvenienceFee.IsZero())
	assert.Equal(t, models.Text("7.25"), f.PolicyData.TaxPercent)
	assert.True(t, out.Rates.TableRate.IsMultiDeductible())
}

func TestMerge_RenewalFirmListForRAP(t *testing.T) {
	f := Merge(nil, &models.QuoteDetail{}, &models.RenewalRecord{
		FirmName: "A", Firm1: "B", Firm2: " ", Firm3: "C",
	}, models.ProgramRAP, "Q1")
	assert.Equal(t, []string{"A", "B", "C"}, f.FirmNames.Names)
	assert.False(t, f.FirmNames.Scalar)
}

// ==========================
// Drafts
// ==========================

func TestSaveDraft_RoundTrip(t *testing.T) {
	h, st := setup(t)
	ctx := context.Background()

	draft := models.ApplicationForm{
		QuoteID:            "Q1",
		QuoteType:          "new_business",
		Program:            "Individual Real Estate Appraiser Application",
		ProgramCode:        "RAP",
		State:              "MA",
		CurrentlyInsurance: models.NewBool(true),
		GAInsurance:        models.NewBool(false),
		Fullname:           "Jane Doe",
		FirmNames:          models.FirmNameList("Doe Appraisals"),
		Address:            models.Address{AddressLine1: "1 Main St", City: "Boston", State: "MA", Zipcode: "02108"},
		IsMailingSame:      models.NewBool(true),
		PhoneNo:            "6175550100",
		Email:              "jane@example.com",
		ConfirmEmail:       "jane@example.com",
		NoOfProfessional:   "2",
		EffectiveDate:      models.NewDate(2025, time.June, 10),
		GrossAnnualIncome:  "$120,000",
		PremiumTable:       "Table1-50000-1000-750.00-1000,50000",
		Answers:            models.Answers{models.NewBool(true), models.NewBool(true)},
		PolicyData: models.PolicyData{
			AnnualPremium:  models.MustParseMoney("750"),
			TaxPercent:     "5",
			StateTax:       models.MustParseMoney("37.5"),
			ConvenienceFee: models.MustParseMoney("25"),
			TotalAmount:    models.MustParseMoney("812.5"),
			BillTerm:       1,
			PolicyTerm:     1,
			YearPolicy:     1,
		},
		ConvenienceFees: models.NewBool(true),
		ESign:           "Jane Doe",
		TAndC:           models.NewBool(true),
	}
	require.NoError(t, h.Service().SaveDraft(ctx, st, draft))

	id, ok := cache.NewTyped[string](st.Cache(), cache.KeyQuoteID, nil).Load(ctx)
	require.True(t, ok)
	assert.Equal(t, "Q1", id)

	out, err := h.Service().Prepare(ctx, st, "RAP", "Q1")
	require.NoError(t, err)

	want := draft
	want.ConvenienceFees = models.NewBool(false)
	if diff := cmp.Diff(want, out.Form); diff != "" {
		t.Errorf("prepared form mismatch (-want +got):\n%s", diff)
	}
}

func TestHandler_Execute_SaveThenLoad(t *testing.T) {
	h, st := setup(t)
	ctx := context.Background()

	draft := models.ApplicationForm{QuoteID: "Q5", ProgramCode: "RAS", Fullname: "Sam"}
	_, err := h.Execute(ctx, &Input{SessionID: st.ID(), Draft: &draft})
	require.NoError(t, err)

	out, err := h.Execute(ctx, &Input{SessionID: st.ID(), Program: "RAS", QuoteID: "Q5"})
	require.NoError(t, err)
	assert.Equal(t, "Sam", out.Prepared.Form.Fullname)
	assert.Equal(t, "purchase", out.Prepared.Form.QuoteType)
	assert.Equal(t, models.Int(1), out.Prepared.Form.PolicyData.BillTerm)
}
