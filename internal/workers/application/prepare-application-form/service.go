// internal/workers/application/prepare-application-form/service.go
package prepareapplicationform

import (
	"context"
	"reflect"
	"strings"

	"quote-workflow/internal/common/cache"
	apperrors "quote-workflow/internal/common/errors"
	"quote-workflow/internal/common/logger"
	"quote-workflow/internal/common/session"
	"quote-workflow/internal/models"
)

type Service struct {
	logger logger.Logger
}

func NewService(log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{logger: log}
}

// Prepare builds the application for quoteID from the session's saved
// draft and cached quote. Without a draft the cached quote must be the
// requested one; otherwise it is dropped and QUOTE_NOT_FOUND returned.
func (s *Service) Prepare(ctx context.Context, st *session.State, program, quoteID string) (*PreparedForm, error) {
	program = strings.ToUpper(strings.TrimSpace(program))
	if !models.IsKnownProgram(program) {
		return nil, apperrors.NewApplicationValidationError("program", "Unknown program "+program)
	}

	drafts := cache.NewTyped[models.ApplicationForm](st.Cache(), models.DraftKey(program, quoteID), s.logger)
	quotes := cache.NewTyped[models.CachedQuote](st.Cache(), cache.KeyCachedQuote, s.logger)

	draft, hasDraft := drafts.Load(ctx)
	entry, hasQuote := quotes.LoadEntry(ctx)

	var upstream *models.QuoteDetail
	var renewal *models.RenewalRecord
	if hasQuote && entry.Value.QuoteResponse.QuoteID() == quoteID {
		switch q := entry.Value.QuoteResponse.Variant.(type) {
		case models.NewBusinessQuote:
			upstream = &q.QuoteDetail
		case models.RenewalQuote:
			upstream = &q.QuoteDetail
			renewal = &q.Renewal
		}
	}

	if !hasDraft && upstream == nil {
		if hasQuote {
			if err := quotes.Remove(ctx); err != nil {
				s.logger.Warn("Failed to drop cached quote", map[string]interface{}{
					"sessionId": st.ID(),
					"error":     err.Error(),
				})
			}
		}
		s.logger.Info("No form data for quote", map[string]interface{}{
			"sessionId":   st.ID(),
			"quoteId":     quoteID,
			"cachedQuote": entry.Value.QuoteResponse.QuoteID(),
		})
		return nil, apperrors.NewQuoteNotFoundError(quoteID)
	}

	var draftPtr *models.ApplicationForm
	if hasDraft {
		draftPtr = &draft
	}
	prepared := &PreparedForm{
		Form:      Merge(draftPtr, upstream, renewal, program, quoteID),
		FromDraft: hasDraft,
	}
	if upstream != nil {
		prepared.Rates = upstream.Rates
		prepared.TaxFees = upstream.TaxFees
	}

	if err := st.Advance(session.StageDrafting); err != nil {
		s.logger.Warn("Session not moved to drafting", map[string]interface{}{
			"sessionId": st.ID(),
			"error":     err.Error(),
		})
	}
	return prepared, nil
}

// SaveDraft stores form under its draft key and makes its quote the
// session's active one.
func (s *Service) SaveDraft(ctx context.Context, st *session.State, form models.ApplicationForm) error {
	program := strings.ToUpper(form.ProgramCode)
	if program == "" {
		program = strings.ToUpper(form.Program)
	}
	if err := cache.NewTyped[models.ApplicationForm](st.Cache(), models.DraftKey(program, form.QuoteID), s.logger).Save(ctx, form); err != nil {
		return err
	}
	return cache.NewTyped[string](st.Cache(), cache.KeyQuoteID, s.logger).Save(ctx, form.QuoteID)
}

// ResolveField returns the first candidate that is not its zero value.
// Types with an IsZero method decide for themselves.
func ResolveField[T any](candidates ...T) T {
	for _, c := range candidates {
		if !isZero(c) {
			return c
		}
	}
	var zero T
	return zero
}

func isZero(v interface{}) bool {
	if v == nil {
		return true
	}
	if z, ok := v.(interface{ IsZero() bool }); ok {
		return z.IsZero()
	}
	return reflect.ValueOf(v).IsZero()
}

// Merge reconciles a saved draft, the quote's prefilled application and
// the defaults. Draft values win for everything the applicant edits; the
// quote's tax schedule only fills policy values the draft lacks.
func Merge(draft *models.ApplicationForm, upstream *models.QuoteDetail, renewal *models.RenewalRecord, program, quoteID string) models.ApplicationForm {
	var d, u models.ApplicationForm
	var fees models.TaxFees
	if draft != nil {
		d = *draft
	}
	if upstream != nil {
		u = upstream.ApplicationForm
		fees = upstream.TaxFees
	}
	isRAS := program == models.ProgramRAS

	email := ResolveField(d.Email, u.Email)
	f := models.ApplicationForm{
		QuoteID:            ResolveField(d.QuoteID, u.QuoteID, quoteID),
		QuoteType:          ResolveField(d.QuoteType, u.QuoteType, models.PolicyPaymentPurchase),
		Program:            ResolveField(d.Program, u.Program),
		ProgramCode:        ResolveField(d.ProgramCode, u.ProgramCode, program),
		State:              ResolveField(d.State, u.State),
		CurrentlyInsurance: ResolveField(d.CurrentlyInsurance, u.CurrentlyInsurance, models.NewBool(false)),
		GAInsurance:        ResolveField(d.GAInsurance, u.GAInsurance, models.NewBool(false)),

		Fullname:  ResolveField(d.Fullname, u.Fullname),
		FirmNames: ResolveField(d.FirmNames, u.FirmNames, renewalFirmNames(renewal)),

		Address:        ResolveField(d.Address, u.Address),
		IsMailingSame:  ResolveField(d.IsMailingSame, u.IsMailingSame, models.NewBool(false)),
		MailingAddress: ResolveField(d.MailingAddress, u.MailingAddress),
		PhoneNo:        ResolveField(d.PhoneNo, u.PhoneNo),
		FaxNo:          ResolveField(d.FaxNo, u.FaxNo),
		WebsiteURL:     ResolveField(d.WebsiteURL, u.WebsiteURL),
		Email:          email,
		ConfirmEmail:   ResolveField(d.ConfirmEmail, u.ConfirmEmail, email),
		GoogleAddress:  ResolveField(d.GoogleAddress, u.GoogleAddress),

		EffectiveDate:     ResolveField(d.EffectiveDate, u.EffectiveDate),
		FirmDate:          ResolveField(d.FirmDate, u.FirmDate),
		GrossAnnualIncome: ResolveField(d.GrossAnnualIncome, u.GrossAnnualIncome),
		PremiumTable:      d.PremiumTable,
		Questions:         ResolveField(u.Questions, d.Questions),
		Answers:           ResolveField(d.Answers, u.Answers),

		// The fee is accepted anew on every visit.
		ConvenienceFees: models.NewBool(false),
		ESign:           ResolveField(d.ESign, u.ESign),
		TAndC:           ResolveField(d.TAndC, u.TAndC),
	}

	if isRAS {
		f.ApplicantIs = ResolveField(d.ApplicantIs, u.ApplicantIs)
		f.NoOfProfessionalMoreThan20k = d.NoOfProfessionalMoreThan20k
		f.NoOfProfessionalLessThan20k = d.NoOfProfessionalLessThan20k
		f.NoOfTransactions = d.NoOfTransactions
		f.HasPredecessorCoverage = ResolveField(d.HasPredecessorCoverage, u.HasPredecessorCoverage, models.NewBool(false))
		f.PredecessorName = ResolveField(d.PredecessorName, u.PredecessorName)
		f.PredecessorRetroactiveDate = ResolveField(d.PredecessorRetroactiveDate, u.PredecessorRetroactiveDate)
		f.PredecessorDissolutionDate = ResolveField(d.PredecessorDissolutionDate, u.PredecessorDissolutionDate)
		f.FirmNames = models.SingleFirmName(f.FirmNames.First())
	} else {
		f.NoOfProfessional = ResolveField(d.NoOfProfessional, u.NoOfProfessional)
		if f.FirmNames.IsZero() || f.FirmNames.Scalar {
			f.FirmNames = models.FirmNameList(f.FirmNames.First())
		}
	}

	f.PolicyData = mergePolicyData(d.PolicyData, u.PolicyData, fees, isRAS)
	f.AdditionalInstructions = ResolveField(d.AdditionalInstructions, f.PolicyData.AdditionalInstructions, fees.AdditionalInstructions)
	f.FraudWarning = ResolveField(d.FraudWarning, f.PolicyData.FraudWarning, fees.FraudWarning)
	return f
}

func mergePolicyData(d, u models.PolicyData, fees models.TaxFees, isRAS bool) models.PolicyData {
	pd := models.PolicyData{
		Deductible:            ResolveField(d.Deductible, u.Deductible),
		LicenseNo:             ResolveField(d.LicenseNo, u.LicenseNo, fees.LicenseNo),
		PriceLimit:            ResolveField(d.PriceLimit, u.PriceLimit),
		YearPolicy:            ResolveField(d.YearPolicy, u.YearPolicy),
		AnnualPremiumSelected: ResolveField(d.AnnualPremiumSelected, u.AnnualPremiumSelected),
		AnnualPremium:         ResolveField(d.AnnualPremium, u.AnnualPremium),
		LimitClaimID:          ResolveField(d.LimitClaimID, u.LimitClaimID),
		TaxPercent:            ResolveField(d.TaxPercent, u.TaxPercent, fees.Tax),
		StateTax:              ResolveField(d.StateTax, u.StateTax),
		TotalAmount:           ResolveField(d.TotalAmount, u.TotalAmount),
		BillTerm:              ResolveField(d.BillTerm, u.BillTerm, 1),
		PolicyTerm:            ResolveField(d.PolicyTerm, u.PolicyTerm, 1),

		AdditionalInstructions: ResolveField(d.AdditionalInstructions, u.AdditionalInstructions, fees.AdditionalInstructions),
		FraudWarning:           ResolveField(d.FraudWarning, u.FraudWarning, fees.FraudWarning),
	}
	if !isRAS {
		pd.ConvenienceFee = ResolveField(d.ConvenienceFee, u.ConvenienceFee, models.MustParseMoney(fees.ConvenienceFees.String()))
	}
	return pd
}

// renewalFirmNames lists the firm names on last year's policy.
func renewalFirmNames(r *models.RenewalRecord) models.FirmNames {
	if r == nil {
		return models.FirmNames{}
	}
	var names []string
	for _, n := range []models.Text{r.FirmName, r.Firm1, r.Firm2, r.Firm3} {
		if s := strings.TrimSpace(n.String()); s != "" && len(names) < models.MaxFirmNames {
			names = append(names, s)
		}
	}
	if len(names) == 0 {
		return models.FirmNames{}
	}
	return models.FirmNameList(names...)
}
