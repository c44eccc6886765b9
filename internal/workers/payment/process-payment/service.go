// internal/workers/payment/process-payment/service.go
package processpayment

import (
	"context"
	"strings"

	apperrors "quote-workflow/internal/common/errors"
	"quote-workflow/internal/common/logger"
	"quote-workflow/internal/common/session"
	"quote-workflow/internal/common/validation"
	"quote-workflow/internal/models"
)

const bankAccountType = "us_bank_account"

type PayAPI interface {
	Pay(ctx context.Context, p models.PaymentRequest) (models.PaymentResult, error)
}

type Service struct {
	api    PayAPI
	logger logger.Logger
}

func NewService(api PayAPI, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{api: api, logger: log}
}

// Pay charges the session's payment handoff. The quote id and token must
// match the handoff left by the last submission; the amount is never
// taken from the caller.
func (s *Service) Pay(ctx context.Context, st *session.State, in Input) (*models.PaymentResult, error) {
	handoff, err := st.MatchingHandoff(in.QuoteID, in.Token)
	if err != nil {
		return nil, err
	}

	req, err := BuildRequest(handoff, in.PaymentType, in.Method, in.ACH)
	if err != nil {
		return nil, err
	}

	s.advance(st, session.StagePaying)
	result, err := s.api.Pay(ctx, req)
	if err != nil {
		s.advance(st, session.StageReviewing)
		s.logger.Warn("Payment failed", map[string]interface{}{
			"sessionId":   st.ID(),
			"quoteId":     handoff.QuoteID,
			"paymentType": in.PaymentType,
			"error":       err.Error(),
		})
		return nil, err
	}

	st.CompletePayment(result)
	s.advance(st, session.StageSuccess)
	s.logger.Info("Payment completed", map[string]interface{}{
		"sessionId": st.ID(),
		"quoteId":   handoff.QuoteID,
		"policyNo":  result.PolicyNo,
		"amount":    handoff.Amount,
	})
	return &result, nil
}

// BuildRequest builds the policy/pay body. Cards carry their details and
// BIN data; ACH payments are sent as a US bank account nonce.
func BuildRequest(h models.PaymentHandoff, paymentType string, m Method, ach *models.ACHDetails) (models.PaymentRequest, error) {
	if strings.TrimSpace(m.Nonce) == "" {
		return models.PaymentRequest{}, apperrors.NewApplicationValidationError("nonce", "Payment method is required")
	}

	policyType := h.PolicyPaymentType
	if policyType == "" {
		policyType = models.PolicyPaymentPurchase
	}
	req := models.PaymentRequest{
		QuoteID:           h.QuoteID,
		PaymentType:       paymentType,
		PolicyPaymentType: policyType,
		Nonce:             m.Nonce,
		Type:              m.Type,
		Description:       m.Description,
	}

	switch paymentType {
	case models.PaymentTypeCard:
		req.Details = m.Details
		req.BinData = m.BinData
	case models.PaymentTypeACHDirect:
		req.Type = bankAccountType
		if ach != nil {
			if res := ValidateACH(*ach); !res.Valid {
				first, _ := res.First()
				return models.PaymentRequest{}, apperrors.NewApplicationValidationError(first.Field, first.Message).
					WithMetadata("errors", res.Errors)
			}
			req.Description = ach.Description()
		}
	default:
		return models.PaymentRequest{}, apperrors.NewInvalidPaymentMethodError(paymentType)
	}
	return req, nil
}

// ValidateACH checks the bank account form.
func ValidateACH(a models.ACHDetails) *validation.ValidationResult {
	res := &validation.ValidationResult{Valid: true}

	if !validation.IsDigits(strings.TrimSpace(a.AccountNumber), 10) {
		res.Add("accountNumber", "Account number must be exactly 10 digits", "INVALID_FORMAT")
	}
	if !validation.IsDigits(strings.TrimSpace(a.RoutingNumber), 9) {
		res.Add("routingNumber", "Routing number must be exactly 9 digits", "INVALID_FORMAT")
	}
	if a.AccountType != models.ACHChecking && a.AccountType != models.ACHSavings {
		res.Add("accountType", "Please select an account type", "MISSING_REQUIRED")
	}

	switch a.OwnershipType {
	case models.ACHPersonal:
		if strings.TrimSpace(a.FirstName) == "" {
			res.Add("firstName", "First name is required", "MISSING_REQUIRED")
		}
		if strings.TrimSpace(a.LastName) == "" {
			res.Add("lastName", "Last name is required", "MISSING_REQUIRED")
		}
	case models.ACHBusiness:
		if strings.TrimSpace(a.BusinessName) == "" {
			res.Add("businessName", "Business name is required", "MISSING_REQUIRED")
		}
	default:
		res.Add("ownershipType", "Please select an ownership type", "MISSING_REQUIRED")
	}

	b := a.BillingAddress
	if strings.TrimSpace(b.Address1) == "" {
		res.Add("billingAddress.address1", "Street address is required", "MISSING_REQUIRED")
	}
	if strings.TrimSpace(b.City) == "" {
		res.Add("billingAddress.city", "City is required", "MISSING_REQUIRED")
	}
	if len(strings.TrimSpace(b.State)) < 2 {
		res.Add("billingAddress.state", "State is required", "MISSING_REQUIRED")
	}
	if len(strings.TrimSpace(b.Zipcode)) < 5 {
		res.Add("billingAddress.zipcode", "ZIP code is required", "MISSING_REQUIRED")
	}
	return res
}

func (s *Service) advance(st *session.State, to session.Stage) {
	if err := st.Advance(to); err != nil {
		s.logger.Debug("Stage not changed", map[string]interface{}{
			"sessionId": st.ID(),
			"from":      string(st.Stage()),
			"to":        string(to),
		})
	}
}
