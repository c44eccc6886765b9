// internal/workers/payment/process-payment/models.go
package processpayment

import (
	"encoding/json"

	"quote-workflow/internal/models"
)

// Method is the tokenized payment method produced by the payment form.
type Method struct {
	Nonce       string          `json:"nonce"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Details     json.RawMessage `json:"details,omitempty"`
	BinData     json.RawMessage `json:"binData,omitempty"`
}

type Input struct {
	SessionID   string             `json:"sessionId"`
	QuoteID     string             `json:"quoteId"`
	Token       string             `json:"token"`
	PaymentType string             `json:"paymentType"`
	Method      Method             `json:"method"`
	ACH         *models.ACHDetails `json:"ach,omitempty"`
}

type Output struct {
	SessionID   string               `json:"sessionId"`
	Payment     models.PaymentResult `json:"payment"`
	SuccessPath string               `json:"successPath"`
}

const successPath = "/payment-success"
