package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	apperrors "quote-workflow/internal/common/errors"
	"quote-workflow/internal/models"
)

// SupportedStates fetches the program -> state code -> state name mapping
// and flattens it. The endpoint reports success with a numeric 200 status.
func (c *Client) SupportedStates(ctx context.Context) ([]models.SupportedState, error) {
	env, err := c.do(ctx, request{
		endpoint: "supported-states",
		method:   http.MethodGet,
		path:     PathSupportedStates,
		ok:       func(e envelope) bool { return e.Status.String() == "200" },
	})
	if err != nil {
		return nil, err
	}

	var data map[string]map[string]string
	if err := decodeData("supported-states", env.Data, &data); err != nil {
		return nil, err
	}
	return models.FlattenSupportedStates(data), nil
}

// Qualifier posts the qualifier form. The quote comes back as a JSON
// document encoded in the data string.
func (c *Client) Qualifier(ctx context.Context, q models.QuoteRequest) (models.QuoteResponse, error) {
	req, err := c.jsonRequest("qualifier", http.MethodPost, PathQualifier, q, statusNotError)
	if err != nil {
		return models.QuoteResponse{}, err
	}
	env, err := c.do(ctx, req)
	if err != nil {
		return models.QuoteResponse{}, err
	}

	resp, err := models.ParseQuoteResponse(env.Data)
	if err != nil {
		return models.QuoteResponse{}, apperrors.NewBackendRequestError(fmt.Errorf("decode qualifier data: %w", err))
	}
	return resp, nil
}

// SaveQuote submits a completed application.
func (c *Client) SaveQuote(ctx context.Context, form models.ApplicationForm) (models.QuoteSaveResponse, error) {
	return c.submit(ctx, "quote-save", PathSaveQuote, form)
}

// SubmitAutoRenewal posts the auto-renewal confirmation.
func (c *Client) SubmitAutoRenewal(ctx context.Context, payload interface{}) (models.QuoteSaveResponse, error) {
	return c.submit(ctx, "auto-renew", PathAutoRenew, payload)
}

// SubmitSecondYearPayment posts the second-year payment confirmation.
func (c *Client) SubmitSecondYearPayment(ctx context.Context, payload interface{}) (models.QuoteSaveResponse, error) {
	return c.submit(ctx, "second-year", PathSecondYear, payload)
}

func (c *Client) submit(ctx context.Context, endpoint, path string, payload interface{}) (models.QuoteSaveResponse, error) {
	req, err := c.jsonRequest(endpoint, http.MethodPost, path, payload, statusSuccess)
	if err != nil {
		return models.QuoteSaveResponse{}, err
	}
	env, err := c.do(ctx, req)
	if err != nil {
		return models.QuoteSaveResponse{}, err
	}

	var out models.QuoteSaveResponse
	if err := decodeData(endpoint, env.Data, &out); err != nil {
		return models.QuoteSaveResponse{}, err
	}
	return out, nil
}

// Pay settles a payment nonce against a quote.
func (c *Client) Pay(ctx context.Context, p models.PaymentRequest) (models.PaymentResult, error) {
	req, err := c.jsonRequest("pay", http.MethodPost, PathPay, p, statusSuccess)
	if err != nil {
		return models.PaymentResult{}, err
	}
	env, err := c.do(ctx, req)
	if err != nil {
		return models.PaymentResult{}, err
	}

	var out models.PaymentResult
	if err := decodeData("pay", env.Data, &out); err != nil {
		return models.PaymentResult{}, err
	}
	return out, nil
}

// SendVerificationEmail asks the backend to mail a verification code.
func (c *Client) SendVerificationEmail(ctx context.Context, email string) error {
	req, err := c.jsonRequest("send-email", http.MethodPost, PathSendEmail,
		map[string]string{"email": email}, statusSuccess)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, req)
	return err
}

// Document is a file attached to a paid policy.
type Document struct {
	Filename string
	Content  io.Reader
	QuoteID  string
	PolicyNo string
	LastID   string
}

// UploadDocument sends an insurance document as multipart form data and
// returns the stored document URL. Success is reported as status "200".
func (c *Client) UploadDocument(ctx context.Context, doc Document) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("insurance_document", doc.Filename)
	if err != nil {
		return "", apperrors.NewBackendRequestError(err)
	}
	if _, err := io.Copy(part, doc.Content); err != nil {
		return "", apperrors.NewBackendRequestError(err)
	}
	for _, f := range []struct{ name, value string }{
		{"quote_id", doc.QuoteID},
		{"policy_num", doc.PolicyNo},
		{"last_id", doc.LastID},
	} {
		if err := w.WriteField(f.name, f.value); err != nil {
			return "", apperrors.NewBackendRequestError(err)
		}
	}
	if err := w.Close(); err != nil {
		return "", apperrors.NewBackendRequestError(err)
	}

	env, err := c.do(ctx, request{
		endpoint:    "upload-document",
		method:      http.MethodPost,
		path:        PathUploadDocument,
		body:        &buf,
		contentType: w.FormDataContentType(),
		ok:          func(e envelope) bool { return e.Status.String() == "200" },
	})
	if err != nil {
		return "", err
	}

	var data struct {
		URL string `json:"url"`
	}
	if err := decodeData("upload-document", env.Data, &data); err != nil {
		return "", err
	}
	return data.URL, nil
}

// PDFDownloadURL is where a browser downloads the policy PDF of quoteID.
func (c *Client) PDFDownloadURL(quoteID string) string {
	return c.pdfURL + "?quote_id=" + url.QueryEscape(quoteID)
}
