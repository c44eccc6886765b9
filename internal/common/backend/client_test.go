package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quote-workflow/internal/common/config"
	apperrors "quote-workflow/internal/common/errors"
	"quote-workflow/internal/common/logger"
	"quote-workflow/internal/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func setupServer(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(config.BackendConfig{
		BaseURL:        srv.URL,
		PDFDownloadURL: "https://api.axylerate.com/api/pdf-download",
		Timeout:        2000,
	}, nil, logger.NewTestLogger(t))
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// ==========================
// Endpoints
// ==========================

func TestSupportedStates(t *testing.T) {
	c := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, PathSupportedStates, r.URL.Path)
		writeJSON(w, 200, `{"status":200,"message":"ok","data":{"RAS":{"RI":"Rhode Island"},"RAP":{"MA":"Massachusetts","CT":"Connecticut"}}}`)
	})

	states, err := c.SupportedStates(context.Background())
	require.NoError(t, err)
	want := []models.SupportedState{
		{Program: "RAP", StateCode: "CT", State: "Connecticut"},
		{Program: "RAP", StateCode: "MA", State: "Massachusetts"},
		{Program: "RAS", StateCode: "RI", State: "Rhode Island"},
	}
	if diff := cmp.Diff(want, states); diff != "" {
		t.Errorf("SupportedStates() mismatch (-want +got):\n%s", diff)
	}
}

func TestSupportedStates_APIError(t *testing.T) {
	c := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"status":500,"message":"maintenance","data":{}}`)
	})

	_, err := c.SupportedStates(context.Background())
	require.Error(t, err)
	assert.Equal(t, "API Error: maintenance", apperrors.UserMessage(err))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeBackendAPI))
}

func TestQualifier(t *testing.T) {
	c := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body models.QuoteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "RAP", body.ProgramCode)
		assert.Equal(t, "06/01/2025", body.EffectiveDate)

		data, _ := json.Marshal(`{"quote_type":"new_business","program_code":"RAP","quote_id":"Q1"}`)
		writeJSON(w, 200, `{"status":"success","message":"","data":`+string(data)+`}`)
	})

	resp, err := c.Qualifier(context.Background(), models.QuoteRequest{
		ProgramCode:   "RAP",
		State:         "MA",
		EffectiveDate: "06/01/2025",
	})
	require.NoError(t, err)
	assert.Equal(t, "Q1", resp.QuoteID())
	_, ok := resp.Variant.(models.NewBusinessQuote)
	assert.True(t, ok)
}

func TestQualifier_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		code    apperrors.ErrorCode
		message string
	}{
		{
			name:    "error status in envelope",
			status:  200,
			body:    `{"status":"error","message":"State not supported","data":""}`,
			code:    apperrors.ErrCodeBackendAPI,
			message: "API Error: State not supported",
		},
		{
			name:    "http error with server message",
			status:  422,
			body:    `{"status":"error","message":"Effective date is out of range"}`,
			code:    apperrors.ErrCodeBackendHTTP,
			message: "Effective date is out of range",
		},
		{
			name:    "http error without body",
			status:  500,
			body:    ``,
			code:    apperrors.ErrCodeBackendHTTP,
			message: "HTTP Error: 500 - Internal Server Error",
		},
		{
			name:    "undecodable success body",
			status:  200,
			body:    `<html>`,
			code:    apperrors.ErrCodeBackendRequest,
			message: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			_, err := c.Qualifier(context.Background(), models.QuoteRequest{ProgramCode: "RAS"})
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tt.code), err.Error())
			if tt.message != "" {
				assert.Equal(t, tt.message, apperrors.UserMessage(err))
			}
		})
	}
}

func TestNoResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := New(config.BackendConfig{BaseURL: srv.URL, Timeout: 500}, nil, nil)
	err := c.SendVerificationEmail(context.Background(), "jane@example.com")
	require.Error(t, err)
	assert.Equal(t, "Network Error: No response received from the server", apperrors.UserMessage(err))
}

func TestSaveQuote(t *testing.T) {
	c := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathSaveQuote, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		writeJSON(w, 200, `{"status":"success","message":"saved","data":{
			"quote_id":"Q1","program":"RAP","fullname":"Jane Doe",
			"firm_name":["Doe Appraisals"],
			"policy_data":{"total_amount":"812.50","annual_premium":750},
			"payment_client_token":"tok_123"}}`)
	})

	out, err := c.SaveQuote(context.Background(), models.ApplicationForm{QuoteID: "Q1", Program: "RAP"})
	require.NoError(t, err)
	assert.Equal(t, "Q1", out.QuoteID)
	assert.Equal(t, "tok_123", out.PaymentClientToken)
	assert.Equal(t, "812.50", out.PolicyData.TotalAmount.String())
	assert.Equal(t, "Doe Appraisals", out.FirmNames.First())
}

func TestSaveQuote_NotSuccess(t *testing.T) {
	c := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"status":"failed","message":"Quote expired"}`)
	})

	_, err := c.SaveQuote(context.Background(), models.ApplicationForm{})
	assert.Equal(t, "API Error: Quote expired", apperrors.UserMessage(err))
}

func TestPay(t *testing.T) {
	c := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "us_bank_account", body["type"])
		assert.Nil(t, body["details"])
		writeJSON(w, 200, `{"status":"success","message":"paid","data":{"email":"jane@example.com","last_id":17,"policy_no":"RAP-0001","quote_id":"Q1","upload_insurance_file":"1","mail_response":true}}`)
	})

	res, err := c.Pay(context.Background(), models.PaymentRequest{
		QuoteID:     "Q1",
		PaymentType: models.PaymentTypeACHDirect,
		Type:        "us_bank_account",
		Nonce:       "nonce",
	})
	require.NoError(t, err)
	assert.Equal(t, "RAP-0001", res.PolicyNo)
	assert.Equal(t, "17", res.LastID.String())
	assert.True(t, res.MailResponse.True())
}

func TestUploadDocument(t *testing.T) {
	c := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Q1", r.FormValue("quote_id"))
		assert.Equal(t, "RAP-0001", r.FormValue("policy_num"))
		assert.Equal(t, "17", r.FormValue("last_id"))

		f, hdr, err := r.FormFile("insurance_document")
		require.NoError(t, err)
		defer f.Close()
		content, _ := io.ReadAll(f)
		assert.Equal(t, "prior.pdf", hdr.Filename)
		assert.Equal(t, "%PDF-1.4", string(content))

		writeJSON(w, 200, `{"status":"200","message":"uploaded","data":{"url":"https://files.example.com/prior.pdf"}}`)
	})

	u, err := c.UploadDocument(context.Background(), Document{
		Filename: "prior.pdf",
		Content:  strings.NewReader("%PDF-1.4"),
		QuoteID:  "Q1",
		PolicyNo: "RAP-0001",
		LastID:   "17",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/prior.pdf", u)
}

func TestPDFDownloadURL(t *testing.T) {
	c := New(config.BackendConfig{PDFDownloadURL: "https://api.axylerate.com/api/pdf-download"}, nil, nil)
	assert.Equal(t, "https://api.axylerate.com/api/pdf-download?quote_id=Q+1%2F2", c.PDFDownloadURL("Q 1/2"))
}
