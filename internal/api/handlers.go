// internal/api/handlers.go
package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"quote-workflow/internal/common/backend"
	apperrors "quote-workflow/internal/common/errors"
	"quote-workflow/internal/common/logger"
	"quote-workflow/internal/common/validation"
	"quote-workflow/internal/models"
	"quote-workflow/internal/workflow"
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

const maxUploadBytes = 10 << 20

// Handler serves the workflow steps over HTTP. Every request runs the same
// Execute a Zeebe job would.
type Handler struct {
	steps  *workflow.Steps
	logger logger.Logger
}

func NewHandler(steps *workflow.Steps, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Handler{steps: steps, logger: log.WithFields(map[string]interface{}{"component": "api"})}
}

// SubmitResponse is a saved application together with its review and
// payment handoff.
type SubmitResponse struct {
	SessionID  string                   `json:"sessionId"`
	Submission models.QuoteSaveResponse `json:"submission"`
	buildreview.Result
}

// ==========================
// Health and sessions
// ==========================

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"sessions": h.steps.Sessions.Len(),
	})
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	st := h.steps.Sessions.Create()
	w.Header().Set(SessionHeader, st.ID())
	writeJSON(w, http.StatusCreated, st.Snapshot())
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	st, err := h.steps.Sessions.Get(sessionID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st.Snapshot())
}

// ==========================
// Quote
// ==========================

func (h *Handler) SupportedStates(w http.ResponseWriter, r *http.Request) {
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	out, err := h.steps.SupportedStates.Execute(r.Context(), &fetchsupportedstates.Input{
		SessionID: sessionID(r),
		Program:   r.URL.Query().Get("program"),
		Refresh:   refresh,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) Qualifier(w http.ResponseWriter, r *http.Request) {
	var q models.QuoteRequest
	if err := decodeJSON(r, &q); err != nil {
		writeBadRequest(w, err)
		return
	}
	out, err := h.steps.Qualifier.Execute(r.Context(), &resolvequalifier.Input{
		SessionID: sessionID(r),
		Qualifier: q,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) Premium(w http.ResponseWriter, r *http.Request) {
	var in calculatepremium.Input
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, err)
		return
	}
	out, err := h.steps.Premium.Execute(r.Context(), &in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ==========================
// Application
// ==========================

func (h *Handler) PrepareForm(w http.ResponseWriter, r *http.Request) {
	out, err := h.steps.Form.Execute(r.Context(), &prepareapplicationform.Input{
		SessionID: sessionID(r),
		Program:   chi.URLParam(r, "program"),
		QuoteID:   chi.URLParam(r, "quoteID"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	var form models.ApplicationForm
	if err := decodeJSON(r, &form); err != nil {
		writeBadRequest(w, err)
		return
	}
	form.QuoteID = chi.URLParam(r, "quoteID")
	if form.ProgramCode == "" {
		form.ProgramCode = strings.ToUpper(chi.URLParam(r, "program"))
	}

	out, err := h.steps.Form.Execute(r.Context(), &prepareapplicationform.Input{
		SessionID: sessionID(r),
		Draft:     &form,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// SubmitApplication validates and saves the application, then builds the
// review and payment handoff from the backend's answer.
func (h *Handler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	var form models.ApplicationForm
	if err := decodeJSON(r, &form); err != nil {
		writeBadRequest(w, err)
		return
	}
	ctx := r.Context()

	out, err := h.steps.Submit.Execute(ctx, &submitapplication.Input{
		SessionID: sessionID(r),
		Form:      form,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	st, err := h.steps.Sessions.Get(out.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.steps.Review.Service().Bridge(ctx, st, out.Submission, models.PolicyPaymentPurchase)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SubmitResponse{
		SessionID:  out.SessionID,
		Submission: out.Submission,
		Result:     *result,
	})
}

func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	var in buildreview.Input
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, err)
		return
	}
	in.SessionID = sessionID(r)

	out, err := h.steps.Review.Execute(r.Context(), &in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ==========================
// Payment and renewals
// ==========================

func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	var in processpayment.Input
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, err)
		return
	}
	in.SessionID = sessionID(r)

	out, err := h.steps.Payment.Execute(r.Context(), &in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) AutoRenewal(w http.ResponseWriter, r *http.Request) {
	var in submitautorenewal.Input
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, err)
		return
	}
	in.SessionID = sessionID(r)

	out, err := h.steps.AutoRenewal.Execute(r.Context(), &in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) SecondYearPayment(w http.ResponseWriter, r *http.Request) {
	var in submitsecondyearpayment.Input
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, err)
		return
	}
	in.SessionID = sessionID(r)

	out, err := h.steps.SecondYear.Execute(r.Context(), &in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ==========================
// Documents
// ==========================

// SendVerificationEmail asks the backend to mail a verification code to the
// applicant.
func (h *Handler) SendVerificationEmail(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeBadRequest(w, err)
		return
	}
	email := strings.TrimSpace(body.Email)
	if !validation.ValidateEmail(email) {
		writeError(w, apperrors.NewApplicationValidationError("email", "Invalid email address"))
		return
	}
	if err := h.steps.Backend.SendVerificationEmail(r.Context(), email); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// UploadDocument forwards an insurance document of a paid policy.
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeBadRequest(w, err)
		return
	}
	file, hdr, err := r.FormFile("insurance_document")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	defer file.Close()

	quoteID := r.FormValue("quote_id")
	if quoteID == "" {
		writeError(w, apperrors.NewQuoteIDMissingError())
		return
	}

	url, err := h.steps.Backend.UploadDocument(r.Context(), backend.Document{
		Filename: hdr.Filename,
		Content:  file,
		QuoteID:  quoteID,
		PolicyNo: r.FormValue("policy_num"),
		LastID:   r.FormValue("last_id"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.logger.Info("Document uploaded", map[string]interface{}{
		"quoteId":  quoteID,
		"filename": hdr.Filename,
	})
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *Handler) DownloadPDF(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.steps.Backend.PDFDownloadURL(chi.URLParam(r, "quoteID")), http.StatusFound)
}
