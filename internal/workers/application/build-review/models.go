// internal/workers/application/build-review/models.go
package buildreview

import "quote-workflow/internal/models"

type Input struct {
	SessionID         string                   `json:"sessionId"`
	Submission        models.QuoteSaveResponse `json:"submission"`
	PolicyPaymentType string                   `json:"policyPaymentType,omitempty"`
}

type Output struct {
	SessionID string `json:"sessionId"`
	Result
}

// Item is one labelled value on the review screen.
type Item struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Section struct {
	Title string `json:"title"`
	Items []Item `json:"items"`
}

type Review struct {
	Sections []Section `json:"sections"`
}

// Section returns the section with title, if present.
func (r Review) Section(title string) (Section, bool) {
	for _, s := range r.Sections {
		if s.Title == title {
			return s, true
		}
	}
	return Section{}, false
}

// Value returns the value of label within the section.
func (s Section) Value(label string) string {
	for _, it := range s.Items {
		if it.Label == label {
			return it.Value
		}
	}
	return ""
}

// Result is what a completed submission hands to the review and payment
// pages.
type Result struct {
	Review      Review                `json:"review"`
	Handoff     models.PaymentHandoff `json:"paymentHandoff"`
	PaymentPath string                `json:"paymentPath"`
	DownloadURL string                `json:"downloadUrl,omitempty"`
}
