// internal/workers/quote/fetch-supported-states/models.go
package fetchsupportedstates

import "quote-workflow/internal/models"

type Input struct {
	// SessionID scopes the cached list to one session. Without it the list
	// is shared by every session.
	SessionID string `json:"sessionId,omitempty"`
	Program   string `json:"program,omitempty"`
	Refresh   bool   `json:"refresh,omitempty"`
}

type Output struct {
	Programs  []string                `json:"programs"`
	States    []models.SupportedState `json:"supportedStates"`
	FromCache bool                    `json:"fromCache"`
}
