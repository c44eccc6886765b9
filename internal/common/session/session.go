// Package session holds the per-tab workflow state that is never written to
// the cache: the current stage, the payment handoff and the payment outcome.
package session

import (
	"sync"
	"time"

	"quote-workflow/internal/common/cache"
	apperrors "quote-workflow/internal/common/errors"
	"quote-workflow/internal/models"
)

// Stage is a step of one quote session.
type Stage string

const (
	StageQualifying     Stage = "qualifying"
	StageQuoted         Stage = "quoted"
	StageAuthenticating Stage = "authenticating"
	StageDrafting       Stage = "drafting"
	StageValidating     Stage = "validating"
	StageSubmitting     Stage = "submitting"
	StageReviewing      Stage = "reviewing"
	StagePaying         Stage = "paying"
	StageSuccess        Stage = "success"
)

// A new qualifier submission may restart the flow from any stage, so
// qualifying is a valid target everywhere and is not listed.
var transitions = map[Stage][]Stage{
	StageQualifying:     {StageQuoted, StageDrafting},
	StageQuoted:         {StageAuthenticating, StageDrafting},
	StageAuthenticating: {StageDrafting},
	StageDrafting:       {StageDrafting, StageValidating},
	StageValidating:     {StageDrafting, StageSubmitting},
	StageSubmitting:     {StageReviewing, StageDrafting},
	StageReviewing:      {StagePaying, StageDrafting},
	StagePaying:         {StageSuccess, StageReviewing},
	StageSuccess:        {},
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to Stage) bool {
	if to == StageQualifying {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// State is one session. All methods are safe for concurrent use.
type State struct {
	id    string
	store cache.Store
	now   func() time.Time

	mu        sync.Mutex
	stage     Stage
	handoff   *models.PaymentHandoff
	payment   *models.PaymentResult
	updatedAt time.Time
}

func newState(id string, store cache.Store, now func() time.Time) *State {
	return &State{
		id:        id,
		store:     cache.Scoped(store, id),
		now:       now,
		stage:     StageQualifying,
		updatedAt: now(),
	}
}

func (s *State) ID() string { return s.id }

// Cache is the session's view of the cache store.
func (s *State) Cache() cache.Store { return s.store }

func (s *State) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// Advance moves the session to stage `to`, or fails with
// INVALID_STAGE_TRANSITION leaving the stage unchanged.
func (s *State) Advance(to Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !CanTransition(s.stage, to) {
		return apperrors.NewInvalidStageTransitionError(string(s.stage), string(to))
	}
	if to == StageQualifying {
		s.handoff = nil
		s.payment = nil
	}
	s.stage = to
	s.updatedAt = s.now()
	return nil
}

// Restart returns the session to qualifying and then walks path, all under
// one lock so concurrent restarts cannot interleave.
func (s *State) Restart(path ...Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stage := StageQualifying
	for _, to := range path {
		if !CanTransition(stage, to) {
			return apperrors.NewInvalidStageTransitionError(string(stage), string(to))
		}
		stage = to
	}
	s.stage = stage
	s.handoff = nil
	s.payment = nil
	s.updatedAt = s.now()
	return nil
}

// SetHandoff replaces the payment handoff. Only one handoff exists per
// session; a later submission overwrites it.
func (s *State) SetHandoff(h models.PaymentHandoff) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handoff = &h
	s.payment = nil
	s.updatedAt = s.now()
}

// Handoff returns the current handoff.
func (s *State) Handoff() (models.PaymentHandoff, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handoff == nil {
		return models.PaymentHandoff{}, false
	}
	return *s.handoff, true
}

// MatchingHandoff returns the handoff only if it belongs to quoteID and
// token, the check the payment page performs before charging.
func (s *State) MatchingHandoff(quoteID, token string) (models.PaymentHandoff, error) {
	h, ok := s.Handoff()
	if !ok || !h.Matches(quoteID, token) {
		return models.PaymentHandoff{}, apperrors.NewPaymentHandoffMissingError()
	}
	return h, nil
}

// CompletePayment records the payment outcome and consumes the handoff.
func (s *State) CompletePayment(r models.PaymentResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payment = &r
	s.handoff = nil
	s.updatedAt = s.now()
}

func (s *State) Payment() (models.PaymentResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payment == nil {
		return models.PaymentResult{}, false
	}
	return *s.payment, true
}

// Snapshot is the JSON view of a session.
type Snapshot struct {
	ID        string                 `json:"id"`
	Stage     Stage                  `json:"stage"`
	Handoff   *models.PaymentHandoff `json:"paymentHandoff,omitempty"`
	Payment   *models.PaymentResult  `json:"payment,omitempty"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{ID: s.id, Stage: s.stage, UpdatedAt: s.updatedAt}
	if s.handoff != nil {
		h := *s.handoff
		snap.Handoff = &h
	}
	if s.payment != nil {
		p := *s.payment
		snap.Payment = &p
	}
	return snap
}

// touch marks the session as in use so Sweep keeps it.
func (s *State) touch() {
	s.mu.Lock()
	s.updatedAt = s.now()
	s.mu.Unlock()
}

func (s *State) lastUpdate() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}
