package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"quote-workflow/internal/common/cache"
	apperrors "quote-workflow/internal/common/errors"
	"quote-workflow/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Stage transitions
// ==========================

func TestAdvance_HappyPath(t *testing.T) {
	st := NewRegistry(cache.NewMemoryStore()).Create()
	assert.Equal(t, StageQualifying, st.Stage())

	for _, s := range []Stage{
		StageQuoted,
		StageAuthenticating,
		StageDrafting,
		StageValidating,
		StageSubmitting,
		StageReviewing,
		StagePaying,
		StageSuccess,
	} {
		require.NoError(t, st.Advance(s), "advance to %s", s)
	}
	assert.Equal(t, StageSuccess, st.Stage())
}

func TestAdvance_Rejected(t *testing.T) {
	tests := []struct {
		from, to Stage
	}{
		{StageQualifying, StagePaying},
		{StageQuoted, StageSubmitting},
		{StageDrafting, StageReviewing},
		{StageSuccess, StageDrafting},
		{StageReviewing, StageSuccess},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.False(t, CanTransition(tt.from, tt.to))
		})
	}

	st := NewRegistry(cache.NewMemoryStore()).Create()
	err := st.Advance(StageReviewing)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidStageTransition))
	assert.Equal(t, StageQualifying, st.Stage())
}

func TestAdvance_RestartClearsHandoff(t *testing.T) {
	st := NewRegistry(cache.NewMemoryStore()).Create()
	require.NoError(t, st.Advance(StageDrafting))
	st.SetHandoff(models.PaymentHandoff{QuoteID: "Q1", Amount: "812.50", ClientToken: "tok"})

	require.NoError(t, st.Advance(StageQualifying))
	_, ok := st.Handoff()
	assert.False(t, ok)
}

// ==========================
// Payment handoff
// ==========================

func TestHandoff_OverwrittenAndMatched(t *testing.T) {
	st := NewRegistry(cache.NewMemoryStore()).Create()

	_, err := st.MatchingHandoff("Q1", "tok")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodePaymentHandoffMissing))

	st.SetHandoff(models.PaymentHandoff{QuoteID: "Q1", Amount: "812.50", ClientToken: "tok1"})
	st.SetHandoff(models.PaymentHandoff{QuoteID: "Q2", Amount: "99.00", ClientToken: "tok2"})

	_, err = st.MatchingHandoff("Q1", "tok1")
	assert.Error(t, err, "only the latest handoff is representable")

	h, err := st.MatchingHandoff("Q2", "tok2")
	require.NoError(t, err)
	assert.Equal(t, "99.00", h.Amount)

	_, err = st.MatchingHandoff("Q2", "wrong")
	assert.Error(t, err)

	st.CompletePayment(models.PaymentResult{PolicyNo: "RAP-1", QuoteID: "Q2"})
	_, ok := st.Handoff()
	assert.False(t, ok)
	p, ok := st.Payment()
	require.True(t, ok)
	assert.Equal(t, "RAP-1", p.PolicyNo)

	snap := st.Snapshot()
	assert.Nil(t, snap.Handoff)
	assert.NotNil(t, snap.Payment)
}

// ==========================
// Registry
// ==========================

func TestRegistry_GetOrCreate(t *testing.T) {
	r := NewRegistry(cache.NewMemoryStore())

	_, err := r.GetOrCreate("not-a-uuid")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSessionNotFound))

	a, err := r.GetOrCreate("3F2504E0-4F89-11D3-9A0C-0305E82C3301")
	require.NoError(t, err)
	b, err := r.GetOrCreate("3f2504e0-4f89-11d3-9a0c-0305e82c3301")
	require.NoError(t, err)
	assert.Same(t, a, b)

	got, err := r.Get("3f2504e0-4f89-11d3-9a0c-0305e82c3301")
	require.NoError(t, err)
	assert.Same(t, a, got)

	r.Remove(a.ID())
	_, err = r.Get(a.ID())
	assert.Error(t, err)
}

func TestRegistry_SessionsDoNotShareCache(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(cache.NewMemoryStore())
	a := r.Create()
	b := r.Create()

	require.NoError(t, a.Cache().Set(ctx, cache.KeyQuoteID, []byte(`"QA"`)))
	_, ok, err := b.Cache().Get(ctx, cache.KeyQuoteID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistry_Sweep(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r := NewRegistry(cache.NewMemoryStore())
	r.now = func() time.Time { return now }

	old := r.Create()
	now = now.Add(2 * time.Hour)
	fresh := r.Create()

	assert.Equal(t, 1, r.Sweep(time.Hour))
	_, err := r.Get(old.ID())
	assert.Error(t, err)
	_, err = r.Get(fresh.ID())
	assert.NoError(t, err)
}

func TestRegistry_SweepKeepsSessionsInUse(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r := NewRegistry(cache.NewMemoryStore())
	r.now = func() time.Time { return now }

	st := r.Create()
	require.NoError(t, st.Advance(StageDrafting))

	// Draft edits only look the session up; they never change its stage.
	for i := 0; i < 3; i++ {
		now = now.Add(90 * time.Minute)
		_, err := r.GetOrCreate(st.ID())
		require.NoError(t, err)
		assert.Equal(t, 0, r.Sweep(2*time.Hour))
	}

	now = now.Add(90 * time.Minute)
	_, err := r.Get(st.ID())
	require.NoError(t, err)
	assert.Equal(t, 0, r.Sweep(2*time.Hour))

	got, err := r.Get(st.ID())
	require.NoError(t, err)
	assert.Equal(t, StageDrafting, got.Stage())
	require.NoError(t, got.Advance(StageValidating))

	now = now.Add(3 * time.Hour)
	assert.Equal(t, 1, r.Sweep(2*time.Hour))
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry(cache.NewMemoryStore())
	id := "6ba7b810-9dad-11d1-80b4-00c04fd430c8"

	var wg sync.WaitGroup
	states := make([]*State, 20)
	for i := range states {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st, err := r.GetOrCreate(id)
			if err == nil {
				states[i] = st
			}
		}(i)
	}
	wg.Wait()

	for _, st := range states {
		assert.Same(t, states[0], st)
	}
	assert.Equal(t, 1, r.Len())
}

func TestRestart(t *testing.T) {
	st := NewRegistry(cache.NewMemoryStore()).Create()
	require.NoError(t, st.Advance(StageDrafting))
	require.NoError(t, st.Advance(StageValidating))
	st.SetHandoff(models.PaymentHandoff{QuoteID: "Q1", ClientToken: "tok"})

	require.NoError(t, st.Restart(StageQuoted, StageAuthenticating))
	assert.Equal(t, StageAuthenticating, st.Stage())
	_, ok := st.Handoff()
	assert.False(t, ok)

	err := st.Restart(StageQuoted, StagePaying)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidStageTransition))
	assert.Equal(t, StageAuthenticating, st.Stage())
}
