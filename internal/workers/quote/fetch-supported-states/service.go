// internal/workers/quote/fetch-supported-states/service.go
package fetchsupportedstates

import (
	"context"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"quote-workflow/internal/common/cache"
	"quote-workflow/internal/common/logger"
	"quote-workflow/internal/models"
)

type StatesAPI interface {
	SupportedStates(ctx context.Context) ([]models.SupportedState, error)
}

type Service struct {
	config *Config
	api    StatesAPI
	logger logger.Logger
	now    func() time.Time
	group  singleflight.Group
}

func NewService(api StatesAPI, cfg *Config, log logger.Logger, now func() time.Time) *Service {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if now == nil {
		now = time.Now
	}
	return &Service{config: cfg, api: api, logger: log, now: now}
}

// States returns the supported (program, state) pairs held in store,
// fetching them when the entry is missing, stale or refresh is set.
// scope identifies store; concurrent fetches for one scope share a call.
func (s *Service) States(ctx context.Context, scope string, store cache.Store, refresh bool) ([]models.SupportedState, bool, error) {
	entry := cache.NewTyped[[]models.SupportedState](store, cache.KeySupportedStates, s.logger,
		cache.WithClock(s.now), cache.WithExclusiveExpiry())
	if !refresh {
		if states, ok := entry.LoadFresh(ctx); ok {
			return states, true, nil
		}
	}

	type result struct {
		states    []models.SupportedState
		fromCache bool
	}
	v, err, _ := s.group.Do(scope, func() (interface{}, error) {
		// A call that finished while this one waited may have filled the entry.
		if !refresh {
			if states, ok := entry.LoadFresh(ctx); ok {
				return result{states: states, fromCache: true}, nil
			}
		}
		states, err := s.api.SupportedStates(ctx)
		if err != nil {
			return nil, err
		}
		if err := entry.SaveEntry(ctx, states, s.config.CacheTTL); err != nil {
			s.logger.Warn("Cache write failed", map[string]interface{}{
				"key":   cache.KeySupportedStates,
				"error": err.Error(),
			})
		}
		s.logger.Info("Supported states refreshed", map[string]interface{}{
			"count": len(states),
		})
		return result{states: states}, nil
	})
	if err != nil {
		return nil, false, err
	}
	res := v.(result)
	return res.states, res.fromCache, nil
}

// Programs returns the distinct program codes in states.
func Programs(states []models.SupportedState) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, st := range states {
		if !seen[st.Program] {
			seen[st.Program] = true
			out = append(out, st.Program)
		}
	}
	sort.Strings(out)
	return out
}

// ForProgram keeps the states offered for program; an empty program keeps all.
func ForProgram(states []models.SupportedState, program string) []models.SupportedState {
	if program == "" {
		return states
	}
	out := make([]models.SupportedState, 0)
	for _, st := range states {
		if strings.EqualFold(st.Program, program) {
			out = append(out, st)
		}
	}
	return out
}
