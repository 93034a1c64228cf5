package enrichment

import (
	"context"
	"strings"
	"sync"
	"time"

	"crm_backend/platform/logger"
)

const cacheTTL = 24 * time.Hour

// Provider is the upstream enrichment source. *Client satisfies it.
type Provider interface {
	Enrich(ctx context.Context, req Request) (Data, error)
}

type cacheEntry struct {
	data     Data
	cachedAt time.Time
}

// Service fronts the provider with a TTL cache and a heuristic fallback for
// deployments without an API key. Provider failures propagate to the
// caller; only a missing provider falls back.
type Service struct {
	provider Provider
	log      *logger.Logger
	now      func() time.Time

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// NewService wires the enrichment service. Provider may be nil when the
// feature is disabled.
func NewService(provider Provider, log *logger.Logger) *Service {
	return &Service{
		provider: provider,
		log:      log,
		now:      time.Now,
		cache:    make(map[string]cacheEntry),
	}
}

// Enabled reports whether a real provider is configured.
func (s *Service) Enabled() bool {
	if s.provider == nil {
		return false
	}
	if c, ok := s.provider.(*Client); ok && c == nil {
		return false
	}
	return true
}

// Enrich resolves enrichment data for a company. Results are cached per
// company key for 24 hours.
func (s *Service) Enrich(ctx context.Context, req Request) (Data, error) {
	key := cacheKey(req)

	s.mu.RLock()
	entry, hit := s.cache[key]
	s.mu.RUnlock()
	if hit && s.now().Sub(entry.cachedAt) < cacheTTL {
		return entry.data, nil
	}

	var data Data
	if s.Enabled() {
		var err error
		data, err = s.provider.Enrich(ctx, req)
		if err != nil {
			return Data{}, err
		}
		if data.Insights.LeadScore == 0 {
			data.Insights.LeadScore = FitScore(data.Company)
		}
	} else {
		data = HeuristicData(req)
	}

	s.mu.Lock()
	s.cache[key] = cacheEntry{data: data, cachedAt: s.now()}
	s.mu.Unlock()

	return data, nil
}

func cacheKey(req Request) string {
	if req.Domain != "" {
		return strings.ToLower(req.Domain)
	}
	return strings.ToLower(req.Name)
}
