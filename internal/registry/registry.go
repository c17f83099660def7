package registry

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"horse.fit/newsrank/internal/engine"
	"horse.fit/newsrank/internal/globaltime"
)

// MaxConsecutiveFailures is the number of consecutive ingestion
// failures after which a source is deactivated automatically.
const MaxConsecutiveFailures = 5

var validTiers = map[string]struct{}{
	"whitelist": {},
	"tier1":     {},
	"tier2":     {},
	"tier3":     {},
	"blacklist": {},
}

// Source is one registered news source with its runtime state.
type Source struct {
	ID         string   `yaml:"id" json:"id"`
	Name       string   `yaml:"name" json:"name"`
	Tier       string   `yaml:"tier" json:"tier"`
	BaseTrust  float64  `yaml:"base_trust,omitempty" json:"base_trust,omitempty"`
	Categories []string `yaml:"categories,omitempty" json:"categories,omitempty"`
	Active     bool     `yaml:"active" json:"active"`

	FailureCount int        `yaml:"-" json:"failure_count"`
	LastSuccess  *time.Time `yaml:"-" json:"last_success,omitempty"`
	LastAttempt  *time.Time `yaml:"-" json:"last_attempt,omitempty"`
}

type registryFile struct {
	Sources []Source `yaml:"sources"`
}

// Registry is the in-process source registry loaded from a YAML file.
// It satisfies the engine's trust lookup and tracks per-source
// ingestion health at runtime.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]*Source
	order   []string
	logger  zerolog.Logger
}

// Load reads and validates the registry file.
func Load(path string, logger zerolog.Logger) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file %s: %w", path, err)
	}
	return Parse(raw, logger)
}

// Parse builds a registry from raw YAML.
func Parse(raw []byte, logger zerolog.Logger) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse sources yaml: %w", err)
	}

	r := &Registry{
		sources: make(map[string]*Source, len(file.Sources)),
		logger:  logger,
	}
	for i := range file.Sources {
		src := file.Sources[i]
		if strings.TrimSpace(src.ID) == "" {
			return nil, fmt.Errorf("source at index %d is missing an id", i)
		}
		if _, ok := validTiers[src.Tier]; !ok {
			return nil, fmt.Errorf("source %q: invalid tier %q", src.ID, src.Tier)
		}
		if src.BaseTrust < 0 || src.BaseTrust > 1 {
			return nil, fmt.Errorf("source %q: base_trust %f out of range [0,1]", src.ID, src.BaseTrust)
		}
		if _, dup := r.sources[src.ID]; dup {
			return nil, fmt.Errorf("duplicate source id %q", src.ID)
		}
		r.sources[src.ID] = &src
		r.order = append(r.order, src.ID)
	}

	logger.Info().Int("sources", len(r.sources)).Msg("source registry loaded")
	return r, nil
}

// Empty returns a registry with no sources; every lookup misses.
func Empty(logger zerolog.Logger) *Registry {
	return &Registry{
		sources: make(map[string]*Source),
		logger:  logger,
	}
}

// Trust implements engine.TrustLookup.
func (r *Registry) Trust(sourceID string) (engine.SourceTrust, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src, ok := r.sources[sourceID]
	if !ok {
		return engine.SourceTrust{}, false
	}
	return engine.SourceTrust{Tier: src.Tier, BaseTrust: src.BaseTrust}, true
}

// Get returns a copy of one source.
func (r *Registry) Get(sourceID string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src, ok := r.sources[sourceID]
	if !ok {
		return Source{}, false
	}
	return *src, true
}

// All returns copies of every source in file order.
func (r *Registry) All() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Source, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.sources[id])
	}
	return out
}

// Active returns the active, non-blacklisted sources in file order.
func (r *Registry) Active() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Source, 0, len(r.order))
	for _, id := range r.order {
		src := r.sources[id]
		if src.Active && src.Tier != "blacklist" {
			out = append(out, *src)
		}
	}
	return out
}

// ByTier returns the active sources of one tier.
func (r *Registry) ByTier(tier string) []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Source, 0, len(r.order))
	for _, id := range r.order {
		src := r.sources[id]
		if src.Tier == tier && src.Active {
			out = append(out, *src)
		}
	}
	return out
}

// RecordSuccess resets the failure streak for a source.
func (r *Registry) RecordSuccess(sourceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, ok := r.sources[sourceID]
	if !ok {
		return
	}
	now := globaltime.UTC()
	src.LastAttempt = &now
	src.LastSuccess = &now
	src.FailureCount = 0
}

// RecordFailure increments the failure streak and deactivates the
// source once it reaches the limit.
func (r *Registry) RecordFailure(sourceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, ok := r.sources[sourceID]
	if !ok {
		return
	}
	now := globaltime.UTC()
	src.LastAttempt = &now
	src.FailureCount++

	r.logger.Warn().
		Str("source_id", sourceID).
		Int("failure_count", src.FailureCount).
		Msg("source failure recorded")

	if src.FailureCount >= MaxConsecutiveFailures && src.Active {
		src.Active = false
		r.logger.Error().
			Str("source_id", sourceID).
			Int("failure_count", src.FailureCount).
			Msg("source deactivated after consecutive failures")
	}
}

// RestoreHealth overlays persisted runtime state onto a loaded source.
// The file stays authoritative for tier and trust; a persisted
// deactivation sticks until an explicit reactivate.
func (r *Registry) RestoreHealth(sourceID string, active bool, failureCount int, lastSuccess, lastAttempt *time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, ok := r.sources[sourceID]
	if !ok {
		return
	}
	src.FailureCount = failureCount
	src.LastSuccess = lastSuccess
	src.LastAttempt = lastAttempt
	if !active && src.Tier != "blacklist" {
		src.Active = false
	}
}

// Reactivate re-enables a deactivated source and clears its failure
// streak. Blacklisted sources stay off.
func (r *Registry) Reactivate(sourceID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, ok := r.sources[sourceID]
	if !ok || src.Tier == "blacklist" {
		return false
	}
	src.Active = true
	src.FailureCount = 0
	r.logger.Info().Str("source_id", sourceID).Msg("source reactivated")
	return true
}

// Stats summarizes the registry for operational surfaces.
type Stats struct {
	Total    int            `json:"total"`
	Active   int            `json:"active"`
	ByTier   map[string]int `json:"by_tier"`
	Inactive []string       `json:"inactive,omitempty"`
}

func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{ByTier: make(map[string]int)}
	for _, id := range r.order {
		src := r.sources[id]
		stats.Total++
		stats.ByTier[src.Tier]++
		if src.Active && src.Tier != "blacklist" {
			stats.Active++
		} else {
			stats.Inactive = append(stats.Inactive, src.ID)
		}
	}
	sort.Strings(stats.Inactive)
	return stats
}
