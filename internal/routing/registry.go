// Package routing implements model resolution and the heuristic request
// classifier for PhiGate. The gateway fronts exactly two inference backends:
// a reasoning service and a multimodal service.
package routing

import (
	"github.com/taavik/phigate/internal/config"
)

// ModelIdentity binds a canonical model id and its short alias to the
// backend base URL that serves it. Both instances are built once from
// config at startup and are read-only afterwards.
type ModelIdentity struct {
	ID      string
	Alias   string
	Backend string
}

// Registry resolves model names (canonical id or alias) to their backend.
// Matching is exact and case-sensitive against the four accepted strings.
type Registry struct {
	Reasoning  ModelIdentity
	Multimodal ModelIdentity
}

// NewRegistry builds the two fixed model identities from config.
func NewRegistry(cfg *config.Config) *Registry {
	return &Registry{
		Reasoning: ModelIdentity{
			ID:      cfg.ModelReasoningID,
			Alias:   cfg.ModelReasoningAlias,
			Backend: cfg.ReasoningURL,
		},
		Multimodal: ModelIdentity{
			ID:      cfg.ModelMultimodalID,
			Alias:   cfg.ModelMultimodalAlias,
			Backend: cfg.MultimodalURL,
		},
	}
}

// Resolve maps a model name to its identity. The second return value is
// false when the name is not one of the four accepted strings; callers
// turn that into a client-facing 400 listing Accepted().
func (r *Registry) Resolve(name string) (ModelIdentity, bool) {
	switch name {
	case r.Reasoning.ID, r.Reasoning.Alias:
		return r.Reasoning, true
	case r.Multimodal.ID, r.Multimodal.Alias:
		return r.Multimodal, true
	}
	return ModelIdentity{}, false
}

// Accepted returns the four model names the gateway resolves, for use in
// error messages.
func (r *Registry) Accepted() []string {
	return []string{
		r.Reasoning.ID,
		r.Reasoning.Alias,
		r.Multimodal.ID,
		r.Multimodal.Alias,
	}
}

// IsMultimodal reports whether the identity is the multimodal model.
func (r *Registry) IsMultimodal(m ModelIdentity) bool {
	return m.ID == r.Multimodal.ID
}
