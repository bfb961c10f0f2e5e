package routing

import "strings"

// Decision source labels. "mlp_compat" is the historical label emitted on the
// default fallback; it is a fixed constant kept for client compatibility and
// does not indicate a learned classifier.
const (
	SourceShortcut  = "shortcut"
	SourceMLPCompat = "mlp_compat"
)

// Decision is the outcome of classifying one routing request. Created fresh
// per request, never persisted.
type Decision struct {
	Target     ModelIdentity
	Confidence float64
	Source     string
	// Probabilities maps both known model ids to fixed heuristic weights
	// summing to 1.0.
	Probabilities map[string]float64
	// TopModels ranks the two model ids best-first.
	TopModels []string
}

// Keyword sets are matched by substring containment, not whole words:
// "analy" deliberately hits "analyze", "analysis" and also "analytics".
var (
	multimodalKeywords = []string{"image", "photo", "picture", "vision", "audio", "video"}
	reasoningKeywords  = []string{"reason", "analy", "proof", "derive", "step", "logic", "math", "explain why"}
)

// routeRule pairs a predicate with the decision it produces. Rules are
// evaluated in order and the first match wins; the order encodes priority
// (image presence > multimodal keywords > reasoning keywords > fallback)
// and must not be reordered.
type routeRule struct {
	name    string
	matches func(text string, hasImage bool) bool
	decide  func(r *Registry) Decision
}

var routeRules = []routeRule{
	{
		name: "image-shortcut",
		matches: func(_ string, hasImage bool) bool {
			return hasImage
		},
		decide: func(r *Registry) Decision {
			return r.multimodalDecision(0.99, SourceShortcut)
		},
	},
	{
		name: "multimodal-keywords",
		matches: func(text string, _ bool) bool {
			return containsAny(text, multimodalKeywords)
		},
		decide: func(r *Registry) Decision {
			return r.multimodalDecision(0.85, SourceShortcut)
		},
	},
	{
		name: "reasoning-keywords",
		matches: func(text string, _ bool) bool {
			return containsAny(text, reasoningKeywords)
		},
		decide: func(r *Registry) Decision {
			return r.reasoningDecision(0.88, SourceShortcut)
		},
	},
	{
		name: "fallback",
		matches: func(string, bool) bool {
			return true
		},
		decide: func(r *Registry) Decision {
			return r.reasoningDecision(0.65, SourceMLPCompat)
		},
	},
}

// Classify picks the model that should serve a free-text request by walking
// the ordered rule table.
func (r *Registry) Classify(text string, hasImage bool) Decision {
	lower := strings.ToLower(text)
	for _, rule := range routeRules {
		if rule.matches(lower, hasImage) {
			return rule.decide(r)
		}
	}
	// unreachable: the fallback rule always matches
	return r.reasoningDecision(0.65, SourceMLPCompat)
}

func (r *Registry) multimodalDecision(confidence float64, source string) Decision {
	return Decision{
		Target:     r.Multimodal,
		Confidence: confidence,
		Source:     source,
		Probabilities: map[string]float64{
			r.Reasoning.ID:  1 - confidence,
			r.Multimodal.ID: confidence,
		},
		TopModels: []string{r.Multimodal.ID, r.Reasoning.ID},
	}
}

func (r *Registry) reasoningDecision(confidence float64, source string) Decision {
	return Decision{
		Target:     r.Reasoning,
		Confidence: confidence,
		Source:     source,
		Probabilities: map[string]float64{
			r.Reasoning.ID:  confidence,
			r.Multimodal.ID: 1 - confidence,
		},
		TopModels: []string{r.Reasoning.ID, r.Multimodal.ID},
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
