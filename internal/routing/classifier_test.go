package routing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_RuleTable(t *testing.T) {
	reg := NewRegistry(testConfig())

	tests := []struct {
		name           string
		text           string
		hasImage       bool
		wantModel      string
		wantConfidence float64
		wantSource     string
	}{
		{
			name:           "image presence wins regardless of text",
			text:           "derive a proof step by step",
			hasImage:       true,
			wantModel:      reg.Multimodal.ID,
			wantConfidence: 0.99,
			wantSource:     SourceShortcut,
		},
		{
			name:           "multimodal keyword",
			text:           "describe this photo",
			wantModel:      reg.Multimodal.ID,
			wantConfidence: 0.85,
			wantSource:     SourceShortcut,
		},
		{
			name:           "multimodal keyword beats reasoning keyword",
			text:           "analyze this image carefully",
			wantModel:      reg.Multimodal.ID,
			wantConfidence: 0.85,
			wantSource:     SourceShortcut,
		},
		{
			name:           "reasoning keyword",
			text:           "please derive a proof",
			wantModel:      reg.Reasoning.ID,
			wantConfidence: 0.88,
			wantSource:     SourceShortcut,
		},
		{
			name:           "substring containment is intentional",
			text:           "show me the analytics dashboard",
			wantModel:      reg.Reasoning.ID,
			wantConfidence: 0.88,
			wantSource:     SourceShortcut,
		},
		{
			name:           "keyword matching is case-insensitive",
			text:           "EXPLAIN WHY this happens",
			wantModel:      reg.Reasoning.ID,
			wantConfidence: 0.88,
			wantSource:     SourceShortcut,
		},
		{
			name:           "no keyword falls back to reasoning",
			text:           "hello there",
			wantModel:      reg.Reasoning.ID,
			wantConfidence: 0.65,
			wantSource:     SourceMLPCompat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := reg.Classify(tt.text, tt.hasImage)
			assert.Equal(t, tt.wantModel, d.Target.ID)
			assert.InDelta(t, tt.wantConfidence, d.Confidence, 1e-9)
			assert.Equal(t, tt.wantSource, d.Source)
		})
	}
}

func TestClassify_EveryMultimodalKeyword(t *testing.T) {
	reg := NewRegistry(testConfig())

	for _, kw := range multimodalKeywords {
		d := reg.Classify("tell me about this "+kw, false)
		assert.Equal(t, reg.Multimodal.ID, d.Target.ID, "keyword %q", kw)
		assert.InDelta(t, 0.85, d.Confidence, 1e-9, "keyword %q", kw)
		assert.Equal(t, SourceShortcut, d.Source, "keyword %q", kw)
	}
}

func TestClassify_ProbabilityDistribution(t *testing.T) {
	reg := NewRegistry(testConfig())

	cases := []struct {
		text     string
		hasImage bool
	}{
		{"analyze this image", true},
		{"describe this picture", false},
		{"derive a proof", false},
		{"hello", false},
	}

	for _, c := range cases {
		d := reg.Classify(c.text, c.hasImage)

		require.Len(t, d.Probabilities, 2)
		require.Contains(t, d.Probabilities, reg.Reasoning.ID)
		require.Contains(t, d.Probabilities, reg.Multimodal.ID)

		var sum float64
		for _, p := range d.Probabilities {
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "text=%q", c.text)

		// best-first ranking agrees with the chosen target
		require.Len(t, d.TopModels, 2)
		assert.Equal(t, d.Target.ID, d.TopModels[0])
		assert.True(t, math.Abs(d.Probabilities[d.TopModels[0]]) >= math.Abs(d.Probabilities[d.TopModels[1]]))
	}
}

func TestClassify_ImageShortcutDistribution(t *testing.T) {
	reg := NewRegistry(testConfig())

	d := reg.Classify("anything", true)
	assert.InDelta(t, 0.01, d.Probabilities[reg.Reasoning.ID], 1e-9)
	assert.InDelta(t, 0.99, d.Probabilities[reg.Multimodal.ID], 1e-9)
	assert.Equal(t, []string{reg.Multimodal.ID, reg.Reasoning.ID}, d.TopModels)
}

func TestClassify_FallbackDistribution(t *testing.T) {
	reg := NewRegistry(testConfig())

	d := reg.Classify("good morning", false)
	assert.InDelta(t, 0.65, d.Probabilities[reg.Reasoning.ID], 1e-9)
	assert.InDelta(t, 0.35, d.Probabilities[reg.Multimodal.ID], 1e-9)
	assert.Equal(t, []string{reg.Reasoning.ID, reg.Multimodal.ID}, d.TopModels)
}
