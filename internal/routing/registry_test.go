package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taavik/phigate/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		ReasoningURL:         "http://127.0.0.1:8355",
		MultimodalURL:        "http://127.0.0.1:8356",
		ModelReasoningID:     "nvidia/Phi-4-reasoning-plus-FP8",
		ModelMultimodalID:    "nvidia/Phi-4-multimodal-instruct-NVFP4",
		ModelReasoningAlias:  "phi-4-reasoning-plus",
		ModelMultimodalAlias: "phi-4-multimodal-instruct",
	}
}

func TestRegistry_Resolve(t *testing.T) {
	reg := NewRegistry(testConfig())

	tests := []struct {
		name        string
		model       string
		wantBackend string
		wantOK      bool
	}{
		{"reasoning canonical id", "nvidia/Phi-4-reasoning-plus-FP8", "http://127.0.0.1:8355", true},
		{"reasoning alias", "phi-4-reasoning-plus", "http://127.0.0.1:8355", true},
		{"multimodal canonical id", "nvidia/Phi-4-multimodal-instruct-NVFP4", "http://127.0.0.1:8356", true},
		{"multimodal alias", "phi-4-multimodal-instruct", "http://127.0.0.1:8356", true},
		{"unknown model", "unknown-model", "", false},
		{"case sensitive", "PHI-4-REASONING-PLUS", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := reg.Resolve(tt.model)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantBackend, m.Backend)
			}
		})
	}
}

func TestRegistry_AliasAndIDShareBackend(t *testing.T) {
	reg := NewRegistry(testConfig())

	byAlias, ok := reg.Resolve("phi-4-reasoning-plus")
	require.True(t, ok)
	byID, ok := reg.Resolve("nvidia/Phi-4-reasoning-plus-FP8")
	require.True(t, ok)

	assert.Equal(t, byAlias.Backend, byID.Backend)
	assert.Equal(t, byAlias.ID, byID.ID)
}

func TestRegistry_Accepted(t *testing.T) {
	reg := NewRegistry(testConfig())

	accepted := reg.Accepted()
	require.Len(t, accepted, 4)
	for _, name := range accepted {
		_, ok := reg.Resolve(name)
		assert.True(t, ok, "accepted name %q must resolve", name)
	}
}
