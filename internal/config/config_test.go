package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chtemp runs the test from a temp dir so a developer's local config.yaml is
// not picked up.
func chtemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	chtemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.PublicPort)
	assert.Equal(t, "http://127.0.0.1:8355", cfg.ReasoningURL)
	assert.Equal(t, "http://127.0.0.1:8356", cfg.MultimodalURL)
	assert.Equal(t, "nvidia/Phi-4-reasoning-plus-FP8", cfg.ModelReasoningID)
	assert.Equal(t, "nvidia/Phi-4-multimodal-instruct-NVFP4", cfg.ModelMultimodalID)
	assert.Equal(t, "phi-4-reasoning-plus", cfg.ModelReasoningAlias)
	assert.Equal(t, "phi-4-multimodal-instruct", cfg.ModelMultimodalAlias)
	assert.Equal(t, "phigate.db", cfg.DBPath)
	assert.Equal(t, "admin", cfg.AdminUser)
}

func TestLoad_EnvOverride(t *testing.T) {
	chtemp(t)
	t.Setenv("GATEWAY_PUBLIC_PORT", "9090")
	t.Setenv("GATEWAY_REASONING_URL", "http://10.0.0.5:8000")
	t.Setenv("GATEWAY_MODEL_REASONING_ALIAS", "phi-r")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.PublicPort)
	assert.Equal(t, "http://10.0.0.5:8000", cfg.ReasoningURL)
	assert.Equal(t, "phi-r", cfg.ModelReasoningAlias)
}
