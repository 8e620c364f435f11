package refdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogLoads(t *testing.T) {
	assert.NotEmpty(t, GPUProfiles())
	assert.NotEmpty(t, ModelProfiles())

	rtx, ok := LookupGPU("rtx4090")
	require.True(t, ok)
	assert.Equal(t, 24.0, rtx.VRAMGB)

	llama, ok := LookupModel("llama3_8b")
	require.True(t, ok)
	assert.Equal(t, "Llama-3", llama.Family)
	assert.Equal(t, 8.0, llama.ParamsB)

	_, ok = LookupGPU("nonexistent")
	assert.False(t, ok)
}

func TestCatalogKeysSorted(t *testing.T) {
	keys := GPUKeys()
	require.NotEmpty(t, keys)
	assert.IsIncreasing(t, keys)

	models := ModelKeys()
	require.NotEmpty(t, models)
	assert.IsIncreasing(t, models)
	assert.Contains(t, models, "mistral_7b")
}
