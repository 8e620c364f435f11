// Package refdata holds the static, read-only reference data: accelerator
// and model catalogs for UI presets, and the pre-resolved council traces for
// known benchmark configurations. Nothing here ever changes at runtime.
package refdata

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// GPUProfile describes one accelerator preset.
type GPUProfile struct {
	Name              string  `yaml:"name"`
	VRAMGB            float64 `yaml:"vram_gb"`
	RAMGB             float64 `yaml:"ram_gb"`
	ComputeCapability string  `yaml:"compute_capability"`
	FP16TFLOPS        float64 `yaml:"fp16_tflops"`
	Description       string  `yaml:"description"`
}

// ModelProfile describes one model preset.
type ModelProfile struct {
	Name    string  `yaml:"name"`
	ParamsB float64 `yaml:"params_b"`
	Family  string  `yaml:"family"`
}

type catalog struct {
	GPUs   map[string]GPUProfile   `yaml:"gpus"`
	Models map[string]ModelProfile `yaml:"models"`
}

var loaded catalog

func init() {
	if err := yaml.Unmarshal(catalogYAML, &loaded); err != nil {
		panic(fmt.Sprintf("refdata: embedded catalog is invalid: %v", err))
	}
}

// GPUProfiles returns the accelerator catalog keyed by preset id.
func GPUProfiles() map[string]GPUProfile { return loaded.GPUs }

// ModelProfiles returns the model catalog keyed by preset id.
func ModelProfiles() map[string]ModelProfile { return loaded.Models }

// LookupGPU returns the profile for a preset id.
func LookupGPU(key string) (GPUProfile, bool) {
	p, ok := loaded.GPUs[key]
	return p, ok
}

// LookupModel returns the profile for a preset id.
func LookupModel(key string) (ModelProfile, bool) {
	p, ok := loaded.Models[key]
	return p, ok
}

// GPUKeys returns the preset ids in sorted order, for stable CLI listings.
func GPUKeys() []string {
	keys := make([]string, 0, len(loaded.GPUs))
	for k := range loaded.GPUs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ModelKeys returns the model preset ids in sorted order.
func ModelKeys() []string {
	keys := make([]string, 0, len(loaded.Models))
	for k := range loaded.Models {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
