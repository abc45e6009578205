package runtime

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is Config's on-disk shape: only the plain-data fields are
// loadable from YAML, since Logger is constructed in code, not
// deserialized (the same split the teacher draws between a constraint
// store's tunable parameters and the store itself).
type fileConfig struct {
	WorkerCount             int    `yaml:"worker_count"`
	CompileFailureThreshold uint32 `yaml:"compile_failure_threshold"`
	DefaultTraceVariables   bool   `yaml:"default_trace_variables"`
}

// LoadConfig reads a YAML file (worker_count, compile_failure_threshold,
// default_trace_variables) into a Config, leaving Logger unset so the
// caller can attach one after loading.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("runtime: reading config %q: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("runtime: parsing config %q: %w", path, err)
	}
	return Config{
		WorkerCount:             fc.WorkerCount,
		CompileFailureThreshold: fc.CompileFailureThreshold,
		DefaultTraceVariables:   fc.DefaultTraceVariables,
	}, nil
}
