package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/nik-tza/pmu-pdc-sim/sim"
	"github.com/nik-tza/pmu-pdc-sim/sim/netmodel"
	"github.com/nik-tza/pmu-pdc-sim/sim/scenario"
)

// applicationsDoc matches the applications yaml document: a list so more
// applications can be declared, of which at least one must be PMU_Data;
// the first PMU_Data entry is used.
type applicationsDoc struct {
	Applications []sim.ApplicationConfig `yaml:"applications"`
}

func loadScenarioConfig(variant netmodel.Variant, dir string) (scenario.Config, error) {
	cfg := scenario.Config{Variant: variant}

	if err := loadYAML(filepath.Join(dir, "simulation_parameters.yaml"), &cfg.Sim); err != nil {
		return cfg, err
	}
	if err := loadYAML(filepath.Join(dir, "topology.yaml"), &cfg.Topo); err != nil {
		return cfg, err
	}

	var apps applicationsDoc
	if err := loadYAML(filepath.Join(dir, "applications.yaml"), &apps); err != nil {
		return cfg, err
	}
	found := false
	for _, app := range apps.Applications {
		if app.Name == "PMU_Data" {
			cfg.App = app
			found = true
			break
		}
	}
	if !found {
		return cfg, fmt.Errorf("config: no PMU_Data application declared")
	}
	return cfg, nil
}

func loadYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
