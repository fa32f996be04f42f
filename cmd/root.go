// cmd/root.go
package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nik-tza/pmu-pdc-sim/sim/netmodel"
	"github.com/nik-tza/pmu-pdc-sim/sim/scenario"
)

var (
	configDir string
	outputDir string
	seed      int64
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "pmu-pdc-sim",
	Short: "Discrete-event simulator for PMU-to-PDC smart-grid telemetry",
}

func newScenarioCmd(variant netmodel.Variant, short string) *cobra.Command {
	return &cobra.Command{
		Use:   strings.ToLower(string(variant)),
		Short: short,
		Run: func(cmd *cobra.Command, args []string) {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				logrus.Fatalf("Invalid log level: %s", logLevel)
			}
			logrus.SetLevel(level)
			runScenario(variant, cmd)
		},
	}
}

func runScenario(variant netmodel.Variant, cmd *cobra.Command) {
	cfg, err := loadScenarioConfig(variant, configDir)
	if err != nil {
		logrus.Fatalf("Configuration error: %v", err)
	}
	if cmd.Flags().Changed("seed") {
		cfg.Sim.PmuPlacementSeed = seed
	}
	cfg.OutputDir = outputDir
	if cfg.OutputDir == "" {
		cfg.OutputDir = filepath.Join(strings.ToLower(string(variant)), "output",
			time.Now().Format("2006-01-02_15-04-05"))
	}

	s, err := scenario.New(cfg)
	if err != nil {
		logrus.Fatalf("Initialization error: %v", err)
	}
	if err := s.Run(); err != nil {
		logrus.Errorf("%v", err)
		os.Exit(1)
	}
	logrus.Infof("Simulation complete, output in %s", cfg.OutputDir)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "config", "Directory holding the yaml configuration documents")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output", "", "Output directory override (default <scenario>/output/<timestamp>)")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "Override pmu_placement_seed from the configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newScenarioCmd(netmodel.V1, "Run with UPF at TELCO and the concentrator at the TSO cloud"))
	rootCmd.AddCommand(newScenarioCmd(netmodel.V2, "Run with UPF at TELCO and one concentrator per GNB"))
	rootCmd.AddCommand(newScenarioCmd(netmodel.V3, "Run with UPF and concentrator at each GNB"))
}
