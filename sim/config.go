package sim

import "fmt"

// SimulationConfig carries the simulation properties. Field names keep the
// historical property keys as yaml tags.
type SimulationConfig struct {
	MinEdgeDevices int     `yaml:"min_number_of_edge_devices"`
	MaxEdgeDevices int     `yaml:"max_number_of_edge_devices"`
	SimulationTime float64 `yaml:"simulation_time"` // seconds
	Length         float64 `yaml:"length"`          // metres
	Width          float64 `yaml:"width"`           // metres

	EdgeDevicesRange        float64 `yaml:"edge_devices_range"`        // PMU coverage radius, informational
	EdgeDatacentersCoverage float64 `yaml:"edge_datacenters_coverage"` // GNB coverage radius, informational

	CellularBandwidth float64 `yaml:"cellular_bandwidth"` // bits/sec
	ManBandwidth      float64 `yaml:"man_bandwidth"`
	WanBandwidth      float64 `yaml:"wan_bandwidth"`
	CellularLatency   float64 `yaml:"cellular_latency"` // seconds
	ManLatency        float64 `yaml:"man_latency"`
	WanLatency        float64 `yaml:"wan_latency"`
	CellularJitterMs  float64 `yaml:"cellular_jitter_ms"` // σ in ms
	ManJitterMs       float64 `yaml:"man_jitter_ms"`
	WanJitterMs       float64 `yaml:"wan_jitter_ms"`

	// PmuPlacementSeed seeds PMU placement; -1 draws a time-derived seed
	// once at startup (logged so the run can be reproduced).
	PmuPlacementSeed int64 `yaml:"pmu_placement_seed"`

	// MaxWait is the PDC deadline horizon measured from the first arrival
	// of an epoch bucket, in seconds.
	MaxWait float64 `yaml:"max_wait"`
	// DrainDelay is the delay between a bucket's first arrival and its
	// drain event under the TSO placement. Zero selects the historical
	// 1 ms; per-GNB placements ignore it and drain at MaxWait.
	// Classification always uses firstArrival + MaxWait regardless of
	// when the drain fires.
	DrainDelay float64 `yaml:"drain_delay"`

	// PropagationDelayUsPerM is the distance propagation constant k in
	// µs per metre. Zero means the scenario default (4 for V1/V2, 30 for V3).
	PropagationDelayUsPerM float64 `yaml:"propagation_delay_us_per_m"`

	// GridAnalysisLengthMI is the compute length of one grid-analysis
	// task in million instructions. Zero means the 15000 MI default.
	GridAnalysisLengthMI float64 `yaml:"grid_analysis_length_mi"`
}

// PMUCount returns the configured fleet size. Min and max are kept as two
// keys for compatibility but must agree.
func (c *SimulationConfig) PMUCount() int {
	return c.MinEdgeDevices
}

// Validate checks the simulation properties for fatal configuration errors.
func (c *SimulationConfig) Validate() error {
	if c.MinEdgeDevices != c.MaxEdgeDevices {
		return fmt.Errorf("config: min_number_of_edge_devices (%d) must equal max_number_of_edge_devices (%d)",
			c.MinEdgeDevices, c.MaxEdgeDevices)
	}
	if c.MinEdgeDevices <= 0 {
		return fmt.Errorf("config: need at least one edge device, got %d", c.MinEdgeDevices)
	}
	if c.SimulationTime <= 0 {
		return fmt.Errorf("config: simulation_time must be positive, got %v", c.SimulationTime)
	}
	if c.Length <= 0 || c.Width <= 0 {
		return fmt.Errorf("config: simulation area must be positive, got %vx%v", c.Width, c.Length)
	}
	for _, bw := range []struct {
		key string
		val float64
	}{
		{"cellular_bandwidth", c.CellularBandwidth},
		{"man_bandwidth", c.ManBandwidth},
		{"wan_bandwidth", c.WanBandwidth},
	} {
		if bw.val <= 0 {
			return fmt.Errorf("config: %s must be positive, got %v", bw.key, bw.val)
		}
	}
	if c.MaxWait <= 0 {
		return fmt.Errorf("config: max_wait must be positive, got %v", c.MaxWait)
	}
	return nil
}

// DatacenterConfig describes one edge or cloud datacenter from the
// topology document.
type DatacenterConfig struct {
	ID      int     `yaml:"id"`
	Name    string  `yaml:"name"`
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
	Cores   int     `yaml:"cores"`
	MIPS    float64 `yaml:"mips"` // per core
	RAM     int64   `yaml:"ram"`
	Storage int64   `yaml:"storage"`
}

// TopologyConfig lists the fixed infrastructure. The TELCO hub is the edge
// datacenter with the reserved name "TELCO"; every other edge entry is a
// GNB. The cloud datacenter named "TSO" hosts the V1 concentrator.
type TopologyConfig struct {
	EdgeDatacenters  []DatacenterConfig `yaml:"edge_datacenters"`
	CloudDatacenters []DatacenterConfig `yaml:"cloud_datacenters"`
}

// ApplicationConfig describes the single PMU_Data application mapped onto
// every measurement sample.
type ApplicationConfig struct {
	Name            string  `yaml:"name"`
	Rate            int     `yaml:"rate"`    // samples per second per PMU
	MaxLatency      float64 `yaml:"latency"` // max-latency hint, seconds
	ContainerSizeKB float64 `yaml:"container_size"`
	// PayloadStdDevBits varies sample payload sizes around the 2 KB
	// nominal. Zero keeps every sample at exactly 16384 bits.
	PayloadStdDevBits float64 `yaml:"payload_stddev_bits"`
}

// Validate checks the application document.
func (a *ApplicationConfig) Validate() error {
	if a.Name != "PMU_Data" {
		return fmt.Errorf("config: expected application PMU_Data, got %q", a.Name)
	}
	if a.Rate <= 0 {
		return fmt.Errorf("config: application rate must be positive, got %d", a.Rate)
	}
	return nil
}
