// Package sink buffers structured simulation output in memory and flushes
// it to CSV files on shutdown. It stores pure data types and has no
// dependencies on the simulation packages.
package sink

// Status classifies one sample arrival at a concentrator.
type Status string

const (
	StatusOK             Status = "OK"
	StatusDeadlineMissed Status = "DEADLINE_MISSED"
)

// BatchType classifies how an epoch's collection window closed.
type BatchType string

const (
	// BatchComplete means every expected arrival was in before the deadline.
	BatchComplete BatchType = "COMPLETE"
	// BatchTimeout means the window closed with arrivals missing.
	BatchTimeout BatchType = "TIMEOUT"
)

// Network layers charged by the per-hop accounting.
const (
	LayerPMUToGNB   = "PMU->GNB"
	LayerGNBToTelco = "GNB->TELCO"
	LayerTelcoToGNB = "TELCO->GNB"
	LayerTelcoToTSO = "TELCO->TSO"
)

// TransferRecord is one row of the PMU-data stream: a single sample
// arrival, on-time or late.
type TransferRecord struct {
	Time           float64 // sample generation time
	PmuID          int
	PmuCoordinates string
	DataSizeBits   float64
	Path           string
	HopSum         float64 // total network delay, seconds
	Status         Status
}

// AnalysisRecord is one row of the grid-analysis stream: a completed
// grid-analysis task.
type AnalysisRecord struct {
	Time           float64 // completion time
	TaskID         int64
	GNBID          int     // concentrator GNB; closest GNB of the first on-time sample for the TSO placement
	Window         float64 // epoch, seconds
	OnTime         int
	Required       int
	BatchType      BatchType
	InputDataKB    float64
	OutputDataKB   float64
	MaxLatency     float64
	ComputationMI  float64
	WaitTime       float64 // time spent queued at the compute node
	ExecTime       float64
	NetTime        float64 // network delay of the first on-time sample
	TotalTime      float64 // NetTime + PDCWaitingTime + ExecTime
	Status         Status
	PDCWaitingTime float64
	Success        bool // TotalTime within the application latency hint
}

// LayerUsage accumulates per-layer network load.
type LayerUsage struct {
	TotalKB float64
	Count   int
}

// Sink receives structured events and metrics from the simulation
// entities. Implementations buffer rows in memory; Flush writes them out.
type Sink interface {
	RecordTransfer(TransferRecord)
	RecordAnalysis(AnalysisRecord)
	AddNetworkUsage(layer string, kb float64)
	Flush() error
}
