package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"
)

// layerOrder fixes the row order of the network-usage file.
var layerOrder = []string{LayerPMUToGNB, LayerGNBToTelco, LayerTelcoToGNB, LayerTelcoToTSO}

// CSVSink buffers rows in memory and writes three CSV files on Flush:
// pmu_data.csv, grid_analysis.csv, and network_usage.csv. Write failures
// are logged, the affected rows are counted as lost, and the run continues.
type CSVSink struct {
	Dir        string
	IncludeGNB bool // emit the GNBID column (per-GNB concentrator placements)

	transfers []TransferRecord
	analyses  []AnalysisRecord
	usage     map[string]*LayerUsage
	lostRows  int
}

// NewCSVSink creates a sink writing under dir.
func NewCSVSink(dir string, includeGNB bool) *CSVSink {
	return &CSVSink{
		Dir:        dir,
		IncludeGNB: includeGNB,
		usage:      make(map[string]*LayerUsage),
	}
}

func (s *CSVSink) RecordTransfer(r TransferRecord) {
	s.transfers = append(s.transfers, r)
}

func (s *CSVSink) RecordAnalysis(r AnalysisRecord) {
	s.analyses = append(s.analyses, r)
}

func (s *CSVSink) AddNetworkUsage(layer string, kb float64) {
	u, ok := s.usage[layer]
	if !ok {
		u = &LayerUsage{}
		s.usage[layer] = u
	}
	u.TotalKB += kb
	u.Count++
}

// Transfers returns the buffered PMU-data rows.
func (s *CSVSink) Transfers() []TransferRecord { return s.transfers }

// Analyses returns the buffered grid-analysis rows.
func (s *CSVSink) Analyses() []AnalysisRecord { return s.analyses }

// Usage returns the per-layer accumulated load.
func (s *CSVSink) Usage() map[string]*LayerUsage { return s.usage }

// LostRows returns how many rows could not be written out.
func (s *CSVSink) LostRows() int { return s.lostRows }

// Flush writes all buffered rows under Dir, creating it if needed.
func (s *CSVSink) Flush() error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		s.lostRows += len(s.transfers) + len(s.analyses) + len(s.usage)
		logrus.Errorf("sink: cannot create output dir %s: %v (%d rows lost)", s.Dir, err, s.lostRows)
		return fmt.Errorf("creating output dir: %w", err)
	}
	s.writeFile("pmu_data.csv", s.transferRows())
	s.writeFile("grid_analysis.csv", s.analysisRows())
	s.writeFile("network_usage.csv", s.usageRows())
	return nil
}

func (s *CSVSink) writeFile(name string, rows [][]string) {
	path := filepath.Join(s.Dir, name)
	f, err := os.Create(path)
	if err != nil {
		s.lostRows += len(rows) - 1
		logrus.Errorf("sink: cannot create %s: %v (%d rows lost)", path, err, len(rows)-1)
		return
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		s.lostRows += len(rows) - 1
		logrus.Errorf("sink: writing %s: %v (%d rows lost)", path, err, len(rows)-1)
	}
	if err := f.Close(); err != nil {
		logrus.Errorf("sink: closing %s: %v", path, err)
	}
}

func (s *CSVSink) transferRows() [][]string {
	rows := [][]string{{"Time", "PmuID", "PmuCoordinates", "DataSize", "Path", "HopSum", "Status"}}
	for _, r := range s.transfers {
		rows = append(rows, []string{
			formatSeconds(r.Time),
			strconv.Itoa(r.PmuID),
			r.PmuCoordinates,
			formatFloat(r.DataSizeBits),
			r.Path,
			formatSeconds(r.HopSum),
			string(r.Status),
		})
	}
	return rows
}

func (s *CSVSink) analysisRows() [][]string {
	header := []string{"Time", "TaskID"}
	if s.IncludeGNB {
		header = append(header, "GNBID")
	}
	header = append(header, "Window", "Coverage", "BatchType", "InputDataKB", "OutputDataKB",
		"MaxLatency", "ComputationMI", "WaitTime", "ExecTime", "NetTime", "TotalTime",
		"Status", "PDCWaitingTime", "SuccessFlag")
	rows := [][]string{header}
	for _, r := range s.analyses {
		row := []string{formatSeconds(r.Time), strconv.FormatInt(r.TaskID, 10)}
		if s.IncludeGNB {
			row = append(row, strconv.Itoa(r.GNBID))
		}
		success := "0"
		if r.Success {
			success = "1"
		}
		row = append(row,
			formatSeconds(r.Window),
			fmt.Sprintf("%d/%d", r.OnTime, r.Required),
			string(r.BatchType),
			formatFloat(r.InputDataKB),
			formatFloat(r.OutputDataKB),
			formatSeconds(r.MaxLatency),
			formatFloat(r.ComputationMI),
			formatSeconds(r.WaitTime),
			formatSeconds(r.ExecTime),
			formatSeconds(r.NetTime),
			formatSeconds(r.TotalTime),
			string(r.Status),
			formatSeconds(r.PDCWaitingTime),
			success,
		)
		rows = append(rows, row)
	}
	return rows
}

func (s *CSVSink) usageRows() [][]string {
	rows := [][]string{{"Layer", "TotalKB", "TransferCount", "AverageKB"}}
	for _, layer := range layerOrder {
		u, ok := s.usage[layer]
		if !ok {
			continue
		}
		avg := 0.0
		if u.Count > 0 {
			avg = u.TotalKB / float64(u.Count)
		}
		rows = append(rows, []string{
			layer,
			formatFloat(u.TotalKB),
			strconv.Itoa(u.Count),
			formatFloat(avg),
		})
	}
	return rows
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 9, 64)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
