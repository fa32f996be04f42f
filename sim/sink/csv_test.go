package sink

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVSink_FlushWritesThreeFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVSink(dir, true)
	s.RecordTransfer(TransferRecord{Time: 1.0, PmuID: 3, PmuCoordinates: "(10.0;20.0)",
		DataSizeBits: 16384, Path: "PMU_3 --CELLULAR(0.010000s;50.0m)--> GNB_1", HopSum: 0.01, Status: StatusOK})
	s.RecordAnalysis(AnalysisRecord{Time: 1.1, TaskID: 10000, GNBID: 1, Window: 1.0,
		OnTime: 2, Required: 2, BatchType: BatchComplete, InputDataKB: 4, OutputDataKB: 50,
		MaxLatency: 0.1, ComputationMI: 15000, ExecTime: 0.05, NetTime: 0.01,
		TotalTime: 0.08, Status: StatusOK, PDCWaitingTime: 0.02, Success: true})
	s.AddNetworkUsage(LayerPMUToGNB, 2)
	require.NoError(t, s.Flush())

	for _, name := range []string{"pmu_data.csv", "grid_analysis.csv", "network_usage.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	assert.Equal(t, 0, s.LostRows())
}

func TestCSVSink_PMUDataColumns(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVSink(dir, false)
	s.RecordTransfer(TransferRecord{Time: 0.5, PmuID: 7, PmuCoordinates: "(1.0;2.0)",
		DataSizeBits: 16384, Path: "p", HopSum: 0.25, Status: StatusDeadlineMissed})
	require.NoError(t, s.Flush())

	rows := readCSV(t, filepath.Join(dir, "pmu_data.csv"))
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Time", "PmuID", "PmuCoordinates", "DataSize", "Path", "HopSum", "Status"}, rows[0])
	assert.Equal(t, "7", rows[1][1])
	assert.Equal(t, "DEADLINE_MISSED", rows[1][6])
	assert.Equal(t, "0.250000000", rows[1][5])
}

func TestCSVSink_GNBColumnOnlyForPerGNBPlacements(t *testing.T) {
	rec := AnalysisRecord{TaskID: 10000, GNBID: 4, OnTime: 1, Required: 2, BatchType: BatchTimeout}

	with := NewCSVSink(t.TempDir(), true)
	with.RecordAnalysis(rec)
	require.NoError(t, with.Flush())
	rows := readCSV(t, filepath.Join(with.Dir, "grid_analysis.csv"))
	assert.Equal(t, "GNBID", rows[0][2])
	assert.Equal(t, "4", rows[1][2])
	assert.Contains(t, rows[1], "1/2")
	assert.Contains(t, rows[1], "TIMEOUT")

	without := NewCSVSink(t.TempDir(), false)
	without.RecordAnalysis(rec)
	require.NoError(t, without.Flush())
	rows = readCSV(t, filepath.Join(without.Dir, "grid_analysis.csv"))
	assert.NotContains(t, rows[0], "GNBID")
	assert.Equal(t, "Window", rows[0][2])
}

func TestCSVSink_NetworkUsageAggregates(t *testing.T) {
	s := NewCSVSink(t.TempDir(), true)
	s.AddNetworkUsage(LayerPMUToGNB, 2)
	s.AddNetworkUsage(LayerPMUToGNB, 2)
	s.AddNetworkUsage(LayerPMUToGNB, 2)
	s.AddNetworkUsage(LayerTelcoToTSO, 2)

	u := s.Usage()
	require.Contains(t, u, LayerPMUToGNB)
	assert.Equal(t, 3, u[LayerPMUToGNB].Count)
	assert.Equal(t, 6.0, u[LayerPMUToGNB].TotalKB)

	require.NoError(t, s.Flush())
	rows := readCSV(t, filepath.Join(s.Dir, "network_usage.csv"))
	require.Len(t, rows, 3)
	// layer rows keep the fixed PMU→cloud order
	assert.Equal(t, LayerPMUToGNB, rows[1][0])
	assert.Equal(t, LayerTelcoToTSO, rows[2][0])
	assert.Equal(t, "2", rows[2][3]) // average KB
}

func TestCSVSink_UnwritableDirCountsLostRows(t *testing.T) {
	s := NewCSVSink(filepath.Join("/proc", "nope", "out"), true)
	s.RecordTransfer(TransferRecord{PmuID: 1})
	err := s.Flush()
	assert.Error(t, err)
	assert.Greater(t, s.LostRows(), 0)
}

func TestCSVSink_SuccessFlagEncoding(t *testing.T) {
	s := NewCSVSink(t.TempDir(), false)
	s.RecordAnalysis(AnalysisRecord{TaskID: 10000, Success: true})
	s.RecordAnalysis(AnalysisRecord{TaskID: 10001, Success: false})
	require.NoError(t, s.Flush())

	rows := readCSV(t, filepath.Join(s.Dir, "grid_analysis.csv"))
	require.Len(t, rows, 3)
	last := len(rows[0]) - 1
	assert.Equal(t, "SuccessFlag", rows[0][last])
	assert.Equal(t, "1", rows[1][last])
	assert.Equal(t, "0", rows[2][last])
}
