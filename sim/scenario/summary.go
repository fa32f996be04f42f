package scenario

import (
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

// LogSummary prints end-of-run aggregates: per-concentrator bucket counts
// and distribution statistics over network delays and waiting times.
func (s *Scenario) LogSummary() {
	for _, c := range s.Collectors {
		logrus.Infof("%s: buckets total=%d complete=%d timeout=%d late=%d misrouted=%d",
			c.Name(), c.Stats.TotalBuckets, c.Stats.CompleteBuckets,
			c.Stats.TimeoutBuckets, c.Stats.DroppedLate, c.Stats.RoutingDrops)
	}

	var delays []float64
	for _, t := range s.Sink.Transfers() {
		delays = append(delays, t.HopSum)
	}
	var waits []float64
	for _, a := range s.Sink.Analyses() {
		waits = append(waits, a.PDCWaitingTime)
	}
	logDistribution("network delay", delays)
	logDistribution("pdc waiting time", waits)
	if lost := s.Sink.LostRows(); lost > 0 {
		logrus.Warnf("%d output rows lost to sink errors", lost)
	}
}

func logDistribution(name string, xs []float64) {
	if len(xs) == 0 {
		logrus.Infof("%s: no observations", name)
		return
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	logrus.Infof("%s: n=%d mean=%.6fs p50=%.6fs p95=%.6fs",
		name, len(sorted),
		stat.Mean(sorted, nil),
		stat.Quantile(0.5, stat.Empirical, sorted, nil),
		stat.Quantile(0.95, stat.Empirical, sorted, nil))
}
