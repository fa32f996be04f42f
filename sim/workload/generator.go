package workload

import (
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/nik-tza/pmu-pdc-sim/sim"
	"github.com/nik-tza/pmu-pdc-sim/sim/topology"
)

// Generator pre-populates the scheduler with the full measurement stream:
// every PMU emits one sample per tick with identical generation time
// ("perfect synchronization"), for N·⌊D⌋·R samples total.
type Generator struct {
	App     sim.ApplicationConfig
	SizeRNG *rand.Rand // tasksize subsystem; used only with a nonzero payload stddev

	nextID int64
}

// NewGenerator creates a generator for the given application. sizeRNG may
// be nil when payload sizes are fixed.
func NewGenerator(app sim.ApplicationConfig, sizeRNG *rand.Rand) *Generator {
	return &Generator{App: app, SizeRNG: sizeRNG}
}

// Populate enqueues one SAMPLE_EMITTED event per (PMU, tick) targeting the
// network model. Sample k of second s has generation time s + k/R across
// all PMUs. Returns the number of samples enqueued.
//
// Generation times equal to the duration are clamped to duration − 0.1.
// IDs are assigned monotonically from a shared counter.
func (g *Generator) Populate(s *sim.Simulator, network sim.Entity, pmus []*topology.Node, duration float64) int {
	rate := g.App.Rate
	seconds := int(math.Floor(duration))
	count := 0
	for sec := 0; sec < seconds; sec++ {
		for k := 0; k < rate; k++ {
			genTime := float64(sec) + float64(k)/float64(rate)
			if genTime >= duration {
				genTime = duration - 0.1
			}
			for _, pmu := range pmus {
				sample := &Sample{
					ID:         g.nextID,
					GenTime:    genTime,
					Source:     pmu,
					SizeBits:   g.sampleSize(),
					AppID:      g.App.Name,
					MaxLatency: g.App.MaxLatency,
				}
				g.nextID++
				s.ScheduleAt(genTime, network, sim.EventSampleEmitted, sample)
				count++
			}
		}
	}
	logrus.Infof("generator: enqueued %d samples (%d PMUs x %d s x %d/s)",
		count, len(pmus), seconds, rate)
	return count
}

func (g *Generator) sampleSize() float64 {
	if g.SizeRNG == nil || g.App.PayloadStdDevBits <= 0 {
		return SampleSizeBits
	}
	size := SampleSizeBits + g.SizeRNG.NormFloat64()*g.App.PayloadStdDevBits
	return math.Max(1, math.Round(size))
}
