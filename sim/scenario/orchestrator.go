package scenario

import (
	"github.com/sirupsen/logrus"

	"github.com/nik-tza/pmu-pdc-sim/sim"
	"github.com/nik-tza/pmu-pdc-sim/sim/pdc"
	"github.com/nik-tza/pmu-pdc-sim/sim/sink"
)

// Orchestrator receives grid-analysis descriptors from the collectors and
// runs them on their bound node. Measurement samples reaching the
// orchestrator bypass execution; the two task families are distinct types,
// so a completed analysis can never be mistaken for a new sample.
type Orchestrator struct {
	Engine *sim.Simulator
	Sink   sink.Sink
}

func (o *Orchestrator) Name() string { return "orchestrator" }

func (o *Orchestrator) ProcessEvent(ev *sim.Event) {
	switch ev.Tag {
	case sim.EventSendToOrch:
		a := ev.Payload.(*pdc.Analysis)
		o.Engine.Schedule(execTime(a), o, sim.EventAnalysisFinished, a)
	case sim.EventAnalysisFinished:
		o.finish(ev.Payload.(*pdc.Analysis))
	case sim.EventDataReceived:
		// PMU_DATA arriving here is accounting-only
		logrus.Debugf("orchestrator: measurement sample bypasses execution")
	default:
		logrus.Warnf("orchestrator: dropping unknown event %s", ev.Tag)
	}
}

// execTime converts the analysis compute length into seconds on the bound
// node. Nodes without compute capacity execute instantaneously.
func execTime(a *pdc.Analysis) float64 {
	capacity := float64(a.Node.Cores) * a.Node.MIPSPerCore
	if capacity <= 0 {
		return 0
	}
	return a.LengthMI / capacity
}

func (o *Orchestrator) finish(a *pdc.Analysis) {
	exec := execTime(a)
	total := a.FirstDataNetworkDelay + a.PDCWaitingTime + exec
	o.Sink.RecordAnalysis(sink.AnalysisRecord{
		Time:           o.Engine.Clock,
		TaskID:         a.ID,
		GNBID:          a.GNB.ID,
		Window:         a.Epoch,
		OnTime:         a.OnTime,
		Required:       a.Required,
		BatchType:      a.BatchType,
		InputDataKB:    a.InputBits / 8 / 1024,
		OutputDataKB:   a.OutputBits / 8 / 1024,
		MaxLatency:     a.MaxLatency,
		ComputationMI:  a.LengthMI,
		WaitTime:       0, // compute nodes are not contended in this model
		ExecTime:       exec,
		NetTime:        a.FirstDataNetworkDelay,
		TotalTime:      total,
		Status:         sink.StatusOK,
		PDCWaitingTime: a.PDCWaitingTime,
		Success:        a.MaxLatency <= 0 || total <= a.MaxLatency,
	})
}
