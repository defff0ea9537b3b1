package pipe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nf/ic/intcode"
)

// Metrics counts machine activity. A nil *Metrics records nothing.
type Metrics struct {
	Instructions *prometheus.CounterVec
	Values       *prometheus.CounterVec
	Halts        *prometheus.CounterVec
	Running      prometheus.Gauge
}

// NewMetrics creates the counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Instructions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ic_instructions_total",
			Help: "Instructions executed, by machine.",
		}, []string{"machine"}),
		Values: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ic_port_values_total",
			Help: "Values accepted by a port, by port.",
		}, []string{"port"}),
		Halts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ic_halts_total",
			Help: "Machine runs that ended, by machine and result (halt or fault).",
		}, []string{"machine", "result"}),
		Running: f.NewGauge(prometheus.GaugeOpts{
			Name: "ic_machines_running",
			Help: "Machines currently executing.",
		}),
	}
}

func (m *Metrics) start() {
	if m == nil {
		return
	}
	m.Running.Inc()
}

// finish records a completed run. The step count is cumulative since the
// last Reset, so callers pass the count not yet recorded.
func (m *Metrics) finish(name string, steps int64, err error) {
	if m == nil {
		return
	}
	m.Running.Dec()
	m.Instructions.WithLabelValues(name).Add(float64(steps))
	result := "halt"
	if err != nil {
		result = "fault"
	}
	m.Halts.WithLabelValues(name, result).Inc()
}

func (m *Metrics) port(p *Port) {
	if m == nil || p == nil {
		return
	}
	m.Values.WithLabelValues(p.String()).Add(float64(p.Sent()))
}

func (m *Metrics) observe(name string, mc *intcode.Machine, err error) {
	m.finish(name, mc.Steps, err)
}
