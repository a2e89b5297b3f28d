// Package metrics exports shelf activity to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talgya/magnetar/internal/event"
	"github.com/talgya/magnetar/internal/magnetar"
)

// Recorder counts shelf events and tracks shelf gauges. It implements
// event.Recorder.
type Recorder struct {
	reg *prometheus.Registry

	events        *prometheus.CounterVec
	frameDuration prometheus.Histogram
	yPos          prometheus.Gauge
	cells         prometheus.Gauge
	held          prometheus.Gauge
	pending       prometheus.Gauge
	dragging      prometheus.Gauge
}

// New creates a recorder on its own registry.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "magnetar_events_total",
				Help: "Shelf events by kind",
			},
			[]string{"kind"},
		),
		frameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "magnetar_frame_duration_seconds",
			Help:    "Wall time spent running one frame",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		yPos: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "magnetar_y_pos",
			Help: "Committed vertical offset of the stack",
		}),
		cells: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "magnetar_cells",
			Help: "Number of cells in the stack",
		}),
		held: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "magnetar_objects_held",
			Help: "Objects captured across all cells",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "magnetar_objects_pending",
			Help: "Objects waiting for an inactive cell",
		}),
		dragging: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "magnetar_dragging",
			Help: "1 while an input is dragging the stack",
		}),
	}
	r.reg.MustRegister(
		r.events, r.frameDuration,
		r.yPos, r.cells, r.held, r.pending, r.dragging,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Record implements event.Recorder.
func (r *Recorder) Record(e event.Event) {
	r.events.WithLabelValues(string(e.Kind)).Inc()
}

// ObserveFrame records how long a frame took.
func (r *Recorder) ObserveFrame(d time.Duration) {
	r.frameDuration.Observe(d.Seconds())
}

// ObserveShelf updates the gauges from a snapshot.
func (r *Recorder) ObserveShelf(s magnetar.Snapshot) {
	r.yPos.Set(float64(s.YPos))
	r.cells.Set(float64(len(s.Cells)))

	var held, pending int
	for _, c := range s.Cells {
		held += len(c.Held)
		pending += len(c.Pending)
	}
	r.held.Set(float64(held))
	r.pending.Set(float64(pending))

	if s.Dragging {
		r.dragging.Set(1)
	} else {
		r.dragging.Set(0)
	}
}

// Registry returns the registry the recorder reports to.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
