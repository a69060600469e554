// Package metrics aggregates running execution statistics per operation name
// and mirrors them into Prometheus collectors for scraping.
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OperationStats is a point-in-time snapshot for one operation name.
type OperationStats struct {
	Name                   string    `json:"name"`
	ExecutionCount         int64     `json:"execution_count"`
	AverageExecutionTimeMs float64   `json:"average_execution_time_ms"`
	TotalErrors            int64     `json:"total_errors"`
	ErrorRate              float64   `json:"error_rate"`
	LastExecution          time.Time `json:"last_execution"`
}

type opState struct {
	count   int64
	totalMs float64
	errors  int64
	last    time.Time
}

// Recorder keeps per-operation counters for the process lifetime. All updates
// happen under a single mutex so concurrent executions of the same operation
// name never lose an increment or average contribution.
type Recorder struct {
	mu  sync.RWMutex
	ops map[string]*opState

	executions *prometheus.CounterVec
	errTotal   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewRecorder creates an empty recorder with its Prometheus mirrors.
func NewRecorder() *Recorder {
	return &Recorder{
		ops: make(map[string]*opState),
		executions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "contenthooks",
				Subsystem: "hooks",
				Name:      "executions_total",
				Help:      "Total number of hook executions",
			},
			[]string{"operation", "status"},
		),
		errTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "contenthooks",
				Subsystem: "hooks",
				Name:      "errors_total",
				Help:      "Total number of failed hook executions",
			},
			[]string{"operation"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "contenthooks",
				Subsystem: "hooks",
				Name:      "duration_seconds",
				Help:      "Hook execution duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// Register registers the Prometheus mirrors with reg.
func (r *Recorder) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{r.executions, r.errTotal, r.duration} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Record folds one execution into the stats for op.
func (r *Recorder) Record(op string, d time.Duration, success bool) {
	r.mu.Lock()
	st, ok := r.ops[op]
	if !ok {
		st = &opState{}
		r.ops[op] = st
	}
	st.count++
	st.totalMs += float64(d.Milliseconds())
	if !success {
		st.errors++
	}
	st.last = time.Now()
	r.mu.Unlock()

	status := "success"
	if !success {
		status = "error"
		r.errTotal.WithLabelValues(op).Inc()
	}
	r.executions.WithLabelValues(op, status).Inc()
	r.duration.WithLabelValues(op).Observe(d.Seconds())
}

// Snapshot returns the stats for one operation name.
func (r *Recorder) Snapshot(op string) (OperationStats, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.ops[op]
	if !ok {
		return OperationStats{}, false
	}
	return st.snapshot(op), true
}

// All returns snapshots for every recorded operation, sorted by name.
func (r *Recorder) All() []OperationStats {
	r.mu.RLock()
	out := make([]OperationStats, 0, len(r.ops))
	for name, st := range r.ops {
		out = append(out, st.snapshot(name))
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SlowOperations returns operations whose average execution time exceeds
// threshold, ordered by descending average.
func (r *Recorder) SlowOperations(threshold time.Duration) []OperationStats {
	limit := float64(threshold.Milliseconds())

	r.mu.RLock()
	var out []OperationStats
	for name, st := range r.ops {
		s := st.snapshot(name)
		if s.AverageExecutionTimeMs > limit {
			out = append(out, s)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].AverageExecutionTimeMs > out[j].AverageExecutionTimeMs
	})
	return out
}

func (st *opState) snapshot(name string) OperationStats {
	s := OperationStats{
		Name:           name,
		ExecutionCount: st.count,
		TotalErrors:    st.errors,
		LastExecution:  st.last,
	}
	if st.count > 0 {
		s.AverageExecutionTimeMs = st.totalMs / float64(st.count)
		s.ErrorRate = float64(st.errors) / float64(st.count)
	}
	return s
}
