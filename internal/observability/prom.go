package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// family is one Prometheus metric with optional labels. Series keys are the
// rendered label sets so exposition needs no extra bookkeeping.
type family struct {
	name       string
	help       string
	kind       string
	labelNames []string

	mu     sync.RWMutex
	values map[string]float64
}

func newFamily(name, help, kind string, labels []string) *family {
	return &family{name: name, help: help, kind: kind, labelNames: labels, values: map[string]float64{}}
}

func (f *family) add(v float64, labels ...string) {
	if f == nil {
		return
	}
	key := labelString(f.labelNames, labels)
	f.mu.Lock()
	f.values[key] += v
	f.mu.Unlock()
}

func (f *family) set(v float64, labels ...string) {
	if f == nil {
		return
	}
	key := labelString(f.labelNames, labels)
	f.mu.Lock()
	f.values[key] = v
	f.mu.Unlock()
}

func (f *family) value(labels ...string) float64 {
	if f == nil {
		return 0
	}
	key := labelString(f.labelNames, labels)
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.values[key]
}

func writeHeader(w io.Writer, name, help, kind string) error {
	_, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, kind)
	return err
}

func (f *family) WritePrometheus(w io.Writer) error {
	if f == nil {
		return nil
	}
	if err := writeHeader(w, f.name, f.help, f.kind); err != nil {
		return err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, k := range sortedKeys(f.values) {
		if _, err := fmt.Fprintf(w, "%s%s %g\n", f.name, k, f.values[k]); err != nil {
			return err
		}
	}
	return nil
}

// CounterVec only goes up.
type CounterVec struct{ *family }

func NewCounterVec(name, help string, labels []string) *CounterVec {
	return &CounterVec{newFamily(name, help, "counter", labels)}
}

func (c *CounterVec) Inc(labels ...string) { c.add(1, labels...) }

func (c *CounterVec) Value(labels ...string) float64 { return c.value(labels...) }

type GaugeVec struct{ *family }

func NewGaugeVec(name, help string, labels []string) *GaugeVec {
	return &GaugeVec{newFamily(name, help, "gauge", labels)}
}

func (g *GaugeVec) Set(v float64, labels ...string) { g.set(v, labels...) }
func (g *GaugeVec) Add(v float64, labels ...string) { g.add(v, labels...) }

func (g *GaugeVec) Value(labels ...string) float64 { return g.value(labels...) }

type HistogramVec struct {
	name       string
	help       string
	labelNames []string
	buckets    []float64

	mu     sync.RWMutex
	series map[string]*histogram
}

type histogram struct {
	counts []uint64 // cumulative, last entry is +Inf
	sum    float64
}

func NewHistogramVec(name, help string, labels []string, buckets []float64) *HistogramVec {
	if len(buckets) == 0 {
		buckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}
	}
	return &HistogramVec{name: name, help: help, labelNames: labels, buckets: buckets, series: map[string]*histogram{}}
}

func (h *HistogramVec) Observe(v float64, labels ...string) {
	if h == nil {
		return
	}
	key := labelString(h.labelNames, labels)
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.series[key]
	if !ok {
		s = &histogram{counts: make([]uint64, len(h.buckets)+1)}
		h.series[key] = s
	}
	s.sum += v
	for i, b := range h.buckets {
		if v <= b {
			s.counts[i]++
		}
	}
	s.counts[len(h.buckets)]++
}

func (h *HistogramVec) WritePrometheus(w io.Writer) error {
	if h == nil {
		return nil
	}
	if err := writeHeader(w, h.name, h.help, "histogram"); err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, k := range sortedKeys(h.series) {
		s := h.series[k]
		for i, b := range h.buckets {
			if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, fmt.Sprintf("%g", b)), s.counts[i]); err != nil {
				return err
			}
		}
		total := s.counts[len(h.buckets)]
		if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n%s_sum%s %g\n%s_count%s %d\n",
			h.name, withLe(k, "+Inf"), total, h.name, k, s.sum, h.name, k, total); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func labelString(names, values []string) string {
	if len(names) == 0 {
		return ""
	}
	parts := make([]string, len(names))
	for i, name := range names {
		val := "unknown"
		if i < len(values) && values[i] != "" {
			val = values[i]
		}
		parts[i] = name + `="` + escapeLabel(val) + `"`
	}
	return "{" + strings.Join(parts, ",") + "}"
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func escapeLabel(v string) string { return labelEscaper.Replace(v) }

func withLe(labels, le string) string {
	if labels == "" {
		return `{le="` + le + `"}`
	}
	return strings.TrimSuffix(labels, "}") + `,le="` + le + `"}`
}
