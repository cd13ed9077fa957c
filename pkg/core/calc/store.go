package calc

import (
	"sort"

	"finreport_analyzer/pkg/core/fields"
)

// Entry is one raw label/value pair as it came out of a document.
type Entry struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// MetricStore maps canonical fields (or unrecognized passthrough labels) to
// values. It is immutable once built.
type MetricStore struct {
	values       map[string]float64
	sources      map[string]string
	unrecognized []string
}

// NewMetricStore resolves every label and keeps the last value written for
// each key.
func NewMetricStore(entries []Entry) *MetricStore {
	s, _ := build(entries, false)
	return s
}

// NewMetricStoreFromMap builds a store from an unordered mapping. Keys are
// visited in sorted order so collisions resolve the same way on every run.
func NewMetricStoreFromMap(raw map[string]float64) *MetricStore {
	return NewMetricStore(entriesFromMap(raw))
}

// NewStrictMetricStore fails with a *CollisionError when two labels resolve
// to the same key.
func NewStrictMetricStore(entries []Entry) (*MetricStore, error) {
	return build(entries, true)
}

// NewStrictMetricStoreFromMap is NewStrictMetricStore over an unordered
// mapping, visited in sorted label order.
func NewStrictMetricStoreFromMap(raw map[string]float64) (*MetricStore, error) {
	return build(entriesFromMap(raw), true)
}

func entriesFromMap(raw map[string]float64) []Entry {
	labels := make([]string, 0, len(raw))
	for l := range raw {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	entries := make([]Entry, 0, len(labels))
	for _, l := range labels {
		entries = append(entries, Entry{Label: l, Value: raw[l]})
	}
	return entries
}

func build(entries []Entry, strict bool) (*MetricStore, error) {
	s := &MetricStore{
		values:  make(map[string]float64, len(entries)),
		sources: make(map[string]string, len(entries)),
	}
	seenUnknown := make(map[string]bool)

	for _, e := range entries {
		key := fields.Resolve(e.Label)
		if prev, ok := s.sources[key]; ok && strict {
			return nil, &CollisionError{Key: key, First: prev, Second: e.Label}
		}
		s.values[key] = e.Value
		s.sources[key] = e.Label
		if !fields.IsCanonical(key) && !seenUnknown[key] {
			seenUnknown[key] = true
			s.unrecognized = append(s.unrecognized, key)
		}
	}
	return s, nil
}

// Get returns the value stored under key.
func (s *MetricStore) Get(key string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	v, ok := s.values[key]
	return v, ok
}

// Has reports whether key is present.
func (s *MetricStore) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Len is the number of distinct keys.
func (s *MetricStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

// Keys lists every key in sorted order.
func (s *MetricStore) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values returns a copy of the underlying mapping.
func (s *MetricStore) Values() map[string]float64 {
	out := make(map[string]float64, s.Len())
	if s == nil {
		return out
	}
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Source returns the raw label that produced the value under key.
func (s *MetricStore) Source(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	l, ok := s.sources[key]
	return l, ok
}

// Unrecognized lists passthrough labels in first-seen order.
func (s *MetricStore) Unrecognized() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.unrecognized))
	copy(out, s.unrecognized)
	return out
}

// CanonicalCount is the number of keys that are catalog fields.
func (s *MetricStore) CanonicalCount() int {
	n := 0
	for _, k := range s.Keys() {
		if fields.IsCanonical(k) {
			n++
		}
	}
	return n
}

// Indicators flattens the store and a ratio result into one mapping.
// Computed ratios take precedence over same-named stored values.
func (s *MetricStore) Indicators(r Ratios) map[string]float64 {
	out := s.Values()
	for k, v := range r {
		out[string(k)] = v
	}
	return out
}
