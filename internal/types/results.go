package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RouteResults maps a route path to its Metrics while preserving
// insertion order, which is the route execution order. Plain Go maps
// lose ordering on iteration and JSON round-trips, so the dashboard's
// "routes in the order they ran" guarantee needs its own type.
type RouteResults struct {
	paths   []string
	metrics map[string]Metrics
}

// NewRouteResults returns an empty, ready-to-use collection.
func NewRouteResults() *RouteResults {
	return &RouteResults{metrics: make(map[string]Metrics)}
}

// Set records the metrics for a route path. Setting an existing path
// replaces its metrics but keeps its original position.
func (r *RouteResults) Set(path string, m Metrics) {
	if r.metrics == nil {
		r.metrics = make(map[string]Metrics)
	}
	if _, ok := r.metrics[path]; !ok {
		r.paths = append(r.paths, path)
	}
	r.metrics[path] = m
}

// Get returns the metrics recorded for a path.
func (r *RouteResults) Get(path string) (Metrics, bool) {
	if r == nil || r.metrics == nil {
		return Metrics{}, false
	}
	m, ok := r.metrics[path]
	return m, ok
}

// Len returns the number of recorded routes.
func (r *RouteResults) Len() int {
	if r == nil {
		return 0
	}
	return len(r.paths)
}

// Paths returns the route paths in insertion order. The returned slice
// is a copy.
func (r *RouteResults) Paths() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.paths))
	copy(out, r.paths)
	return out
}

// Each calls fn for every route in insertion order.
func (r *RouteResults) Each(fn func(path string, m Metrics)) {
	if r == nil {
		return
	}
	for _, p := range r.paths {
		fn(p, r.metrics[p])
	}
}

// MarshalJSON encodes the collection as a JSON object whose keys appear
// in insertion order.
func (r *RouteResults) MarshalJSON() ([]byte, error) {
	if r == nil || len(r.paths) == 0 {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range r.paths {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.metrics[p])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, preserving the order its keys
// appear in the document.
func (r *RouteResults) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return fmt.Errorf("route results: expected JSON object, got %v", tok)
	}

	r.paths = nil
	r.metrics = make(map[string]Metrics)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		path, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("route results: non-string key %v", keyTok)
		}
		var m Metrics
		if err := dec.Decode(&m); err != nil {
			return fmt.Errorf("route results: decoding metrics for %q: %w", path, err)
		}
		r.Set(path, m)
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
