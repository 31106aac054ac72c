package types

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteResults_InsertionOrder(t *testing.T) {
	r := NewRouteResults()
	r.Set("/", Metrics{Performance: 80})
	r.Set("/about", Metrics{Performance: 60})
	r.Set("/pricing", Metrics{Performance: 90})

	assert.Equal(t, []string{"/", "/about", "/pricing"}, r.Paths())
	assert.Equal(t, 3, r.Len())
}

func TestRouteResults_SetExistingKeepsPosition(t *testing.T) {
	r := NewRouteResults()
	r.Set("/", Metrics{Performance: 10})
	r.Set("/about", Metrics{Performance: 20})
	r.Set("/", Metrics{Performance: 99})

	assert.Equal(t, []string{"/", "/about"}, r.Paths())
	m, ok := r.Get("/")
	require.True(t, ok)
	assert.Equal(t, 99, m.Performance)
}

func TestRouteResults_MarshalPreservesOrder(t *testing.T) {
	r := NewRouteResults()
	r.Set("/z", Metrics{Performance: 1})
	r.Set("/a", Metrics{Performance: 2})

	data, err := json.Marshal(r)
	require.NoError(t, err)

	// /z must appear before /a even though maps would sort differently.
	assert.Less(t,
		strings.Index(string(data), `"/z"`),
		strings.Index(string(data), `"/a"`),
	)
}

func TestRouteResults_JSONRoundTrip(t *testing.T) {
	r := NewRouteResults()
	r.Set("/", Metrics{Performance: 80, FCP: 1200.5, CLS: 0.05})
	r.Set("/about", Metrics{Performance: 60, SEO: 100})

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var back RouteResults
	require.NoError(t, json.Unmarshal(data, &back))

	assert.Equal(t, r.Paths(), back.Paths())
	m, ok := back.Get("/")
	require.True(t, ok)
	assert.Equal(t, 80, m.Performance)
	assert.InDelta(t, 1200.5, m.FCP, 0.001)
	assert.InDelta(t, 0.05, m.CLS, 0.001)
}

func TestRouteResults_UnmarshalRejectsNonObject(t *testing.T) {
	var r RouteResults
	assert.Error(t, json.Unmarshal([]byte(`[1,2,3]`), &r))
}

func TestRouteResults_EmptyMarshals(t *testing.T) {
	data, err := json.Marshal(NewRouteResults())
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))

	var nilResults *RouteResults
	data, err = json.Marshal(nilResults)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestRouteResults_NilSafeReads(t *testing.T) {
	var r *RouteResults
	assert.Equal(t, 0, r.Len())
	assert.Nil(t, r.Paths())
	_, ok := r.Get("/")
	assert.False(t, ok)
}
