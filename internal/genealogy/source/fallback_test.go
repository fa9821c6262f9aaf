package source

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lineage/internal/genealogy/tree"
	"lineage/internal/platform/logger"
	"lineage/pkg/platform/circuit"
)

type scriptedFetcher struct {
	name    string
	results []error
	calls   int
}

func (f *scriptedFetcher) Fetch(context.Context) ([]tree.Record, error) {
	err := f.results[f.calls%len(f.results)]
	f.calls++
	if err != nil {
		return nil, err
	}
	return []tree.Record{{Name: f.name}}, nil
}

func (f *scriptedFetcher) String() string { return f.name }

func TestFallbackFetcher(t *testing.T) {
	down := unavailable("get %s: status %d", "http://example.test", 503)

	t.Run("primary failures below threshold surface", func(t *testing.T) {
		primary := &scriptedFetcher{name: "primary", results: []error{down}}
		fallback := &scriptedFetcher{name: "fallback", results: []error{nil}}
		f := NewFallbackFetcher(primary, fallback, circuit.New("source", circuit.WithFailureThreshold(2)), logger.Discard())

		_, err := f.Fetch(context.Background())
		assert.True(t, IsUnavailable(err))
		assert.Equal(t, 0, fallback.calls)
	})

	t.Run("open circuit serves the fallback until the primary recovers", func(t *testing.T) {
		primary := &scriptedFetcher{name: "primary", results: []error{down, down, nil, nil}}
		fallback := &scriptedFetcher{name: "fallback", results: []error{nil}}
		breaker := circuit.New("source", circuit.WithFailureThreshold(2), circuit.WithSuccessThreshold(2))
		f := NewFallbackFetcher(primary, fallback, breaker, logger.Discard())

		_, err := f.Fetch(context.Background())
		require.Error(t, err)

		records, err := f.Fetch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "fallback", records[0].Name)
		assert.True(t, breaker.IsOpen())

		records, err = f.Fetch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "primary", records[0].Name)
		assert.True(t, breaker.IsOpen())

		_, err = f.Fetch(context.Background())
		require.NoError(t, err)
		assert.False(t, breaker.IsOpen())
	})

	t.Run("malformed primary is not masked", func(t *testing.T) {
		primary := &scriptedFetcher{name: "primary", results: []error{malformed("top level is %s", "a string")}}
		fallback := &scriptedFetcher{name: "fallback", results: []error{nil}}
		breaker := circuit.New("source", circuit.WithFailureThreshold(1))
		f := NewFallbackFetcher(primary, fallback, breaker, logger.Discard())

		_, err := f.Fetch(context.Background())
		assert.True(t, IsMalformed(err))
		assert.False(t, breaker.IsOpen())
	})

	t.Run("fallback errors are returned", func(t *testing.T) {
		primary := &scriptedFetcher{name: "primary", results: []error{down}}
		fallback := &scriptedFetcher{name: "fallback", results: []error{errors.New("missing snapshot")}}
		f := NewFallbackFetcher(primary, fallback, circuit.New("source", circuit.WithFailureThreshold(1)), logger.Discard())

		_, err := f.Fetch(context.Background())
		assert.EqualError(t, err, "missing snapshot")
		assert.Equal(t, "primary (fallback fallback)", f.String())
	})
}
