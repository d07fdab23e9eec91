package server

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/applytrack/internal/pipeline"
)

type stubRunner struct{}

func (stubRunner) Run(context.Context) (pipeline.Report, error) { return pipeline.Report{}, nil }

func TestServerContext_LazyComponents(t *testing.T) {
	builds := 0
	fail := true
	sc := NewServerContext(context.Background(), Options{
		NewPipeline: func(context.Context) (PipelineRunner, error) {
			builds++
			if fail {
				return nil, errors.New("no token")
			}
			return stubRunner{}, nil
		},
	})

	_, err := sc.Pipeline(context.Background())
	require.Error(t, err)

	fail = false
	first, err := sc.Pipeline(context.Background())
	require.NoError(t, err)
	second, err := sc.Pipeline(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, builds, "failed builds are retried, successful ones cached")
}

func TestServerContext_Unconfigured(t *testing.T) {
	sc := NewServerContext(context.Background(), Options{})

	_, err := sc.Tracker(context.Background())
	assert.ErrorContains(t, err, "spreadsheet tracker is not configured")
	_, err = sc.Querier(context.Background())
	assert.ErrorContains(t, err, "email retrieval is not configured")
	assert.Nil(t, sc.Metrics())
	assert.Nil(t, sc.AuditLogger())
}

func TestServerContext_Shutdown(t *testing.T) {
	sc := NewServerContext(context.Background(), Options{
		NewPipeline: func(context.Context) (PipelineRunner, error) { return stubRunner{}, nil },
	})

	require.NoError(t, sc.Shutdown())
	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())
	assert.Error(t, sc.Context().Err())

	_, err := sc.Pipeline(context.Background())
	assert.ErrorIs(t, err, ErrShutdown)
}

func TestServerContext_Instrumentation(t *testing.T) {
	sc := NewServerContext(context.Background(), Options{Instrumentation: createTestProvider(t)})
	assert.NotNil(t, sc.Metrics())
	assert.NotNil(t, sc.AuditLogger())
}
