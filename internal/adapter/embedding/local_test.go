package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentrag/internal/adapter/analyzer"
)

func TestLocalEmbedderDeterministic(t *testing.T) {
	e := NewLocalEmbedder(64, analyzer.NewTokenizer())

	a, err := e.Embed(context.Background(), []string{"the refund policy allows returns"})
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), []string{"the refund policy allows returns"})
	require.NoError(t, err)

	require.Len(t, a, 1)
	assert.Equal(t, a[0], b[0])
}

func TestLocalEmbedderDimension(t *testing.T) {
	e := NewLocalEmbedder(128, analyzer.NewTokenizer())

	vecs, err := e.Embed(context.Background(), []string{"one", "two two", "three"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	for _, v := range vecs {
		assert.Len(t, v, 128)
	}
	assert.Equal(t, 128, e.Dimension())
}

func TestLocalEmbedderNormalized(t *testing.T) {
	e := NewLocalEmbedder(64, analyzer.NewTokenizer())

	vecs, err := e.Embed(context.Background(), []string{"orders shipped last month arrived late"})
	require.NoError(t, err)

	var norm float64
	for _, v := range vecs[0] {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestLocalEmbedderSimilarTextsCloser(t *testing.T) {
	e := NewLocalEmbedder(256, analyzer.NewTokenizer())

	vecs, err := e.Embed(context.Background(), []string{
		"refund policy for returned items",
		"policy on refunds and returns of items",
		"deploy kubernetes cluster autoscaler",
	})
	require.NoError(t, err)

	near := dot(vecs[0], vecs[1])
	far := dot(vecs[0], vecs[2])
	assert.Greater(t, near, far)
}

func TestLocalEmbedderEmptyText(t *testing.T) {
	e := NewLocalEmbedder(64, analyzer.NewTokenizer())

	vecs, err := e.Embed(context.Background(), []string{""})
	require.NoError(t, err)
	require.Len(t, vecs, 1)
	for _, v := range vecs[0] {
		assert.Zero(t, v)
	}
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
