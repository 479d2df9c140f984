package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducer_PublishEncodes(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "snappy", prometheus.NewRegistry())

	require.NoError(t, p.Publish(context.Background(), "results", []byte("AAPL"), map[string]string{"type": "analysis_complete"}))
	require.NoError(t, p.Publish(context.Background(), "results", nil, "raw"))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, "results", w.msgs[0].Topic)
	assert.Equal(t, []byte("AAPL"), w.msgs[0].Key)
	assert.JSONEq(t, `{"type":"analysis_complete"}`, string(w.msgs[0].Value))
	assert.Equal(t, "raw", string(w.msgs[1].Value))
}

func TestProducer_PublishError(t *testing.T) {
	w := &fakeWriter{err: errors.New("no leader")}
	p := newProducer(w, "snappy", nil)

	err := p.Publish(context.Background(), "results", nil, []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "results")
}

func TestProducer_EmptyBatch(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "snappy", nil)
	require.NoError(t, p.PublishBatch(context.Background(), "results", nil))
	assert.Empty(t, w.msgs)
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	assert.Error(t, err)
}
