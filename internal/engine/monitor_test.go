package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcook/syncengine/internal/logging"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(ctx context.Context) error { return f.err }

func TestMonitor_ProbeTransitions(t *testing.T) {
	p := &fakePinger{}
	m := NewMonitor(p, time.Minute, logging.NewNop())
	ctx := context.Background()

	assert.False(t, m.IsUp())

	assert.True(t, m.Probe(ctx))
	assert.True(t, m.IsUp())

	p.err = errors.New("down")
	assert.False(t, m.Probe(ctx))
	assert.False(t, m.IsUp())
}

func TestMonitor_OnUpFiresOncePerEdge(t *testing.T) {
	p := &fakePinger{}
	m := NewMonitor(p, time.Minute, logging.NewNop())
	ctx := context.Background()

	var fired int
	m.OnUp(func(ctx context.Context) { fired++ })

	m.Probe(ctx)
	m.Probe(ctx) // still up, no new edge
	assert.Equal(t, 1, fired)

	p.err = errors.New("down")
	m.Probe(ctx)
	p.err = nil
	m.Probe(ctx)
	assert.Equal(t, 2, fired)
}

func TestMonitor_MarkDownIdempotent(t *testing.T) {
	p := &fakePinger{}
	m := NewMonitor(p, time.Minute, logging.NewNop())

	m.Probe(context.Background())
	require.True(t, m.IsUp())

	m.MarkDown()
	m.MarkDown()
	assert.False(t, m.IsUp())
}

func TestMonitor_ConnectSetsState(t *testing.T) {
	ctx := context.Background()

	m := NewMonitor(&fakePinger{}, time.Minute, logging.NewNop())
	require.NoError(t, m.Connect(ctx))
	assert.True(t, m.IsUp())

	m = NewMonitor(&fakePinger{err: errors.New("refused")}, time.Minute, logging.NewNop())
	assert.Error(t, m.Connect(ctx))
	assert.False(t, m.IsUp())
}
