package bus

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kostyay/kaspamon/internal/model"
)

func TestDrain_FIFOAndConsuming(t *testing.T) {
	b := New(8)
	p := b.Publisher()

	require.NoError(t, p.Publish(model.Connected{URL: "ws://node:1"}))
	require.NoError(t, p.Publish(model.DaaScoreUpdate{Score: 1}))
	require.NoError(t, p.Publish(model.Disconnected{}))

	got := b.Drain()
	assert.Equal(t, []model.Event{
		model.Connected{URL: "ws://node:1"},
		model.DaaScoreUpdate{Score: 1},
		model.Disconnected{},
	}, got)

	assert.Empty(t, b.Drain(), "second drain must be empty")
	assert.Zero(t, b.Len())
}

func TestPublish_OverflowDropsOldest(t *testing.T) {
	overflow := prometheus.NewCounter(prometheus.CounterOpts{Name: "overflow"})
	b := New(3, WithOverflowCounter(overflow))

	for i := uint64(1); i <= 5; i++ {
		require.NoError(t, b.Publish(model.DaaScoreUpdate{Score: i}))
	}

	assert.Equal(t, uint64(2), b.Overflows())
	assert.Equal(t, 2.0, testutil.ToFloat64(overflow))
	assert.Equal(t, []model.Event{
		model.DaaScoreUpdate{Score: 3},
		model.DaaScoreUpdate{Score: 4},
		model.DaaScoreUpdate{Score: 5},
	}, b.Drain())
}

func TestPublish_WrapsAroundAfterDrain(t *testing.T) {
	b := New(2)
	require.NoError(t, b.Publish(model.DaaScoreUpdate{Score: 1}))
	b.Drain()
	require.NoError(t, b.Publish(model.DaaScoreUpdate{Score: 2}))
	require.NoError(t, b.Publish(model.DaaScoreUpdate{Score: 3}))

	assert.Equal(t, []model.Event{
		model.DaaScoreUpdate{Score: 2},
		model.DaaScoreUpdate{Score: 3},
	}, b.Drain())
	assert.Zero(t, b.Overflows())
}

func TestClose_RejectsPublishKeepsQueue(t *testing.T) {
	b := New(4)
	require.NoError(t, b.Publish(model.Disconnected{}))
	b.Close()
	b.Close()

	err := b.Publisher().Publish(model.Disconnected{})
	assert.ErrorIs(t, err, ErrClosed)
	assert.True(t, b.Closed())
	assert.Len(t, b.Drain(), 1)
}

func TestReady_SignalledAfterPublish(t *testing.T) {
	b := New(4)
	select {
	case <-b.Ready():
		t.Fatal("ready before any publish")
	default:
	}

	require.NoError(t, b.Publish(model.Disconnected{}))
	require.NoError(t, b.Publish(model.Disconnected{}))

	select {
	case <-b.Ready():
	default:
		t.Fatal("ready not signalled")
	}
}

func TestPublish_ConcurrentProducersPreserveOwnOrder(t *testing.T) {
	const producers, perProducer = 4, 200
	b := New(producers * perProducer)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				_ = b.Publish(model.NodeExited{Code: p*perProducer + i})
			}
		}(p)
	}
	wg.Wait()

	events := b.Drain()
	require.Len(t, events, producers*perProducer)

	last := map[int]int{}
	for _, ev := range events {
		code := ev.(model.NodeExited).Code
		p := code / perProducer
		if prev, ok := last[p]; ok {
			assert.Greater(t, code, prev, "producer %d reordered", p)
		}
		last[p] = code
	}
}

func TestNew_NonPositiveCapacityUsesDefault(t *testing.T) {
	b := New(0)
	assert.Len(t, b.buf, DefaultCapacity)
}
