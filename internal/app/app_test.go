package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingPublisher struct {
	started  chan struct{}
	returned atomic.Bool
}

func (p *blockingPublisher) Run(ctx context.Context) {
	close(p.started)
	<-ctx.Done()

	// a batch still in flight when the context is canceled
	time.Sleep(20 * time.Millisecond)
	p.returned.Store(true)
}

type recordingProducer struct {
	publisher       *blockingPublisher
	closeErr        error
	closed          bool
	closedAfterStop bool
}

func (p *recordingProducer) PushMessage(context.Context, []byte, []byte, string) (int32, int64, error) {
	return 0, 0, nil
}

func (p *recordingProducer) Close() error {
	p.closed = true
	p.closedAfterStop = p.publisher == nil || p.publisher.returned.Load()

	return p.closeErr
}

func TestEBus_StopWaitsForPublisher(t *testing.T) {
	publisher := &blockingPublisher{started: make(chan struct{})}
	producer := &recordingProducer{publisher: publisher}

	bus := &EBus{Producer: producer, OutboxPublisher: publisher}
	bus.Start(context.Background())

	select {
	case <-publisher.started:
	case <-time.After(time.Second):
		t.Fatal("publisher did not start")
	}

	require.NoError(t, bus.Stop())

	assert.True(t, producer.closed)
	assert.True(t, producer.closedAfterStop, "producer closed while the publisher was still running")
}

func TestEBus_StopWithoutStart(t *testing.T) {
	producer := &recordingProducer{closeErr: errors.New("broker gone")}

	bus := &EBus{Producer: producer}

	require.Error(t, bus.Stop())
	assert.True(t, producer.closed)
}
