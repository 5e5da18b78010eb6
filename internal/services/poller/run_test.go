package poller

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dartwatch/dartwatch/internal/integrations/carrier"
)

func TestPoller_Run_StopsOnContextCancel(t *testing.T) {
	store := newTestStore(t)
	p := New(store, &fakeCarrier{}, &fakeProducer{}, nil, "t").
		WithSettings(5*time.Millisecond, time.Hour, 1, 0)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(25 * time.Millisecond)
		cancel()
	}()

	err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestPoller_Trigger_ForcesCycle(t *testing.T) {
	store := newTestStore(t)
	store.Put(100, "AWB1", "In Transit")
	fc := &fakeCarrier{results: map[string]carrier.Result{"AWB1": inTransit("AWB1", "Out For Delivery")}}
	fp := &fakeProducer{}
	p := New(store, fc, fp, nil, "t").WithSettings(time.Hour, time.Hour, 1, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = p.Run(ctx)
		close(done)
	}()

	p.Trigger()
	require.Eventually(t, func() bool { return fp.calls() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
