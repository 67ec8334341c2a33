package stock_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-api/internal/application/stock"
	"github.com/jhoicas/taller-api/pkg/logger"
)

// collector acumula eventos con señal de llegada para esperar sin sleeps largos.
type collector struct {
	mu     sync.Mutex
	events []stock.Event
	ch     chan struct{}
}

func newCollector() *collector {
	return &collector{ch: make(chan struct{}, 64)}
}

func (c *collector) handle(e stock.Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
	c.ch <- struct{}{}
}

func (c *collector) wait(t *testing.T, n int) []stock.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for i := 0; i < n; i++ {
		select {
		case <-c.ch:
		case <-deadline:
			t.Fatalf("esperaba %d eventos, llegaron %d", n, i)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]stock.Event(nil), c.events...)
}

func TestBus_EntregaEnOrdenACadaSuscriptor(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := stock.NewBus(logger.Nop(), 16)
	a := newCollector()
	b := newCollector()
	bus.Subscribe(a.handle)
	bus.Subscribe(b.handle)
	bus.Start(ctx)

	bus.Publish(stock.Event{OrganizationID: testOrgID, Kind: stock.KindReserve})
	bus.Publish(stock.Event{OrganizationID: testOrgID, Kind: stock.KindPick})

	got := a.wait(t, 2)
	require.Len(t, got, 2)
	assert.Equal(t, stock.KindReserve, got[0].Kind)
	assert.Equal(t, stock.KindPick, got[1].Kind)
	assert.False(t, got[0].Ts.IsZero(), "Publish estampa Ts si falta")

	assert.Len(t, b.wait(t, 2), 2)
}

func TestBus_PanicDeUnSuscriptorNoFrenaAlResto(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := stock.NewBus(logger.Nop(), 16)
	bus.Subscribe(func(stock.Event) { panic("suscriptor roto") })
	c := newCollector()
	bus.Subscribe(c.handle)
	bus.Start(ctx)

	bus.Publish(stock.Event{OrganizationID: testOrgID, Kind: stock.KindAdjust})
	got := c.wait(t, 1)
	assert.Equal(t, stock.KindAdjust, got[0].Kind)
}

func TestBus_PublishNuncaBloquea(t *testing.T) {
	// sin Start: el consumidor no corre y el buffer se llena
	bus := stock.NewBus(logger.Nop(), 2)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			bus.Publish(stock.Event{OrganizationID: testOrgID, Kind: stock.KindMove})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish bloqueó con el buffer lleno")
	}
}
