package stock

import (
	"context"
	"time"

	"github.com/jhoicas/taller-api/pkg/logger"
)

// Tipos de evento publicados tras el commit de cada verbo.
const (
	KindMove         = "move"
	KindReserve      = "reserve"
	KindRelease      = "release"
	KindPick         = "pick"
	KindReturn       = "return"
	KindReceive      = "receive"
	KindSaleCreated  = "sale-created"
	KindSaleReserve  = "sale-reserve"
	KindSaleComplete = "sale-complete"
	KindSaleCancel   = "sale-cancel"
	KindAdjust       = "adjust"
	KindLowStock     = "low-stock"
)

// Event notificación de cambio de stock, clave por tenant.
// Hint es advisory y opaco para el suscriptor.
type Event struct {
	OrganizationID string            `json:"organization_id"`
	Kind           string            `json:"kind"`
	Refs           map[string]string `json:"refs,omitempty"`
	Hint           string            `json:"hint,omitempty"`
	Ts             time.Time         `json:"ts"`
}

// Subscriber recibe eventos ya comiteados. No debe bloquear.
type Subscriber func(Event)

// Bus distribuye eventos de stock a los suscriptores (invalidador de cache,
// trigger de bajo stock, canal realtime). La entrega es best-effort y fuera
// de la transacción: un suscriptor que falla se loguea y no frena al resto ni
// revierte el trabajo comiteado. El consumidor único entrega en el orden de
// encolado; ver Publish para el matiz entre publicadores concurrentes.
type Bus struct {
	log  *logger.Logger
	subs []Subscriber
	ch   chan Event
}

// NewBus construye el bus con el buffer dado (si el buffer se llena, el
// evento se descarta con warn: nunca bloquea al publicador).
func NewBus(log *logger.Logger, buffer int) *Bus {
	if buffer <= 0 {
		buffer = 256
	}
	return &Bus{log: log, ch: make(chan Event, buffer)}
}

// Subscribe registra un suscriptor. Llamar antes de Start.
func (b *Bus) Subscribe(fn Subscriber) {
	b.subs = append(b.subs, fn)
}

// Start arranca el consumidor único; retorna cuando ctx se cancela.
func (b *Bus) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case evt := <-b.ch:
				for _, fn := range b.subs {
					b.deliver(fn, evt)
				}
			}
		}
	}()
}

// Publish encola el evento sin bloquear. Llamar solo tras commit exitoso.
// El orden de encolado entre publicadores concurrentes del mismo tenant es
// aproximado: dos commits casi simultáneos pueden encolarse invertidos. Los
// suscriptores toleran eso (invalidación, trigger y hints son advisory).
func (b *Bus) Publish(e Event) {
	if e.Ts.IsZero() {
		e.Ts = time.Now()
	}
	select {
	case b.ch <- e:
	default:
		b.log.Warn().
			Str("organization_id", e.OrganizationID).
			Str("kind", e.Kind).
			Msg("bus de stock lleno, evento descartado")
	}
}

// deliver aísla el pánico de un suscriptor para no frenar a los demás.
func (b *Bus) deliver(fn Subscriber, evt Event) {
	defer func() {
		if rec := recover(); rec != nil {
			b.log.Error().
				Interface("panic", rec).
				Str("kind", evt.Kind).
				Msg("suscriptor de stock falló")
		}
	}()
	fn(evt)
}
