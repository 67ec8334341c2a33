// Package ws expone el canal realtime de hints de stock sobre websocket.
// Los clientes se suscriben autenticados y reciben los eventos de su tenant;
// el payload es advisory: ante pérdida, el cliente refresca por REST.
package ws

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/taller-api/internal/application/stock"
	"github.com/jhoicas/taller-api/pkg/logger"
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub mantiene las conexiones websocket agrupadas por tenant y les reparte
// los eventos del bus. Un cliente lento pierde mensajes en vez de frenar al
// resto.
type Hub struct {
	log *logger.Logger

	mu      sync.RWMutex
	clients map[string]map[*client]struct{} // organization_id -> clientes
}

// NewHub construye el hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{log: log, clients: make(map[string]map[*client]struct{})}
}

// HandleEvent es el suscriptor del bus: reparte el evento a las conexiones
// del tenant.
func (h *Hub) HandleEvent(evt stock.Event) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[evt.OrganizationID] {
		select {
		case c.send <- payload:
		default:
			// buffer lleno: el cliente va atrasado, el hint se descarta
		}
	}
}

// Handler devuelve el handler fiber del endpoint websocket. Exige que el
// middleware de auth haya dejado organization_id en Locals.
func (h *Hub) Handler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		orgID, _ := conn.Locals("organization_id").(string)
		if orgID == "" {
			_ = conn.Close()
			return
		}
		c := &client{conn: conn, send: make(chan []byte, 16)}
		h.register(orgID, c)
		defer h.unregister(orgID, c)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
		for {
			select {
			case <-done:
				return
			case payload := <-c.send:
				if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					return
				}
			}
		}
	})
}

// Upgrade es el middleware previo: rechaza requests que no sean websocket.
func Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

func (h *Hub) register(orgID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[orgID] == nil {
		h.clients[orgID] = make(map[*client]struct{})
	}
	h.clients[orgID][c] = struct{}{}
	h.log.Debug().Str("organization_id", orgID).Msg("cliente websocket conectado")
}

func (h *Hub) unregister(orgID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients[orgID], c)
	if len(h.clients[orgID]) == 0 {
		delete(h.clients, orgID)
	}
}
