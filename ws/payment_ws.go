package ws

import (
	"log"
	"net/http"
	"sync"

	"github.com/food-bundles/food-bundles-bn-sub000/repository"
	"github.com/food-bundles/food-bundles-bn-sub000/services"
	"github.com/food-bundles/food-bundles-bn-sub000/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// PaymentHub fans settlement events out to connected restaurant clients.
// It implements services.EventPublisher; the settlement core knows nothing
// about websockets. Events are re-derivable from the rows themselves, so a
// dropped connection just misses live updates, it never loses state.
type PaymentHub struct {
	clients    map[uint]map[*websocket.Conn]bool // restaurantID -> set of clients
	broadcast  chan services.PaymentEvent
	register   chan subscription
	unregister chan subscription
	mu         sync.Mutex
	restRepo   *repository.RestaurantRepository
}

type subscription struct {
	Conn         *websocket.Conn
	RestaurantID uint
}

func NewPaymentHub(restRepo *repository.RestaurantRepository) *PaymentHub {
	return &PaymentHub{
		clients:    make(map[uint]map[*websocket.Conn]bool),
		broadcast:  make(chan services.PaymentEvent, 64),
		register:   make(chan subscription),
		unregister: make(chan subscription),
		restRepo:   restRepo,
	}
}

// PublishPaymentEvent satisfies services.EventPublisher. Non-blocking: a
// full queue drops the event rather than stalling a settlement.
func (h *PaymentHub) PublishPaymentEvent(evt services.PaymentEvent) {
	select {
	case h.broadcast <- evt:
	default:
		log.Printf("payment event queue full, dropping %s for restaurant %d", evt.Type, evt.RestaurantID)
	}
}

func (h *PaymentHub) Run() {
	for {
		select {
		case sub := <-h.register:
			h.mu.Lock()
			if h.clients[sub.RestaurantID] == nil {
				h.clients[sub.RestaurantID] = make(map[*websocket.Conn]bool)
			}
			h.clients[sub.RestaurantID][sub.Conn] = true
			h.mu.Unlock()

		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[sub.RestaurantID][sub.Conn]; ok {
				delete(h.clients[sub.RestaurantID], sub.Conn)
				sub.Conn.Close()
			}
			h.mu.Unlock()

		case evt := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients[evt.RestaurantID] {
				if err := conn.WriteJSON(evt); err != nil {
					log.Printf("ws write error: %v", err)
					conn.Close()
					delete(h.clients[evt.RestaurantID], conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WS route: /ws/payments — streams settlement events for the caller's
// restaurant.
func (h *PaymentHub) HandleWebSocket(c *gin.Context) {
	userID := utils.CurrentUserID(c)

	rest, err := h.restRepo.GetByOwner(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "restaurant not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}

	sub := subscription{Conn: conn, RestaurantID: rest.ID}
	h.register <- sub

	go h.keepAlive(sub)
}

// keepAlive drains client frames until the connection drops; clients only
// listen on this socket.
func (h *PaymentHub) keepAlive(sub subscription) {
	defer func() { h.unregister <- sub }()
	for {
		if _, _, err := sub.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
