package ws

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"vox/internal/auth"
	"vox/internal/db"
)

// Hub tracks every live connection and the binding from usernames to
// their connections. One user may hold several bindings at once (one per
// device); fanout delivers to all of them.
type Hub struct {
	logger *slog.Logger
	tokens *auth.TokenService

	users     *db.UserRepository
	private   *db.PrivateMessageRepository
	chats     *db.ChatRepository
	reactions *db.ReactionRepository
	economy   *db.EconomyRepository
	aliases   *db.AliasRepository
	support   *db.SupportRepository
	premium   *db.PremiumRepository
	stats     *db.StatsRepository

	mu          sync.RWMutex
	clients     map[*Client]struct{}
	userClients map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	shutdown   chan struct{}

	droppedMessages atomic.Int64
}

func NewHub(logger *slog.Logger, database *db.DB, tokens *auth.TokenService) *Hub {
	return &Hub{
		logger:      logger,
		tokens:      tokens,
		users:       db.NewUserRepository(database),
		private:     db.NewPrivateMessageRepository(database),
		chats:       db.NewChatRepository(database),
		reactions:   db.NewReactionRepository(database),
		economy:     db.NewEconomyRepository(database),
		aliases:     db.NewAliasRepository(database),
		support:     db.NewSupportRepository(database),
		premium:     db.NewPremiumRepository(database),
		stats:       db.NewStatsRepository(database),
		clients:     make(map[*Client]struct{}),
		userClients: make(map[string]map[*Client]struct{}),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		shutdown:    make(chan struct{}),
	}
}

// Run owns the client set. Must be started exactly once.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				h.unbindLocked(client)
				client.markClosed()
				close(client.send)
			}
			h.mu.Unlock()

		case <-h.shutdown:
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				h.unbindLocked(client)
				client.markClosed()
				close(client.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) Shutdown() {
	close(h.shutdown)
}

// Bind attaches an authenticated identity to the connection. A second
// login on the same connection rebinds it.
func (h *Hub) Bind(client *Client, username string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.unbindLocked(client)
	client.setUsername(username)
	if h.userClients[username] == nil {
		h.userClients[username] = make(map[*Client]struct{})
	}
	h.userClients[username][client] = struct{}{}
}

// unbindLocked removes the client's user binding. Caller holds h.mu.
func (h *Hub) unbindLocked(client *Client) {
	username := client.Username()
	if username == "" {
		return
	}
	if set, ok := h.userClients[username]; ok {
		delete(set, client)
		if len(set) == 0 {
			delete(h.userClients, username)
		}
	}
	client.setUsername("")
}

// SendToUser delivers the payload to every connection bound to the
// username and reports whether at least one connection received it.
func (h *Hub) SendToUser(username string, payload any) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := false
	for client := range h.userClients[username] {
		if h.trySend(client, payload) {
			delivered = true
		}
	}
	return delivered
}

// SendToAdmins delivers the payload to every online admin connection.
func (h *Hub) SendToAdmins(payload any) {
	admins, err := h.users.Admins()
	if err != nil {
		h.logger.Error("listing admins for fanout", "error", err)
		return
	}
	for _, username := range admins {
		h.SendToUser(username, payload)
	}
}

// BroadcastAll delivers the payload to every live connection, bound or
// not. Update notices must reach clients that have not logged in yet.
func (h *Hub) BroadcastAll(payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		h.trySend(client, payload)
	}
}

func (h *Hub) IsUserOnline(username string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userClients[username]) > 0
}

// OnlineCount reports the number of distinct authenticated users.
func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userClients)
}

func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// trySend queues the payload without blocking. A full send buffer means
// the connection is too slow to keep up; the message is dropped and
// counted rather than stalling the hub.
func (h *Hub) trySend(client *Client, payload any) bool {
	if client.isClosed() {
		return false
	}
	select {
	case client.send <- payload:
		return true
	default:
		h.droppedMessages.Add(1)
		h.logger.Warn("send buffer full, dropping message", "username", client.Username())
		return false
	}
}

func (h *Hub) DroppedMessages() int64 {
	return h.droppedMessages.Load()
}
