// internal/websocket/hub.go
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	wstypes "hellofixo-service/internal/domain/websocket"
	"hellofixo-service/internal/pkg/jwt"

	"go.uber.org/zap"
)

// TokenVerifier validates access tokens presented on connect.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*jwt.Claims, error)
}

// Blacklist reports logged-out tokens.
type Blacklist interface {
	IsTokenBlacklisted(ctx context.Context, jti string) (bool, error)
}

type Hub struct {
	// Registered clients by user ID
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage

	handlerRegistry *HandlerRegistry

	verifier  TokenVerifier
	blacklist Blacklist
	logger    *zap.Logger
}

type BroadcastMessage struct {
	UserIDs []string
	Message *wstypes.WSMessage
}

func NewHub(verifier TokenVerifier, blacklist Blacklist, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:         make(map[string]map[*Client]bool),
		register:        make(chan *Client),
		unregister:      make(chan *Client),
		broadcast:       make(chan *BroadcastMessage, 256),
		handlerRegistry: NewHandlerRegistry(),
		verifier:        verifier,
		blacklist:       blacklist,
		logger:          logger,
	}
}

// AuthenticateClient validates the JWT token and returns the identity it carries
func (h *Hub) AuthenticateClient(ctx context.Context, token string) (*ClientAuth, error) {
	claims, err := h.verifier.VerifyAccessToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	blacklisted, err := h.blacklist.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, ErrTokenBlacklisted
	}

	return &ClientAuth{
		UserID:    claims.UserID,
		SessionID: claims.ID,
		Role:      claims.Role,
	}, nil
}

// RegisterHandler registers a message handler
func (h *Hub) RegisterHandler(handler MessageHandler) {
	h.handlerRegistry.Register(handler)
}

// Register hands a connected client to the hub loop.
func (h *Hub) Register(ctx context.Context, client *Client) error {
	select {
	case h.register <- client:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HandleClientMessage routes a client message to its registered handler.
// It reports false when no handler claims the event type.
func (h *Hub) HandleClientMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) (bool, error) {
	handler, exists := h.handlerRegistry.GetHandler(msg.Type)
	if !exists {
		return false, nil
	}
	return true, handler.HandleMessage(ctx, client, msg)
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	if h.clients[client.userID] == nil {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true
	total := h.totalClients()
	h.mu.Unlock()

	h.logger.Debug("websocket client registered",
		zap.String("user_id", client.userID),
		zap.String("session_id", client.sessionID),
		zap.Int("total", total),
	)

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]interface{}{
		"user_id": client.userID,
		"role":    client.role,
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	client.Close()
	if len(clients) == 0 {
		delete(h.clients, client.userID)
	}

	h.logger.Debug("websocket client unregistered",
		zap.String("user_id", client.userID),
		zap.Int("total", h.totalClients()),
	)
}

func (h *Hub) deliver(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if msg.UserIDs == nil {
		for _, clients := range h.clients {
			for client := range clients {
				client.SendMessage(msg.Message)
			}
		}
		return
	}

	for _, userID := range msg.UserIDs {
		for client := range h.clients[userID] {
			client.SendMessage(msg.Message)
		}
	}
}

// Notify queues an event for every connection of userID. It never blocks;
// when the queue is full the event is dropped.
func (h *Hub) Notify(userID string, eventType wstypes.EventType, data interface{}) {
	msg := &BroadcastMessage{
		UserIDs: []string{userID},
		Message: wstypes.NewMessage(eventType, data),
	}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("websocket broadcast queue full, dropping event",
			zap.String("user_id", userID),
			zap.String("type", string(eventType)),
		)
	}
}

func (h *Hub) ConnectedClients(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalClients()
}

// DisconnectUser closes every connection of userID, used on logout.
func (h *Hub) DisconnectUser(userID, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[userID]
	if !ok {
		return
	}
	msg := wstypes.NewMessage(wstypes.EventTypeSessionRevoked, map[string]string{"reason": reason})
	for client := range clients {
		client.SendMessage(msg)
		client.Close()
	}
	delete(h.clients, userID)
	h.logger.Info("disconnected websocket clients", zap.String("user_id", userID), zap.String("reason", reason))
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, clients := range h.clients {
		for client := range clients {
			client.Close()
		}
		delete(h.clients, userID)
	}
}

// DecodeData converts a message payload into target.
func DecodeData(data interface{}, target interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}
