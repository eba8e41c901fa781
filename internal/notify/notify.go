// Package notify pushes item change envelopes to registered UDP clients.
package notify

import (
	"encoding/json"
	"errors"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"storefront/internal/events"
	"storefront/pkg/logger"
)

const (
	RegisterMessageType   = "register"
	UnregisterMessageType = "unregister"
)

type RegisterMessage struct {
	Type     string `json:"type"`
	ClientID string `json:"client_id"`
}

type Client struct {
	ClientID string
	Addr     *net.UDPAddr
}

type Registry struct {
	mu      sync.RWMutex
	clients map[string]Client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]Client)}
}

func (r *Registry) Register(clientID string, addr *net.UDPAddr) {
	if clientID == "" || addr == nil {
		return
	}
	r.mu.Lock()
	r.clients[clientID] = Client{ClientID: clientID, Addr: addr}
	r.mu.Unlock()
}

func (r *Registry) Remove(clientID string) {
	r.mu.Lock()
	delete(r.clients, clientID)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *Registry) Snapshot() []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clients := make([]Client, 0, len(r.clients))
	for _, client := range r.clients {
		clients = append(clients, client)
	}
	return clients
}

type Server struct {
	addr     string
	registry *Registry
	log      *zap.Logger

	mu   sync.Mutex
	conn *net.UDPConn
}

func NewServer(addr string, registry *Registry, log *zap.Logger) *Server {
	return &Server{
		addr:     addr,
		registry: registry,
		log:      logger.OrNop(log).With(zap.String("component", "notify")),
	}
}

// Listen binds the UDP socket. Run calls it when needed.
func (s *Server) Listen() (net.Addr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return s.conn.LocalAddr(), nil
	}
	udpAddr, err := net.ResolveUDPAddr("udp", s.addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}
	s.conn = conn
	return conn.LocalAddr(), nil
}

// Run reads register messages until Close.
func (s *Server) Run() error {
	addr, err := s.Listen()
	if err != nil {
		return err
	}
	s.log.Info("udp notify listening", zap.String("addr", addr.String()))

	buffer := make([]byte, 2048)
	for {
		n, from, err := s.conn.ReadFromUDP(buffer)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		msg, err := parseRegisterMessage(buffer[:n])
		if err != nil {
			s.log.Info("invalid udp message", zap.String("from", from.String()), zap.Error(err))
			continue
		}
		switch msg.Type {
		case RegisterMessageType:
			s.registry.Register(msg.ClientID, from)
			s.log.Info("registered udp client", zap.String("client_id", msg.ClientID), zap.String("addr", from.String()))
		case UnregisterMessageType:
			s.registry.Remove(msg.ClientID)
		}
	}
}

func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// Handle sends item events to every registered client. It satisfies
// events.Listener; Ready is not forwarded.
func (s *Server) Handle(ev events.Event) {
	if ev.Kind() == events.KindReady {
		return
	}
	s.Broadcast(events.NewEnvelope(ev, time.Now()))
}

func (s *Server) Broadcast(env events.Envelope) {
	s.mu.Lock()
	running := s.conn != nil
	s.mu.Unlock()
	if !running {
		s.log.Debug("udp notify server not running")
		return
	}

	payload, err := json.Marshal(env)
	if err != nil {
		s.log.Error("marshal broadcast", zap.Error(err))
		return
	}

	for _, client := range s.registry.Snapshot() {
		s.sendWithRetry(client, payload)
	}
}

// sendWithRetry tries twice, then forgets the client.
func (s *Server) sendWithRetry(client Client, payload []byte) {
	if err := s.sendOnce(client, payload); err == nil {
		return
	}
	if err := s.sendOnce(client, payload); err != nil {
		s.log.Warn("notify failed, removing client",
			zap.String("client_id", client.ClientID),
			zap.Error(err),
		)
		s.registry.Remove(client.ClientID)
	}
}

func (s *Server) sendOnce(client Client, payload []byte) error {
	if client.Addr == nil {
		return errors.New("missing client address")
	}
	_, err := s.conn.WriteToUDP(payload, client.Addr)
	return err
}

func parseRegisterMessage(data []byte) (RegisterMessage, error) {
	var msg RegisterMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, err
	}
	if msg.ClientID == "" || msg.Type == "" {
		return msg, errors.New("missing required fields")
	}
	return msg, nil
}
