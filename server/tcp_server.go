package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"poker-rooms/engine"
	"poker-rooms/models"
)

// client is one TCP connection and the rooms it follows.
type client struct {
	conn    net.Conn
	writeMu sync.Mutex
	rooms   map[string]bool
}

func (c *client) writeJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err = c.conn.Write(data)
	return err
}

// TCPServer speaks newline-delimited JSON. Every command a connection sends
// for a room subscribes it to that room's events.
type TCPServer struct {
	address  string
	listener net.Listener
	handler  *CommandHandler
	events   <-chan models.Event
	log      *zap.Logger

	mu       sync.Mutex
	clients  map[*client]struct{}
	ready    chan struct{}
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewTCPServer(address string, tableManager *engine.TableManager, events <-chan models.Event, log *zap.Logger) *TCPServer {
	if log == nil {
		log = zap.NewNop()
	}
	return &TCPServer{
		address:  address,
		handler:  NewCommandHandler(tableManager),
		events:   events,
		log:      log,
		clients:  make(map[*client]struct{}),
		ready:    make(chan struct{}),
		stopChan: make(chan struct{}),
	}
}

func (s *TCPServer) Start() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	close(s.ready)
	s.log.Info("tcp server listening", zap.String("addr", listener.Addr().String()))

	go s.eventBroadcaster()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.stopChan:
				return nil
			default:
			}
			s.log.Warn("accept failed", zap.Error(err))
			continue
		}

		c := &client{conn: conn, rooms: make(map[string]bool)}
		s.mu.Lock()
		s.clients[c] = struct{}{}
		s.mu.Unlock()
		s.log.Debug("client connected", zap.String("remote", conn.RemoteAddr().String()))

		go s.handleConnection(c)
	}
}

// Addr blocks until the listener is up.
func (s *TCPServer) Addr() net.Addr {
	<-s.ready
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener.Addr()
}

func (s *TCPServer) handleConnection(c *client) {
	defer func() {
		c.conn.Close()
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
		s.log.Debug("client disconnected", zap.String("remote", c.conn.RemoteAddr().String()))
	}()

	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		var cmd models.Command
		if err := json.Unmarshal(scanner.Bytes(), &cmd); err != nil {
			s.sendResponse(c, models.Response{
				Success: false,
				Error:   fmt.Sprintf("invalid JSON: %v", err),
				Code:    engine.ErrInvalidAction.Code,
			})
			continue
		}

		// subscribe before dispatch so the command's own events reach the sender
		target := s.prepareTarget(&cmd)
		wasSubscribed := s.subscribe(c, target)

		response, roomID := s.handler.Handle(context.Background(), cmd)
		if roomID != "" {
			s.subscribe(c, roomID)
		} else if target != "" && !wasSubscribed {
			s.unsubscribe(c, target)
		}
		s.sendResponse(c, response)
	}

	if err := scanner.Err(); err != nil {
		s.log.Debug("scanner error", zap.Error(err))
	}
}

// prepareTarget returns the room a command addresses. A room.create without
// an id gets one minted here so the creator can subscribe up front.
func (s *TCPServer) prepareTarget(cmd *models.Command) string {
	if cmd.Command == "room.create" && getString(cmd.Data, "tableId") == "" {
		if cmd.Data == nil {
			cmd.Data = make(map[string]interface{})
		}
		cmd.Data["tableId"] = uuid.NewString()
	}
	return getString(cmd.Data, "tableId")
}

// subscribe reports whether c already followed roomID.
func (s *TCPServer) subscribe(c *client, roomID string) bool {
	if roomID == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	had := c.rooms[roomID]
	c.rooms[roomID] = true
	return had
}

func (s *TCPServer) unsubscribe(c *client, roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(c.rooms, roomID)
}

func (s *TCPServer) sendResponse(c *client, response models.Response) {
	if err := c.writeJSON(response); err != nil {
		s.log.Debug("error writing response", zap.Error(err))
	}
}

func (s *TCPServer) subscribers(roomID string) []*client {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*client
	for c := range s.clients {
		if c.rooms[roomID] {
			out = append(out, c)
		}
	}
	return out
}

func (s *TCPServer) eventBroadcaster() {
	for {
		select {
		case <-s.stopChan:
			return
		case event, ok := <-s.events:
			if !ok {
				return
			}
			for _, c := range s.subscribers(event.TableID) {
				if err := c.writeJSON(event); err != nil {
					s.log.Debug("error writing event", zap.Error(err))
				}
			}
		}
	}
}

func (s *TCPServer) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.listener != nil {
			s.listener.Close()
		}
		for c := range s.clients {
			c.conn.Close()
		}
	})
}
