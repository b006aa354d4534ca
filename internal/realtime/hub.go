// Package realtime fans content mutations out to websocket viewers.
//
// Connections are grouped into rooms named content-<id>. Room members get
// contentUpdated and contentDeleted for that document; every connection gets
// contentListUpdated for any document. Delivery is at most once: a connection
// whose outbound buffer is full misses the message.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/inkframe/cms-api/internal/core/domain"
	"github.com/inkframe/cms-api/internal/core/ports"
	"github.com/inkframe/cms-api/internal/metrics"
)

// Event names on the wire.
const (
	EventJoinRoom           = "joinContentRoom"
	EventLeaveRoom          = "leaveContentRoom"
	EventContentUpdated     = "contentUpdated"
	EventContentDeleted     = "contentDeleted"
	EventContentListUpdated = "contentListUpdated"
)

const defaultSendBuffer = 32

var (
	ErrUnknownConnection = errors.New("unknown connection")
	ErrEmptyRoom         = errors.New("content id is required")
)

// Frame is the JSON envelope of every websocket message.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// RoomName returns the room of a content document.
func RoomName(contentID string) string {
	return "content-" + contentID
}

type member struct {
	send  chan []byte
	rooms map[string]struct{}
}

// Hub is the registry of live connections and their rooms.
type Hub struct {
	mu         sync.RWMutex
	conns      map[string]*member
	rooms      map[string]map[string]*member
	sendBuffer int
	log        zerolog.Logger
}

func NewHub(sendBuffer int, log zerolog.Logger) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBuffer
	}
	return &Hub{
		conns:      make(map[string]*member),
		rooms:      make(map[string]map[string]*member),
		sendBuffer: sendBuffer,
		log:        log,
	}
}

// Register adds a connection and returns the channel its outbound frames
// arrive on. The channel is closed by Unregister.
func (h *Hub) Register(connID string) <-chan []byte {
	m := &member{
		send:  make(chan []byte, h.sendBuffer),
		rooms: make(map[string]struct{}),
	}

	h.mu.Lock()
	if old, ok := h.conns[connID]; ok {
		h.removeLocked(connID, old)
	}
	h.conns[connID] = m
	h.mu.Unlock()

	metrics.RealtimeConnections.Inc()
	return m.send
}

// Unregister removes the connection from every room and closes its channel.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	m, ok := h.conns[connID]
	if ok {
		h.removeLocked(connID, m)
	}
	h.mu.Unlock()

	if ok {
		metrics.RealtimeConnections.Dec()
	}
}

func (h *Hub) removeLocked(connID string, m *member) {
	for room := range m.rooms {
		if members := h.rooms[room]; members != nil {
			delete(members, connID)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	delete(h.conns, connID)
	close(m.send)
}

func (h *Hub) Join(connID, contentID string) error {
	if contentID == "" {
		return ErrEmptyRoom
	}
	room := RoomName(contentID)

	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[connID]
	if !ok {
		return ErrUnknownConnection
	}
	members := h.rooms[room]
	if members == nil {
		members = make(map[string]*member)
		h.rooms[room] = members
	}
	members[connID] = m
	m.rooms[room] = struct{}{}
	return nil
}

func (h *Hub) Leave(connID, contentID string) error {
	if contentID == "" {
		return ErrEmptyRoom
	}
	room := RoomName(contentID)

	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[connID]
	if !ok {
		return ErrUnknownConnection
	}
	delete(m.rooms, room)
	if members := h.rooms[room]; members != nil {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	return nil
}

// BroadcastUpdated sends contentUpdated to the document's room and
// contentListUpdated to every connection.
func (h *Hub) BroadcastUpdated(content *domain.Content) error {
	if content == nil {
		return errors.New("broadcast updated: nil content")
	}
	roomFrame, err := encodeFrame(EventContentUpdated, content)
	if err != nil {
		return err
	}
	listFrame, err := encodeFrame(EventContentListUpdated, content)
	if err != nil {
		return err
	}
	h.fanOut(RoomName(content.ID), EventContentUpdated, roomFrame, listFrame)
	return nil
}

// BroadcastDeleted sends contentDeleted to the document's room and
// contentListUpdated {deleted: id} to every connection.
func (h *Hub) BroadcastDeleted(contentID string) error {
	roomFrame, err := encodeFrame(EventContentDeleted, contentID)
	if err != nil {
		return err
	}
	listFrame, err := encodeFrame(EventContentListUpdated, map[string]string{"deleted": contentID})
	if err != nil {
		return err
	}
	h.fanOut(RoomName(contentID), EventContentDeleted, roomFrame, listFrame)
	return nil
}

// Publish implements ports.ContentPublisher for the local hub.
func (h *Hub) Publish(_ context.Context, event ports.ContentEvent) error {
	switch event.Kind {
	case ports.ContentUpdated:
		return h.BroadcastUpdated(event.Content)
	case ports.ContentDeleted:
		return h.BroadcastDeleted(event.ContentID)
	}
	return fmt.Errorf("unknown content event kind %q", event.Kind)
}

func (h *Hub) fanOut(room, roomEvent string, roomFrame, listFrame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, m := range h.rooms[room] {
		h.deliver(id, m, roomEvent, roomFrame)
	}
	for id, m := range h.conns {
		h.deliver(id, m, EventContentListUpdated, listFrame)
	}
}

func (h *Hub) deliver(connID string, m *member, event string, frame []byte) {
	select {
	case m.send <- frame:
		metrics.RealtimeMessagesTotal.WithLabelValues(event).Inc()
	default:
		metrics.RealtimeDroppedTotal.WithLabelValues("connection").Inc()
		h.log.Warn().Str("conn_id", connID).Str("event", event).Msg("outbound buffer full, dropping message")
	}
}

// ConnectionCount returns the number of registered connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// RoomSize returns the number of members of the content's room.
func (h *Hub) RoomSize(contentID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[RoomName(contentID)])
}

func encodeFrame(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return json.Marshal(Frame{Event: event, Data: raw})
}
