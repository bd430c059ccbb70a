package chat

import (
	domain "github.com/example/realtime-chat/domain/chat"
)

// History defaults.
const (
	DefaultHistoryLimit = 100
	DefaultPageSize     = 50
)

// historyBuffer is a fixed-capacity ring of messages in arrival order.
type historyBuffer struct {
	items []domain.Message
	head  int // index of the oldest message
	size  int
}

func newHistoryBuffer(capacity int) *historyBuffer {
	return &historyBuffer{items: make([]domain.Message, capacity)}
}

func (b *historyBuffer) push(msg domain.Message) {
	capacity := len(b.items)
	if b.size < capacity {
		b.items[(b.head+b.size)%capacity] = msg
		b.size++
		return
	}
	b.items[b.head] = msg
	b.head = (b.head + 1) % capacity
}

// last copies the newest n messages, oldest first.
func (b *historyBuffer) last(n int) []domain.Message {
	if n > b.size {
		n = b.size
	}
	out := make([]domain.Message, n)
	start := b.head + b.size - n
	for i := range n {
		out[i] = b.items[(start+i)%len(b.items)]
	}
	return out
}

// MessageStore keeps a bounded history per room. Broadcast rooms and
// private channels are capped independently. Not safe for concurrent use
// on its own.
type MessageStore struct {
	capacity int
	pageSize int
	rooms    map[RoomID]*historyBuffer
}

// NewMessageStore creates a store that keeps the newest capacity messages
// per room and returns pageSize messages when no limit is given.
func NewMessageStore(capacity, pageSize int) *MessageStore {
	if capacity <= 0 {
		capacity = DefaultHistoryLimit
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &MessageStore{
		capacity: capacity,
		pageSize: pageSize,
		rooms:    make(map[RoomID]*historyBuffer),
	}
}

// Append stores msg, evicting the oldest message once the room is full.
func (s *MessageStore) Append(room RoomID, msg domain.Message) {
	buf, ok := s.rooms[room]
	if !ok {
		buf = newHistoryBuffer(s.capacity)
		s.rooms[room] = buf
	}
	buf.push(msg)
}

// Recent returns up to limit of the newest messages, oldest first. A limit
// of zero or less selects the default page size. The result is a copy and
// is never nil.
func (s *MessageStore) Recent(room RoomID, limit int) []domain.Message {
	if limit <= 0 {
		limit = s.pageSize
	}
	buf, ok := s.rooms[room]
	if !ok {
		return []domain.Message{}
	}
	return buf.last(limit)
}

// RecentPrivate returns the history of the channel between a and b.
func (s *MessageStore) RecentPrivate(a, b string, limit int) []domain.Message {
	return s.Recent(PrivateRoom(a, b), limit)
}

// Len returns the number of messages stored for room.
func (s *MessageStore) Len(room RoomID) int {
	if buf, ok := s.rooms[room]; ok {
		return buf.size
	}
	return 0
}

// Has reports whether anything was ever stored for room.
func (s *MessageStore) Has(room RoomID) bool {
	_, ok := s.rooms[room]
	return ok
}
