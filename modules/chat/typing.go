package chat

import (
	"slices"
	"time"
)

// DefaultTypingTimeout is how long a typing indicator survives without a
// fresh typing:start.
const DefaultTypingTimeout = 3 * time.Second

type typingKey struct {
	username string
	room     RoomID
}

type typingEntry struct {
	timer    *time.Timer
	gen      uint64
	deadline time.Time
}

// ExpireFunc is called from a timer goroutine when an entry's window
// elapses. gen identifies the arming that fired.
type ExpireFunc func(username string, room RoomID, gen uint64)

// TypingTracker holds per-(user, room) typing indicators. Every armed
// entry owns a timer; re-arming or stopping cancels it, and a timer that
// loses that race is ignored through its generation. Not safe for
// concurrent use on its own.
type TypingTracker struct {
	window   time.Duration
	entries  map[typingKey]*typingEntry
	gen      uint64
	onExpire ExpireFunc
	now      func() time.Time
}

// NewTypingTracker creates a tracker that expires entries after window.
func NewTypingTracker(window time.Duration, onExpire ExpireFunc) *TypingTracker {
	if window <= 0 {
		window = DefaultTypingTimeout
	}
	return &TypingTracker{
		window:   window,
		entries:  make(map[typingKey]*typingEntry),
		onExpire: onExpire,
		now:      time.Now,
	}
}

// Start marks username as typing in room, resetting any pending expiry,
// and returns the room's current typers.
func (t *TypingTracker) Start(username string, room RoomID) []string {
	key := typingKey{username: username, room: room}
	if e, ok := t.entries[key]; ok {
		e.timer.Stop()
	}

	t.gen++
	gen := t.gen
	entry := &typingEntry{gen: gen, deadline: t.now().Add(t.window)}
	entry.timer = time.AfterFunc(t.window, func() {
		if t.onExpire != nil {
			t.onExpire(username, room, gen)
		}
	})
	t.entries[key] = entry
	return t.CurrentTypers(room)
}

// Stop clears username's indicator in room and returns the room's
// current typers.
func (t *TypingTracker) Stop(username string, room RoomID) []string {
	t.remove(typingKey{username: username, room: room})
	return t.CurrentTypers(room)
}

// Expire removes the entry armed as gen. It reports false when the entry
// was since re-armed or stopped.
func (t *TypingTracker) Expire(username string, room RoomID, gen uint64) bool {
	key := typingKey{username: username, room: room}
	e, ok := t.entries[key]
	if !ok || e.gen != gen {
		return false
	}
	delete(t.entries, key)
	return true
}

// CurrentTypers returns the sorted usernames typing in room. Entries past
// their deadline are skipped even if their timer has not fired yet.
func (t *TypingTracker) CurrentTypers(room RoomID) []string {
	now := t.now()
	typers := []string{}
	for key, e := range t.entries {
		if key.room == room && now.Before(e.deadline) {
			typers = append(typers, key.username)
		}
	}
	slices.Sort(typers)
	return typers
}

// RemoveUser clears every indicator held by username and returns the
// affected rooms.
func (t *TypingTracker) RemoveUser(username string) []RoomID {
	var rooms []RoomID
	for key := range t.entries {
		if key.username == username {
			rooms = append(rooms, key.room)
			t.remove(key)
		}
	}
	return rooms
}

// Close cancels every pending timer.
func (t *TypingTracker) Close() {
	for key := range t.entries {
		t.remove(key)
	}
}

func (t *TypingTracker) remove(key typingKey) {
	if e, ok := t.entries[key]; ok {
		e.timer.Stop()
		delete(t.entries, key)
	}
}
