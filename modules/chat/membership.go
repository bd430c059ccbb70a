package chat

import (
	"slices"
	"strings"

	domain "github.com/example/realtime-chat/domain/chat"
)

// Membership indexes broadcast room membership as room -> connID -> user.
// Private channels never appear here; their membership is the pair
// encoded in the RoomID. Not safe for concurrent use on its own.
type Membership struct {
	index map[RoomID]map[string]*User
}

// NewMembership creates an empty membership table.
func NewMembership() *Membership {
	return &Membership{index: make(map[RoomID]map[string]*User)}
}

// Join adds room to the user's rooms. It reports whether membership changed.
func (m *Membership) Join(u *User, room RoomID) bool {
	if room.IsPrivate() || m.IsMember(u, room) {
		return false
	}
	members, ok := m.index[room]
	if !ok {
		members = make(map[string]*User)
		m.index[room] = members
	}
	members[u.ConnID] = u
	u.rooms = append(u.rooms, room)
	return true
}

// IsMember reports whether u may receive traffic for room.
func (m *Membership) IsMember(u *User, room RoomID) bool {
	if room.IsPrivate() {
		return room.Includes(u.Username)
	}
	_, ok := m.index[room][u.ConnID]
	return ok
}

// Members returns the users joined to a broadcast room.
func (m *Membership) Members(room RoomID) []*User {
	members := m.index[room]
	users := make([]*User, 0, len(members))
	for _, u := range members {
		users = append(users, u)
	}
	return users
}

// Forget drops u from every room it joined. Empty rooms are pruned from
// the index; their history is kept by the MessageStore.
func (m *Membership) Forget(u *User) {
	for _, room := range u.rooms {
		members := m.index[room]
		delete(members, u.ConnID)
		if len(members) == 0 {
			delete(m.index, room)
		}
	}
}

// Count returns the number of users joined to room.
func (m *Membership) Count(room RoomID) int {
	return len(m.index[room])
}

// Rooms summarizes every broadcast room with at least one member, plus
// the default room, ordered by name.
func (m *Membership) Rooms() []domain.Room {
	general := BroadcastRoom(GeneralRoom)
	rooms := []domain.Room{{ID: GeneralRoom, Members: len(m.index[general])}}
	for id, members := range m.index {
		if id == general {
			continue
		}
		rooms = append(rooms, domain.Room{ID: id.String(), Members: len(members)})
	}
	slices.SortFunc(rooms[1:], func(a, b domain.Room) int {
		return strings.Compare(a.ID, b.ID)
	})
	return rooms
}
