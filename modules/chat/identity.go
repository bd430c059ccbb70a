package chat

import (
	"slices"
	"strings"
	"time"

	domain "github.com/example/realtime-chat/domain/chat"
)

// User is a connected identity. Records are owned by the Registry and
// mutated only while the Coordinator lock is held.
type User struct {
	Username string
	ConnID   string
	Online   bool
	LastSeen time.Time

	rooms []RoomID
}

// Rooms returns the broadcast rooms the user has joined, in join order.
func (u *User) Rooms() []RoomID {
	return slices.Clone(u.rooms)
}

func (u *User) roomNames() []string {
	names := make([]string, 0, len(u.rooms))
	for _, r := range u.rooms {
		names = append(names, r.String())
	}
	return names
}

func (u *User) snapshot() domain.User {
	return domain.User{
		Username: u.Username,
		Online:   u.Online,
		LastSeen: u.LastSeen,
		Rooms:    u.roomNames(),
	}
}

// Registry maps live connections to users and keeps usernames unique
// among connected users. It is not safe for concurrent use on its own.
type Registry struct {
	byConn map[string]*User
	byName map[string]*User
	now    func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byConn: make(map[string]*User),
		byName: make(map[string]*User),
		now:    time.Now,
	}
}

// Login binds username to connID. The returned user has no rooms yet;
// the caller joins the default room.
func (r *Registry) Login(connID, username string) (*User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if _, ok := r.byConn[connID]; ok {
		return nil, conflictError(msgAlreadyLoggedIn)
	}
	if _, ok := r.byName[username]; ok {
		return nil, conflictError(msgUsernameTaken)
	}

	user := &User{
		Username: username,
		ConnID:   connID,
		Online:   true,
		LastSeen: r.now(),
	}
	r.byConn[connID] = user
	r.byName[username] = user
	return user, nil
}

// ByConnection returns the user bound to connID.
func (r *Registry) ByConnection(connID string) (*User, bool) {
	u, ok := r.byConn[connID]
	return u, ok
}

// ByUsername returns the connected user with the given name.
func (r *Registry) ByUsername(username string) (*User, bool) {
	u, ok := r.byName[username]
	return u, ok
}

// Remove evicts the user bound to connID. It reports false when nothing
// was bound, so repeated calls are harmless.
func (r *Registry) Remove(connID string) (*User, bool) {
	user, ok := r.byConn[connID]
	if !ok {
		return nil, false
	}
	delete(r.byConn, connID)
	if cur, ok := r.byName[user.Username]; ok && cur == user {
		delete(r.byName, user.Username)
	}
	user.Online = false
	user.LastSeen = r.now()
	return user, true
}

// Len returns the number of connected users.
func (r *Registry) Len() int {
	return len(r.byConn)
}

// Users returns every connected user ordered by username.
func (r *Registry) Users() []domain.User {
	users := make([]domain.User, 0, len(r.byConn))
	for _, u := range r.byConn {
		users = append(users, u.snapshot())
	}
	slices.SortFunc(users, func(a, b domain.User) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users
}
