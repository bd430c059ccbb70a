package chat

import "strings"

// GeneralRoom is the broadcast room every user joins at login.
const GeneralRoom = "general"

const (
	// privateAddressPrefix is how a client addresses a private channel: "private-<peer>".
	privateAddressPrefix = "private-"
	// privateWirePrefix prefixes the canonical private channel id on the wire.
	privateWirePrefix = "private:"
)

// RoomKind distinguishes broadcast rooms from private channels.
type RoomKind uint8

const (
	KindBroadcast RoomKind = iota
	KindPrivate
)

// RoomID identifies a broadcast room or a private two-party channel.
// It is comparable and used directly as a map key.
type RoomID struct {
	kind RoomKind
	name string
	pair [2]string
}

// BroadcastRoom returns the id of a named broadcast room.
func BroadcastRoom(name string) RoomID {
	return RoomID{kind: KindBroadcast, name: name}
}

// PrivateRoom returns the canonical channel for two usernames. The
// argument order does not matter.
func PrivateRoom(a, b string) RoomID {
	if b < a {
		a, b = b, a
	}
	return RoomID{kind: KindPrivate, pair: [2]string{a, b}}
}

// Kind returns the room kind.
func (r RoomID) Kind() RoomKind { return r.kind }

// IsPrivate reports whether r is a private channel.
func (r RoomID) IsPrivate() bool { return r.kind == KindPrivate }

// Participants returns the sorted usernames of a private channel.
func (r RoomID) Participants() (string, string) { return r.pair[0], r.pair[1] }

// Includes reports whether username is a participant of a private channel.
func (r RoomID) Includes(username string) bool {
	return r.kind == KindPrivate && (r.pair[0] == username || r.pair[1] == username)
}

// Peer returns the participant that is not self.
func (r RoomID) Peer(self string) (string, bool) {
	switch {
	case r.kind != KindPrivate:
		return "", false
	case r.pair[0] == self:
		return r.pair[1], true
	case r.pair[1] == self:
		return r.pair[0], true
	}
	return "", false
}

// String returns the wire form: the room name, or private:<a>:<b>.
func (r RoomID) String() string {
	if r.kind == KindPrivate {
		return privateWirePrefix + r.pair[0] + usernameSeparator + r.pair[1]
	}
	return r.name
}

// ParseRoomID resolves a room as addressed by self. "private-<peer>" names
// the private channel between self and peer, where peer must be a valid
// username; anything else is a broadcast room name.
func ParseRoomID(self, raw string) (RoomID, error) {
	if raw == "" {
		return RoomID{}, validationError(msgRoomRequired)
	}

	if peer, ok := strings.CutPrefix(raw, privateAddressPrefix); ok {
		if peer == "" {
			return RoomID{}, validationError(msgRoomRequired)
		}
		if err := ValidateUsername(peer); err != nil {
			return RoomID{}, err
		}
		if peer == self {
			return RoomID{}, validationError(msgPrivateSelf)
		}
		return PrivateRoom(self, peer), nil
	}

	if err := ValidateRoomName(raw); err != nil {
		return RoomID{}, err
	}
	return BroadcastRoom(raw), nil
}
