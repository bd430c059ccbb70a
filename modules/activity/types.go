package activity

import "time"

// ServiceRecentActivity is the request-reply service name.
const ServiceRecentActivity = "recent-activity"

// Entry types.
const (
	TypeLogin    = "login"
	TypeLogout   = "logout"
	TypeMessage  = "message"
	TypeRoomJoin = "room_join"
)

// Entry is one item of the activity feed.
type Entry struct {
	Type      string    `json:"type"`
	Username  string    `json:"username"`
	Room      string    `json:"room,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Counters totals the events seen since start.
type Counters struct {
	Logins          int `json:"logins"`
	Departures      int `json:"departures"`
	Messages        int `json:"messages"`
	PrivateMessages int `json:"private_messages"`
	RoomJoins       int `json:"room_joins"`
}

type RecentActivityRequest struct {
	Limit int `json:"limit"`
}

type RecentActivityResponse struct {
	Counters Counters `json:"counters"`
	Entries  []Entry  `json:"entries"`
}
