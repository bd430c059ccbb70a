package chat

import "time"

// Message represents a chat message as it travels over the wire.
type Message struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	Room      string `json:"room"`
}

// User represents a connected user in user:list payloads.
type User struct {
	Username string    `json:"username"`
	Online   bool      `json:"online"`
	LastSeen time.Time `json:"lastSeen"`
	Rooms    []string  `json:"rooms"`
}

// Notification is pushed to every connection when presence changes.
type Notification struct {
	Type      string `json:"type"` // "user:joined", "user:left"
	Username  string `json:"username"`
	Timestamp string `json:"timestamp"`
}

// Room summarizes a broadcast room for listings.
type Room struct {
	ID      string `json:"id"`
	Members int    `json:"members"`
}
