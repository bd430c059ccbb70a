package chat

import (
	"strings"
	"unicode/utf8"

	domain "github.com/example/realtime-chat/domain/chat"
)

// Validation constants
const (
	MinUsernameLength = 3
	MaxUsernameLength = 50
	MaxRoomNameLength = 100
	MaxMessageLength  = 5000
)

// usernameSeparator delimits the participants of a private channel id, so
// it cannot appear in a username.
const usernameSeparator = ":"

// ValidateUsername validates a proposed display name.
func ValidateUsername(username string) error {
	if !utf8.ValidString(username) || strings.Contains(username, usernameSeparator) {
		return validationError(msgUsernameInvalid)
	}
	n := utf8.RuneCountInString(username)
	if n < MinUsernameLength {
		return validationError(msgUsernameShort)
	}
	if n > MaxUsernameLength {
		return validationError(msgUsernameLong)
	}
	return nil
}

// ValidateRoomName validates a broadcast room name.
func ValidateRoomName(name string) error {
	if name == "" {
		return validationError(msgRoomRequired)
	}
	if utf8.RuneCountInString(name) > MaxRoomNameLength {
		return validationError(msgRoomTooLong)
	}
	if !utf8.ValidString(name) || strings.HasPrefix(name, privateWirePrefix) {
		return validationError(msgRoomInvalid)
	}
	return nil
}

// ValidateMessage validates message text against maxLength runes.
func ValidateMessage(text string, maxLength int) error {
	if strings.TrimSpace(text) == "" {
		return validationError(msgTextRequired)
	}
	if !utf8.ValidString(text) {
		return validationError(msgTextInvalid)
	}
	if maxLength > 0 && utf8.RuneCountInString(text) > maxLength {
		return validationError(msgTextTooLong)
	}
	return nil
}

// LoginUser is the identity echoed back on login.
type LoginUser struct {
	Username string   `json:"username"`
	Rooms    []string `json:"rooms"`
}

// LoginResult is the acknowledgment of a successful login.
type LoginResult struct {
	Success  bool             `json:"success"`
	User     LoginUser        `json:"user"`
	Messages []domain.Message `json:"messages"`
}

// SendResult echoes a stored message to its sender.
type SendResult struct {
	Success bool           `json:"success"`
	Message domain.Message `json:"message"`
}

// JoinResult is the acknowledgment of room:join.
type JoinResult struct {
	Success  bool             `json:"success"`
	Room     string           `json:"room"`
	Messages []domain.Message `json:"messages"`
}

// Service names registered in the chat module's service container.
const (
	ServiceListUsers  = "list-users"
	ServiceListRooms  = "list-rooms"
	ServiceGetHistory = "get-history"
)

// ListUsersRequest is the request for the list-users service.
type ListUsersRequest struct{}

// ListUsersResponse is the response of the list-users service.
type ListUsersResponse struct {
	Users []domain.User `json:"users"`
}

// ListRoomsRequest is the request for the list-rooms service.
type ListRoomsRequest struct{}

// ListRoomsResponse is the response of the list-rooms service.
type ListRoomsResponse struct {
	Rooms []domain.Room `json:"rooms"`
}

// GetHistoryRequest is the request for the get-history service.
type GetHistoryRequest struct {
	Room  string `json:"room"`
	Limit int    `json:"limit"`
}

// GetHistoryResponse is the response of the get-history service. Kind and
// Error are set when the lookup failed.
type GetHistoryResponse struct {
	Room     string           `json:"room"`
	Messages []domain.Message `json:"messages"`
	Kind     string           `json:"kind,omitempty"`
	Error    string           `json:"error,omitempty"`
}
