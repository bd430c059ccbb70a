package chat

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	domain "github.com/example/realtime-chat/domain/chat"
	"github.com/go-monolith/mono/pkg/types"
	nanoid "github.com/jaevor/go-nanoid"
)

// Pushed event names.
const (
	EventMessageNew   = "message:new"
	EventUserList     = "user:list"
	EventNotification = "notification"
	EventTypingUpdate = "typing:update"
)

// Notification types.
const (
	NotifyUserJoined = "user:joined"
	NotifyUserLeft   = "user:left"
)

// timestampLayout renders ISO-8601 UTC timestamps with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Event is a server push addressed to one or more connections.
type Event struct {
	Name string
	Data any
}

// Transport delivers pushes to live connections. Implementations must not
// block: a slow or gone connection drops the event.
type Transport interface {
	Send(connID string, event Event)
	Broadcast(event Event)
}

// Publisher is notified of domain changes after a command completes.
type Publisher interface {
	MessageSent(msg domain.Message, at time.Time)
	UserJoined(username string, at time.Time)
	UserLeft(username string, at time.Time)
	RoomJoined(username, room string, at time.Time)
}

// Options tunes a Coordinator.
type Options struct {
	HistoryLimit     int
	PageSize         int
	TypingTimeout    time.Duration
	MaxMessageLength int
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		HistoryLimit:     DefaultHistoryLimit,
		PageSize:         DefaultPageSize,
		TypingTimeout:    DefaultTypingTimeout,
		MaxMessageLength: MaxMessageLength,
	}
}

// Coordinator runs the chat protocol. A single mutex serializes every
// command against the registry, membership table, message store and
// typing tracker.
type Coordinator struct {
	mu         sync.Mutex
	registry   *Registry
	membership *Membership
	store      *MessageStore
	typing     *TypingTracker

	transport Transport
	publisher Publisher
	logger    types.Logger

	outbox []func(Publisher)

	maxMessageLength int
	pageSize         int
	newSuffix        func() string
	now              func() time.Time
}

// NewCoordinator creates a Coordinator that pushes through transport.
func NewCoordinator(transport Transport, logger types.Logger, opts Options) (*Coordinator, error) {
	if transport == nil {
		return nil, fmt.Errorf("chat: transport is nil")
	}
	suffix, err := nanoid.CustomASCII(idAlphabet, 8)
	if err != nil {
		return nil, fmt.Errorf("failed to create message id generator: %w", err)
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.MaxMessageLength <= 0 {
		opts.MaxMessageLength = MaxMessageLength
	}

	c := &Coordinator{
		registry:         NewRegistry(),
		membership:       NewMembership(),
		store:            NewMessageStore(opts.HistoryLimit, opts.PageSize),
		transport:        transport,
		logger:           logger,
		maxMessageLength: opts.MaxMessageLength,
		pageSize:         opts.PageSize,
		newSuffix:        suffix,
		now:              time.Now,
	}
	c.typing = NewTypingTracker(opts.TypingTimeout, c.expireTyping)
	return c, nil
}

// SetPublisher installs the domain event publisher.
func (c *Coordinator) SetPublisher(p Publisher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publisher = p
}

// Login authenticates connID as username and joins the default room.
func (c *Coordinator) Login(connID, username string) (*LoginResult, error) {
	c.mu.Lock()
	defer c.unlock()

	user, err := c.registry.Login(connID, username)
	if err != nil {
		return nil, err
	}
	general := BroadcastRoom(GeneralRoom)
	c.membership.Join(user, general)

	now := c.now()
	c.broadcastUserList()
	c.transport.Broadcast(Event{Name: EventNotification, Data: domain.Notification{
		Type:      NotifyUserJoined,
		Username:  user.Username,
		Timestamp: formatTimestamp(now),
	}})
	c.emit(func(p Publisher) { p.UserJoined(user.Username, now) })

	c.logger.Info("User logged in", "username", user.Username, "connID", connID)
	return &LoginResult{
		Success:  true,
		User:     LoginUser{Username: user.Username, Rooms: user.roomNames()},
		Messages: c.store.Recent(general, c.pageSize),
	}, nil
}

// SendMessage stores text in room and delivers it to the room's members,
// or to the other participant of a private channel when connected.
func (c *Coordinator) SendMessage(connID, room, text string) (*SendResult, error) {
	c.mu.Lock()
	defer c.unlock()

	user, err := c.authenticated(connID)
	if err != nil {
		return nil, err
	}
	roomID, err := ParseRoomID(user.Username, room)
	if err != nil {
		return nil, err
	}
	if err := ValidateMessage(text, c.maxMessageLength); err != nil {
		return nil, err
	}
	if !c.membership.IsMember(user, roomID) {
		return nil, unauthorizedError(msgNotMember)
	}

	now := c.now()
	msg := domain.Message{
		ID:        c.messageID(now),
		From:      user.Username,
		Text:      text,
		Timestamp: formatTimestamp(now),
		Room:      roomID.String(),
	}
	c.store.Append(roomID, msg)

	push := Event{Name: EventMessageNew, Data: msg}
	if roomID.IsPrivate() {
		peer, _ := roomID.Peer(user.Username)
		if recipient, ok := c.registry.ByUsername(peer); ok {
			c.transport.Send(recipient.ConnID, push)
		}
	} else {
		for _, member := range c.membership.Members(roomID) {
			c.transport.Send(member.ConnID, push)
		}
	}
	c.emit(func(p Publisher) { p.MessageSent(msg, now) })

	c.logger.Debug("Message sent", "from", user.Username, "room", msg.Room, "messageID", msg.ID)
	return &SendResult{Success: true, Message: msg}, nil
}

// JoinRoom joins a broadcast room, or opens a private channel, and returns
// its recent history. The echoed room is the name the client asked for.
func (c *Coordinator) JoinRoom(connID, room string) (*JoinResult, error) {
	c.mu.Lock()
	defer c.unlock()

	user, err := c.authenticated(connID)
	if err != nil {
		return nil, err
	}
	roomID, err := ParseRoomID(user.Username, room)
	if err != nil {
		return nil, err
	}

	if c.membership.Join(user, roomID) {
		c.broadcastUserList()
		at := c.now()
		c.emit(func(p Publisher) { p.RoomJoined(user.Username, roomID.String(), at) })
		c.logger.Info("User joined room", "username", user.Username, "room", roomID.String())
	}

	return &JoinResult{
		Success:  true,
		Room:     room,
		Messages: c.store.Recent(roomID, c.pageSize),
	}, nil
}

// TypingStart marks the user as typing in room and pushes the room's
// typing set.
func (c *Coordinator) TypingStart(connID, room string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	user, roomID, err := c.typingTarget(connID, room)
	if err != nil {
		return err
	}
	c.pushTyping(roomID, c.typing.Start(user.Username, roomID))
	return nil
}

// TypingStop clears the user's typing indicator in room and pushes the
// room's typing set.
func (c *Coordinator) TypingStop(connID, room string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	user, roomID, err := c.typingTarget(connID, room)
	if err != nil {
		return err
	}
	c.pushTyping(roomID, c.typing.Stop(user.Username, roomID))
	return nil
}

// GetHistory returns the default page of history for room, or for the
// default room when room is empty.
func (c *Coordinator) GetHistory(connID, room string) ([]domain.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	user, err := c.authenticated(connID)
	if err != nil {
		return nil, err
	}
	if room == "" {
		room = GeneralRoom
	}
	roomID, err := ParseRoomID(user.Username, room)
	if err != nil {
		return nil, err
	}
	return c.store.Recent(roomID, c.pageSize), nil
}

// Disconnect releases everything held by connID. It reports whether a
// user was removed; only then are departure events pushed.
func (c *Coordinator) Disconnect(connID string) bool {
	c.mu.Lock()
	defer c.unlock()

	user, ok := c.registry.Remove(connID)
	if !ok {
		return false
	}
	c.membership.Forget(user)
	for _, room := range c.typing.RemoveUser(user.Username) {
		c.pushTyping(room, c.typing.CurrentTypers(room))
	}

	c.broadcastUserList()
	c.transport.Broadcast(Event{Name: EventNotification, Data: domain.Notification{
		Type:      NotifyUserLeft,
		Username:  user.Username,
		Timestamp: formatTimestamp(user.LastSeen),
	}})
	lastSeen := user.LastSeen
	c.emit(func(p Publisher) { p.UserLeft(user.Username, lastSeen) })

	c.logger.Info("User disconnected", "username", user.Username, "connID", connID)
	return true
}

// Users returns every connected user ordered by username.
func (c *Coordinator) Users() []domain.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.Users()
}

// Rooms summarizes the occupied broadcast rooms.
func (c *Coordinator) Rooms() []domain.Room {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.membership.Rooms()
}

// ConnectedUsers returns the number of logged-in connections.
func (c *Coordinator) ConnectedUsers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.Len()
}

// History looks up a broadcast room's history outside any session.
// Private channels need a participant and are rejected.
func (c *Coordinator) History(room string, limit int) ([]domain.Message, error) {
	if strings.HasPrefix(room, privateAddressPrefix) || strings.HasPrefix(room, privateWirePrefix) {
		return nil, validationError(msgPrivateForbidden)
	}
	if err := ValidateRoomName(room); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	roomID := BroadcastRoom(room)
	if room != GeneralRoom && !c.store.Has(roomID) && c.membership.Count(roomID) == 0 {
		return nil, notFoundError(msgRoomNotFound)
	}
	return c.store.Recent(roomID, limit), nil
}

// Close cancels pending typing timers.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.typing.Close()
}

// emit queues a publisher call to run once the lock is released.
func (c *Coordinator) emit(f func(Publisher)) {
	if c.publisher != nil {
		c.outbox = append(c.outbox, f)
	}
}

// unlock releases the lock and then drains the outbox, so a slow event
// bus never stalls other commands.
func (c *Coordinator) unlock() {
	pending, p := c.outbox, c.publisher
	c.outbox = nil
	c.mu.Unlock()
	for _, f := range pending {
		f(p)
	}
}

func (c *Coordinator) authenticated(connID string) (*User, error) {
	user, ok := c.registry.ByConnection(connID)
	if !ok {
		return nil, unauthorizedError(msgUnauthorized)
	}
	return user, nil
}

func (c *Coordinator) typingTarget(connID, room string) (*User, RoomID, error) {
	user, err := c.authenticated(connID)
	if err != nil {
		return nil, RoomID{}, err
	}
	roomID, err := ParseRoomID(user.Username, room)
	if err != nil {
		return nil, RoomID{}, err
	}
	return user, roomID, nil
}

// expireTyping runs on a timer goroutine.
func (c *Coordinator) expireTyping(username string, room RoomID, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.typing.Expire(username, room, gen) {
		return
	}
	c.pushTyping(room, c.typing.CurrentTypers(room))
}

// pushTyping sends typers to the room's members, or to both participants
// of a private channel.
func (c *Coordinator) pushTyping(room RoomID, typers []string) {
	event := Event{Name: EventTypingUpdate, Data: typers}
	if room.IsPrivate() {
		a, b := room.Participants()
		for _, name := range []string{a, b} {
			if u, ok := c.registry.ByUsername(name); ok {
				c.transport.Send(u.ConnID, event)
			}
		}
		return
	}
	for _, member := range c.membership.Members(room) {
		c.transport.Send(member.ConnID, event)
	}
}

func (c *Coordinator) broadcastUserList() {
	c.transport.Broadcast(Event{Name: EventUserList, Data: c.registry.Users()})
}

// messageID is a base36 millisecond prefix plus a random suffix.
func (c *Coordinator) messageID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 36) + c.newSuffix()
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
