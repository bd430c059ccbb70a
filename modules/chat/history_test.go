package chat

import (
	"slices"
	"strconv"
	"testing"

	domain "github.com/example/realtime-chat/domain/chat"
)

func appendN(s *MessageStore, room RoomID, n int) []domain.Message {
	all := make([]domain.Message, 0, n)
	for i := range n {
		msg := domain.Message{ID: strconv.Itoa(i), Room: room.String()}
		s.Append(room, msg)
		all = append(all, msg)
	}
	return all
}

func ids(msgs []domain.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func TestMessageStore_CapEvictsOldest(t *testing.T) {
	store := NewMessageStore(5, 50)
	room := BroadcastRoom("general")
	all := appendN(store, room, 12)

	if got := store.Len(room); got != 5 {
		t.Fatalf("Len() = %d, want 5", got)
	}
	got := ids(store.Recent(room, 100))
	want := ids(all[7:])
	if !slices.Equal(got, want) {
		t.Errorf("Recent() = %v, want %v", got, want)
	}
}

func TestMessageStore_RecentIsSuffix(t *testing.T) {
	store := NewMessageStore(100, 50)
	room := BroadcastRoom("general")

	for _, appended := range []int{0, 1, 3, 40, 100, 150} {
		store := NewMessageStore(100, 50)
		all := appendN(store, room, appended)
		stored := all
		if len(stored) > 100 {
			stored = stored[len(stored)-100:]
		}

		for _, limit := range []int{1, 2, 10, 50, 100, 1000} {
			n := min(limit, len(stored))
			want := ids(stored[len(stored)-n:])
			got := ids(store.Recent(room, limit))
			if !slices.Equal(got, want) {
				t.Errorf("appended=%d Recent(limit=%d) = %v, want %v", appended, limit, got, want)
			}
		}
	}

	if got := store.Recent(room, 10); got == nil || len(got) != 0 {
		t.Errorf("Recent() on empty room = %#v, want empty non-nil slice", got)
	}
}

func TestMessageStore_DefaultLimit(t *testing.T) {
	store := NewMessageStore(100, 50)
	room := BroadcastRoom("general")
	all := appendN(store, room, 80)

	for _, limit := range []int{0, -1} {
		got := store.Recent(room, limit)
		if len(got) != 50 {
			t.Fatalf("Recent(%d) returned %d messages, want 50", limit, len(got))
		}
		if got[0].ID != all[30].ID || got[49].ID != all[79].ID {
			t.Errorf("Recent(%d) = %s..%s, want %s..%s", limit, got[0].ID, got[49].ID, all[30].ID, all[79].ID)
		}
	}
}

func TestMessageStore_RecentDoesNotAlias(t *testing.T) {
	store := NewMessageStore(10, 10)
	room := BroadcastRoom("general")
	appendN(store, room, 3)

	first := store.Recent(room, 0)
	first[0].Text = "tampered"

	if got := store.Recent(room, 0)[0].Text; got != "" {
		t.Errorf("stored message changed through returned slice: %q", got)
	}
}

func TestMessageStore_PrivateCanonical(t *testing.T) {
	store := NewMessageStore(100, 50)
	store.Append(PrivateRoom("alice", "bob"), domain.Message{ID: "1", From: "alice"})
	store.Append(PrivateRoom("bob", "alice"), domain.Message{ID: "2", From: "bob"})

	ab := ids(store.RecentPrivate("alice", "bob", 0))
	ba := ids(store.RecentPrivate("bob", "alice", 0))
	if !slices.Equal(ab, []string{"1", "2"}) || !slices.Equal(ab, ba) {
		t.Errorf("RecentPrivate(alice,bob) = %v, RecentPrivate(bob,alice) = %v, want [1 2] both", ab, ba)
	}

	if store.Len(BroadcastRoom("general")) != 0 {
		t.Error("private messages leaked into a broadcast room")
	}
}

func TestMessageStore_RoomsAreIndependent(t *testing.T) {
	store := NewMessageStore(3, 3)
	appendN(store, BroadcastRoom("general"), 10)
	appendN(store, PrivateRoom("alice", "bob"), 2)

	if got := store.Len(PrivateRoom("alice", "bob")); got != 2 {
		t.Errorf("private Len() = %d, want 2", got)
	}
	if got := store.Len(BroadcastRoom("general")); got != 3 {
		t.Errorf("general Len() = %d, want 3", got)
	}
}
