package chat

import (
	"slices"
	"testing"
	"time"
)

func TestTypingTracker_StartStop(t *testing.T) {
	tr := NewTypingTracker(time.Hour, nil)
	defer tr.Close()
	general := BroadcastRoom(GeneralRoom)

	if got := tr.Start("bob", general); !slices.Equal(got, []string{"bob"}) {
		t.Errorf("Start(bob) = %v, want [bob]", got)
	}
	if got := tr.Start("alice", general); !slices.Equal(got, []string{"alice", "bob"}) {
		t.Errorf("Start(alice) = %v, want [alice bob]", got)
	}
	if got := tr.Start("alice", general); !slices.Equal(got, []string{"alice", "bob"}) {
		t.Errorf("repeated Start(alice) = %v, want [alice bob]", got)
	}
	if got := tr.CurrentTypers(BroadcastRoom("random")); len(got) != 0 {
		t.Errorf("CurrentTypers(random) = %v, want empty", got)
	}
	if got := tr.Stop("bob", general); !slices.Equal(got, []string{"alice"}) {
		t.Errorf("Stop(bob) = %v, want [alice]", got)
	}
	if got := tr.Stop("bob", general); !slices.Equal(got, []string{"alice"}) {
		t.Errorf("repeated Stop(bob) = %v, want [alice]", got)
	}
}

func TestTypingTracker_ExpireHonorsGeneration(t *testing.T) {
	tr := NewTypingTracker(time.Hour, nil)
	defer tr.Close()
	general := BroadcastRoom(GeneralRoom)

	tr.Start("alice", general)
	stale := tr.gen
	tr.Start("alice", general)
	current := tr.gen

	if tr.Expire("alice", general, stale) {
		t.Error("Expire() with a superseded generation should be a no-op")
	}
	if got := tr.CurrentTypers(general); len(got) != 1 {
		t.Fatalf("entry lost after stale expiry: %v", got)
	}
	if !tr.Expire("alice", general, current) {
		t.Error("Expire() with the current generation should remove the entry")
	}
	if got := tr.CurrentTypers(general); len(got) != 0 {
		t.Errorf("CurrentTypers() after expiry = %v, want empty", got)
	}
}

func TestTypingTracker_LazyDeadline(t *testing.T) {
	tr := NewTypingTracker(3*time.Second, nil)
	defer tr.Close()
	general := BroadcastRoom(GeneralRoom)

	base := time.Now()
	tr.now = func() time.Time { return base }
	tr.Start("alice", general)

	tr.now = func() time.Time { return base.Add(2999 * time.Millisecond) }
	if got := tr.CurrentTypers(general); len(got) != 1 {
		t.Errorf("CurrentTypers() before deadline = %v, want [alice]", got)
	}

	tr.now = func() time.Time { return base.Add(3 * time.Second) }
	if got := tr.CurrentTypers(general); len(got) != 0 {
		t.Errorf("CurrentTypers() at deadline = %v, want empty", got)
	}
}

func TestTypingTracker_TimerDebounced(t *testing.T) {
	fired := make(chan uint64, 4)
	tr := NewTypingTracker(60*time.Millisecond, func(_ string, _ RoomID, gen uint64) {
		fired <- gen
	})
	defer tr.Close()
	general := BroadcastRoom(GeneralRoom)

	tr.Start("alice", general)
	time.Sleep(30 * time.Millisecond)
	tr.Start("alice", general)
	latest := tr.gen

	select {
	case gen := <-fired:
		if gen != latest {
			t.Errorf("expiry fired for generation %d, want %d", gen, latest)
		}
	case <-time.After(time.Second):
		t.Fatal("expiry timer never fired")
	}

	select {
	case gen := <-fired:
		t.Errorf("unexpected second expiry for generation %d", gen)
	case <-time.After(120 * time.Millisecond):
	}
}

func TestTypingTracker_RemoveUser(t *testing.T) {
	tr := NewTypingTracker(time.Hour, nil)
	defer tr.Close()
	general := BroadcastRoom(GeneralRoom)
	random := BroadcastRoom("random")

	tr.Start("alice", general)
	tr.Start("alice", random)
	tr.Start("bob", general)

	rooms := tr.RemoveUser("alice")
	if len(rooms) != 2 {
		t.Errorf("RemoveUser() affected %d rooms, want 2", len(rooms))
	}
	if got := tr.CurrentTypers(general); !slices.Equal(got, []string{"bob"}) {
		t.Errorf("CurrentTypers(general) = %v, want [bob]", got)
	}
	if got := tr.CurrentTypers(random); len(got) != 0 {
		t.Errorf("CurrentTypers(random) = %v, want empty", got)
	}
}
