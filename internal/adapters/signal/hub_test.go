package signal

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/dkeye/Trivia/internal/core"
	"github.com/dkeye/Trivia/internal/domain"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
}

func (f *fakeConn) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full {
		return ErrBackpressure
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeConn) Close() {}

func (f *fakeConn) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func TestHubPublishReachesOnlySubscribers(t *testing.T) {
	h := NewHub()
	a, b, other := &fakeConn{}, &fakeConn{}, &fakeConn{}
	h.Subscribe("S1", "a", a)
	h.Subscribe("S1", "b", b)
	h.Subscribe("S2", "o", other)

	h.Publish("S1", domain.Snapshot{ID: "S1", Status: domain.StatusLobby})
	if a.count() != 1 || b.count() != 1 || other.count() != 0 {
		t.Fatalf("counts a=%d b=%d other=%d", a.count(), b.count(), other.count())
	}

	var frame struct {
		Type string          `json:"type"`
		Game domain.Snapshot `json:"game"`
	}
	if err := json.Unmarshal(a.frames[0], &frame); err != nil {
		t.Fatal(err)
	}
	if frame.Type != "game" || frame.Game.ID != "S1" {
		t.Fatalf("frame = %+v", frame)
	}
}

func TestHubSlowSubscriberDoesNotBlockOthers(t *testing.T) {
	h := NewHub()
	slow, fast := &fakeConn{full: true}, &fakeConn{}
	h.Subscribe("S", "slow", slow)
	h.Subscribe("S", "fast", fast)
	h.Publish("S", domain.Snapshot{ID: "S"})
	if fast.count() != 1 {
		t.Fatal("fast subscriber starved")
	}
	if h.Subscribers("S") != 2 {
		t.Fatal("backpressure must not unsubscribe")
	}
}

func TestHubReleasesClosedSessions(t *testing.T) {
	h := NewHub()
	c := &fakeConn{}
	h.Subscribe("S", "c", c)
	h.Publish("S", domain.Snapshot{ID: "S", Status: domain.StatusClosed})
	if c.count() != 1 {
		t.Fatal("final snapshot not delivered")
	}
	if h.Subscribers("S") != 0 || len(h.Subscriptions("c")) != 0 {
		t.Fatal("subscribers kept after close")
	}
}

func TestHubReleasesFinishedGames(t *testing.T) {
	h := NewHub()
	c := &fakeConn{}
	h.Subscribe("S", "c", c)
	h.Publish("S", domain.Snapshot{
		ID:                "S",
		Status:            domain.StatusLeaderboard,
		Settings:          domain.Settings{QuestionCount: 1},
		PreviousQuestions: []domain.Question{{ID: "q1"}},
	})
	if h.Subscribers("S") != 0 {
		t.Fatal("subscribers kept after last reveal")
	}
}

func TestHubDrop(t *testing.T) {
	h := NewHub()
	c := &fakeConn{}
	h.Subscribe("S1", "c", c)
	h.Subscribe("S2", "c", c)
	if got := len(h.Subscriptions("c")); got != 2 {
		t.Fatalf("subscriptions = %d", got)
	}
	h.Drop("c")
	h.Publish("S1", domain.Snapshot{ID: "S1"})
	h.Publish("S2", domain.Snapshot{ID: "S2"})
	if c.count() != 0 {
		t.Fatal("dropped connection still receives")
	}
}

func frameStatus(t *testing.T, fr core.Frame) domain.Status {
	t.Helper()
	var f GameFrame
	if err := json.Unmarshal(fr, &f); err != nil {
		t.Fatal(err)
	}
	return f.Game.Status
}

func TestHubReserveReplaysTransitionsAfterConfirm(t *testing.T) {
	h := NewHub()
	c := &fakeConn{}
	h.Reserve("S", "c", c)
	// Published while the join still holds the session.
	h.Publish("S", domain.Snapshot{ID: "S", Status: domain.StatusLobby})
	h.Publish("S", domain.Snapshot{ID: "S", Status: domain.StatusQuestion, Settings: domain.Settings{QuestionCount: 2}})
	if c.count() != 0 {
		t.Fatal("frames delivered before confirmation")
	}

	h.Confirm("S", "c")
	if c.count() != 2 || frameStatus(t, c.frames[0]) != domain.StatusLobby || frameStatus(t, c.frames[1]) != domain.StatusQuestion {
		t.Fatalf("replayed %d frames", c.count())
	}
	if h.Subscribers("S") != 1 {
		t.Fatal("confirmed reservation not subscribed")
	}
	h.Publish("S", domain.Snapshot{ID: "S", Status: domain.StatusLeaderboard, Settings: domain.Settings{QuestionCount: 2}})
	if c.count() != 3 {
		t.Fatalf("live frame missing, got %d", c.count())
	}
}

func TestHubCancelDiscardsReservation(t *testing.T) {
	h := NewHub()
	c := &fakeConn{}
	h.Reserve("S", "c", c)
	h.Publish("S", domain.Snapshot{ID: "S", Status: domain.StatusLobby})
	h.Cancel("S", "c")
	h.Confirm("S", "c")
	h.Publish("S", domain.Snapshot{ID: "S", Status: domain.StatusLobby})
	if c.count() != 0 || h.Subscribers("S") != 0 {
		t.Fatalf("cancelled reservation received %d frames", c.count())
	}
}

func TestHubReserveKeepsExistingSubscription(t *testing.T) {
	h := NewHub()
	c := &fakeConn{}
	h.Subscribe("S", "c", c)
	h.Reserve("S", "c", c)
	h.Cancel("S", "c")
	h.Publish("S", domain.Snapshot{ID: "S", Status: domain.StatusLobby})
	if c.count() != 1 || h.Subscribers("S") != 1 {
		t.Fatalf("subscription lost: frames=%d", c.count())
	}
}

func TestHubConfirmAfterFinalFrameDoesNotSubscribe(t *testing.T) {
	h := NewHub()
	c := &fakeConn{}
	h.Reserve("S", "c", c)
	h.Publish("S", domain.Snapshot{ID: "S", Status: domain.StatusClosed})
	h.Confirm("S", "c")
	if c.count() != 1 || h.Subscribers("S") != 0 {
		t.Fatalf("frames=%d subscribers=%d", c.count(), h.Subscribers("S"))
	}
}

func TestHubDropForgetsReservations(t *testing.T) {
	h := NewHub()
	c := &fakeConn{}
	h.Reserve("S", "c", c)
	h.Drop("c")
	h.Confirm("S", "c")
	if h.Subscribers("S") != 0 {
		t.Fatal("dropped connection subscribed")
	}
}
