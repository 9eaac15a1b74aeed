package orch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Trivia/internal/app"
	"github.com/dkeye/Trivia/internal/core"
	"github.com/dkeye/Trivia/internal/core/mocks"
	"github.com/dkeye/Trivia/internal/domain"
	"github.com/jonboulle/clockwork"
	"go.uber.org/mock/gomock"
)

const (
	testGrace        = 3 * time.Second
	testQuestionTime = 10
	testMaxPlayers   = 3
)

type published struct {
	id   domain.SessionID
	snap domain.Snapshot
}

type recordingSink struct {
	mu   sync.Mutex
	msgs []published
}

func (r *recordingSink) Publish(id domain.SessionID, snap domain.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, published{id: id, snap: snap})
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func (r *recordingSink) last(t *testing.T) domain.Snapshot {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		t.Fatal("nothing was published")
	}
	return r.msgs[len(r.msgs)-1].snap
}

func (r *recordingSink) withStatus(status domain.Status) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.msgs {
		if m.snap.Status == status {
			n++
		}
	}
	return n
}

type harness struct {
	o         *Orchestrator
	clock     *clockwork.FakeClock
	sink      *recordingSink
	questions *mocks.MockQuestionSource
}

func newHarness(t *testing.T, questionCount int) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)

	identity := mocks.NewMockIdentityResolver(ctrl)
	identity.EXPECT().Resolve(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, token string) (domain.Identity, error) {
			if token == "" || token == "bad" {
				return domain.Identity{}, errors.New("token rejected")
			}
			return domain.Identity{
				ID:       domain.PlayerID(token),
				Name:     "Player " + token,
				Email:    token + "@example.com",
				ImageURL: "https://example.com/" + token + ".png",
			}, nil
		}).AnyTimes()

	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	sink := &recordingSink{}
	questions := mocks.NewMockQuestionSource(ctrl)
	rnd := core.NewSeededSource(11)

	o := &Orchestrator{
		Registry:  app.NewRegistry(app.NewIDGenerator(rnd, app.DefaultIDLength)),
		Timers:    app.NewTimers(clock),
		Policy:    app.TimeStreakPolicy{MaxPoints: 1000},
		Identity:  identity,
		Questions: questions,
		Sink:      sink,
		Clock:     clock,
		Rand:      rnd,
		Game: GameDefaults{
			Settings: domain.Settings{
				QuestionCount: questionCount,
				QuestionTime:  testQuestionTime,
				Region:        "SE",
				Category:      "movies",
				Difficulty:    "easy",
			},
			MaxPlayers: testMaxPlayers,
			IntroGrace: testGrace,
		},
	}
	return &harness{o: o, clock: clock, sink: sink, questions: questions}
}

func sourceQuestions(n int) []domain.SourceQuestion {
	out := make([]domain.SourceQuestion, n)
	for i := range out {
		out[i] = domain.SourceQuestion{
			ID:               fmt.Sprintf("q%d", i+1),
			Text:             fmt.Sprintf("Question %d?", i+1),
			IncorrectAnswers: []string{"wrong-a", "wrong-b", "wrong-c"},
			CorrectAnswer:    fmt.Sprintf("right-%d", i+1),
		}
	}
	return out
}

// lobby creates a session hosted by "host" with the given guests joined.
func (h *harness) lobby(t *testing.T, guests ...string) domain.SessionID {
	t.Helper()
	ctx := context.Background()
	snap, err := h.o.CreateSession(ctx, "host")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, g := range guests {
		if _, err := h.o.JoinSession(ctx, g, snap.ID); err != nil {
			t.Fatalf("join %s: %v", g, err)
		}
	}
	return snap.ID
}

// started additionally runs StartRound against a source returning n questions.
func (h *harness) started(t *testing.T, n int, guests ...string) domain.SessionID {
	t.Helper()
	id := h.lobby(t, guests...)
	h.questions.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(sourceQuestions(n), nil)
	if _, err := h.o.StartRound(context.Background(), "host", id); err != nil {
		t.Fatalf("start: %v", err)
	}
	return id
}

// inspect runs f with the live session locked.
func (h *harness) inspect(t *testing.T, id domain.SessionID, f func(s *domain.Session)) {
	t.Helper()
	e, ok := h.o.Registry.Get(id)
	if !ok {
		t.Fatalf("session %s not registered", id)
	}
	e.Lock()
	defer e.Unlock()
	f(e.Session())
}

func (h *harness) live(id domain.SessionID) bool {
	_, ok := h.o.Registry.Get(id)
	return ok
}

func hostCount(players []domain.Player) int {
	n := 0
	for _, p := range players {
		if p.Status == domain.PlayerHost {
			n++
		}
	}
	return n
}

// eventually polls cond; fake-clock callbacks run on their own goroutine.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// awaitLeaderboards waits for the n-th leaderboard broadcast.
func (h *harness) awaitLeaderboards(t *testing.T, n int) domain.Snapshot {
	t.Helper()
	eventually(t, "leaderboard", func() bool { return h.sink.withStatus(domain.StatusLeaderboard) >= n })
	return h.sink.last(t)
}
