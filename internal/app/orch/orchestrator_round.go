package orch

import (
	"context"
	"fmt"
	"time"

	"github.com/dkeye/Trivia/internal/app"
	"github.com/dkeye/Trivia/internal/core"
	"github.com/dkeye/Trivia/internal/domain"
	"github.com/rs/zerolog/log"
)

// StartRound fetches the question set outside the session lock and installs
// it atomically. Nothing is stored when the fetch fails or comes up short.
func (o *Orchestrator) StartRound(ctx context.Context, token string, id domain.SessionID) (domain.Snapshot, error) {
	ident, err := o.resolve(ctx, token)
	if err != nil {
		return domain.Snapshot{}, err
	}
	e, err := o.acquire(id)
	if err != nil {
		return domain.Snapshot{}, err
	}
	s := e.Session()
	if !s.IsHost(ident.ID) {
		e.Unlock()
		return domain.Snapshot{}, domain.ErrPermissionDenied
	}
	if s.Status != domain.StatusLobby || !e.BeginStart() {
		e.Unlock()
		return domain.Snapshot{}, domain.ErrWrongPhase
	}
	criteria := s.Settings.Criteria()
	e.Unlock()

	logger := log.With().Str("module", "orch").Str("session", string(id)).Logger()
	questions, fetchErr := o.fetch(ctx, criteria)

	e.Lock()
	defer e.Unlock()
	e.EndStart()
	if fetchErr != nil {
		logger.Error().Err(fetchErr).Msg("question fetch failed")
		return domain.Snapshot{}, fetchErr
	}
	if e.Closed() {
		return domain.Snapshot{}, domain.ErrNotFound
	}
	s = e.Session()
	s.Questions = questions
	logger.Info().Int("questions", len(questions)).Msg("round started")
	return o.advance(e), nil
}

func (o *Orchestrator) fetch(ctx context.Context, c domain.Criteria) ([]domain.Question, error) {
	raw, err := o.Questions.Fetch(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	// Answers are keyed by question id, so a repeated id is dropped.
	seen := make(map[string]struct{}, c.Amount)
	out := make([]domain.Question, 0, c.Amount)
	for _, q := range raw {
		if len(out) == c.Amount {
			break
		}
		if _, dup := seen[q.ID]; dup {
			continue
		}
		seen[q.ID] = struct{}{}
		opts := make([]string, 0, len(q.IncorrectAnswers)+1)
		opts = append(opts, q.IncorrectAnswers...)
		opts = append(opts, q.CorrectAnswer)
		core.Shuffle(o.Rand, opts)
		out = append(out, domain.Question{
			ID:            domain.QuestionID(q.ID),
			Text:          q.Text,
			AnswerOptions: opts,
			CorrectAnswer: q.CorrectAnswer,
		})
	}
	if len(out) < c.Amount {
		return nil, fmt.Errorf("%w: got %d distinct of %d", domain.ErrInsufficientQuestions, len(out), c.Amount)
	}
	return out, nil
}

// AdvanceQuestion opens the next question from the leaderboard.
func (o *Orchestrator) AdvanceQuestion(ctx context.Context, token string, id domain.SessionID) (domain.Snapshot, error) {
	ident, err := o.resolve(ctx, token)
	if err != nil {
		return domain.Snapshot{}, err
	}
	e, err := o.acquire(id)
	if err != nil {
		return domain.Snapshot{}, err
	}
	defer e.Unlock()

	s := e.Session()
	if !s.IsHost(ident.ID) {
		return domain.Snapshot{}, domain.ErrPermissionDenied
	}
	if s.Status != domain.StatusLeaderboard {
		return domain.Snapshot{}, domain.ErrWrongPhase
	}
	return o.advance(e), nil
}

// advance must be called with the lock held.
func (o *Orchestrator) advance(e *app.Entry) domain.Snapshot {
	s := e.Session()
	if s.CurrentIndex() >= s.Settings.QuestionCount {
		return o.reveal(e, true)
	}

	q := s.Questions[s.CurrentIndex()]
	s.Status = domain.StatusQuestion
	s.ActiveQuestion = q.Redact(o.Clock.Now())

	gen := e.NextGeneration()
	sid := s.ID
	window := time.Duration(s.Settings.QuestionTime)*time.Second + o.Game.IntroGrace
	o.Timers.Arm(sid, gen, window, func(gen uint64) { o.onRoundTimeout(sid, gen) })

	log.Info().Str("module", "orch").Str("session", string(sid)).Int("index", s.CurrentIndex()).Str("question", string(q.ID)).Dur("window", window).Msg("question opened")
	return o.publish(e)
}

func (o *Orchestrator) SubmitAnswer(ctx context.Context, token string, id domain.SessionID, qid domain.QuestionID, answer string) error {
	ident, err := o.resolve(ctx, token)
	if err != nil {
		return err
	}
	e, err := o.acquire(id)
	if err != nil {
		return err
	}
	defer e.Unlock()

	s := e.Session()
	if _, ok := s.Player(ident.ID); !ok {
		return domain.ErrNotFound
	}
	if s.ActiveQuestion == nil || s.ActiveQuestion.ID != qid {
		return domain.ErrNoActiveQuestion
	}
	now := o.Clock.Now()
	opensAt := s.ActiveQuestion.SentAt.Add(o.Game.IntroGrace)
	if now.Before(opensAt) {
		return domain.ErrTooEarly
	}
	if _, ok := s.Answer(qid, ident.ID); ok {
		return domain.ErrDuplicateAnswer
	}

	q := s.Questions[s.CurrentIndex()]
	s.RecordAnswer(qid, ident.ID, domain.AnswerRecord{
		SubmittedAnswer:    answer,
		IsCorrect:          answer == q.CorrectAnswer,
		ResponseTimeMillis: now.Sub(opensAt).Milliseconds(),
	})
	log.Debug().Str("module", "orch").Str("session", string(id)).Str("player", string(ident.ID)).Str("question", string(qid)).Msg("answer recorded")

	if s.AllAnswered(qid) {
		log.Info().Str("module", "orch").Str("session", string(id)).Msg("all players answered, revealing early")
		o.reveal(e, false)
	}
	return nil
}

// onRoundTimeout runs on the timer goroutine. It re-fetches the session and
// acts only if the timer's generation is still current.
func (o *Orchestrator) onRoundTimeout(id domain.SessionID, gen uint64) {
	e, ok := o.Registry.Get(id)
	if !ok {
		log.Debug().Str("module", "orch").Str("session", string(id)).Msg("timer fired for removed session")
		return
	}
	e.Lock()
	defer e.Unlock()
	if e.Closed() || e.Generation() != gen || e.Session().Status != domain.StatusQuestion {
		log.Debug().Str("module", "orch").Str("session", string(id)).Uint64("gen", gen).Msg("stale timer ignored")
		return
	}
	o.reveal(e, false)
}

// reveal moves to the leaderboard and re-derives every score from the full
// answer log. Revealing the last question ends the game. Lock must be held.
func (o *Orchestrator) reveal(e *app.Entry, endGame bool) domain.Snapshot {
	s := e.Session()
	o.Timers.Stop(s.ID)
	e.NextGeneration()

	if s.ActiveQuestion != nil {
		s.PreviousQuestions = append(s.PreviousQuestions, s.Questions[s.CurrentIndex()])
		s.ActiveQuestion = nil
	}
	s.Status = domain.StatusLeaderboard
	for _, p := range s.Players {
		p.Score = app.Score(o.Policy, p.ID, s.PreviousQuestions, s.Answers, s.Settings)
	}
	s.RankPlayers()

	endGame = endGame || s.CurrentIndex() >= s.Settings.QuestionCount
	snap := o.publish(e)
	log.Info().Str("module", "orch").Str("session", string(s.ID)).Int("played", s.CurrentIndex()).Bool("end_game", endGame).Msg("leaderboard revealed")

	if endGame {
		e.MarkClosed()
		o.Registry.Remove(s.ID)
	}
	return snap
}
