package domain

import (
	"fmt"
	"sort"
	"strings"
)

type SessionID string

type Status string

const (
	StatusLobby       Status = "JOINING"
	StatusQuestion    Status = "QUESTION"
	StatusLeaderboard Status = "LEADERBOARD"
	StatusClosed      Status = "CLOSED"
)

const (
	MinQuestionCount = 1
	MaxQuestionCount = 50
	MinQuestionTime  = 5
	MaxQuestionTime  = 120
)

type Settings struct {
	IsPrivate     bool   `json:"isPrivate"`
	QuestionCount int    `json:"questionCount"`
	QuestionTime  int    `json:"questionTime"`
	Region        string `json:"region"`
	Category      string `json:"category"`
	Difficulty    string `json:"difficulty"`
	Tag           string `json:"tag,omitempty"`
}

// SettingsPatch lists every field a host may change. Nil means "leave as is".
type SettingsPatch struct {
	IsPrivate     *bool   `json:"isPrivate,omitempty"`
	QuestionCount *int    `json:"questionCount,omitempty"`
	QuestionTime  *int    `json:"questionTime,omitempty"`
	Region        *string `json:"region,omitempty"`
	Category      *string `json:"category,omitempty"`
	Difficulty    *string `json:"difficulty,omitempty"`
	Tag           *string `json:"tag,omitempty"`
}

// Apply validates the patched result before writing, so a rejected patch
// leaves s untouched.
func (p SettingsPatch) Apply(s *Settings) error {
	next := *s
	if p.IsPrivate != nil {
		next.IsPrivate = *p.IsPrivate
	}
	if p.QuestionCount != nil {
		next.QuestionCount = *p.QuestionCount
	}
	if p.QuestionTime != nil {
		next.QuestionTime = *p.QuestionTime
	}
	if p.Region != nil {
		next.Region = strings.TrimSpace(*p.Region)
	}
	if p.Category != nil {
		next.Category = strings.TrimSpace(*p.Category)
	}
	if p.Difficulty != nil {
		next.Difficulty = *p.Difficulty
	}
	if p.Tag != nil {
		next.Tag = strings.TrimSpace(*p.Tag)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*s = next
	return nil
}

// Validate checks the bounds every session's settings must stay within,
// whether they come from a host patch or from server defaults.
func (s Settings) Validate() error {
	if s.QuestionCount < MinQuestionCount || s.QuestionCount > MaxQuestionCount {
		return fmt.Errorf("%w: question count %d outside %d..%d", ErrInvalidSettings, s.QuestionCount, MinQuestionCount, MaxQuestionCount)
	}
	if s.QuestionTime < MinQuestionTime || s.QuestionTime > MaxQuestionTime {
		return fmt.Errorf("%w: question time %d outside %d..%d", ErrInvalidSettings, s.QuestionTime, MinQuestionTime, MaxQuestionTime)
	}
	if strings.TrimSpace(s.Region) == "" {
		return fmt.Errorf("%w: region is empty", ErrInvalidSettings)
	}
	if strings.TrimSpace(s.Category) == "" {
		return fmt.Errorf("%w: category is empty", ErrInvalidSettings)
	}
	if _, ok := difficultyMultipliers[s.Difficulty]; !ok {
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidSettings, s.Difficulty)
	}
	return nil
}

var difficultyMultipliers = map[string]int{
	"easy":   1,
	"medium": 2,
	"hard":   3,
}

// DifficultyMultiplier returns 1 for unknown values.
func DifficultyMultiplier(difficulty string) int {
	if m, ok := difficultyMultipliers[difficulty]; ok {
		return m
	}
	return 1
}

func (s Settings) Criteria() Criteria {
	return Criteria{
		Amount:     s.QuestionCount,
		Region:     s.Region,
		Category:   s.Category,
		Difficulty: s.Difficulty,
		Tag:        s.Tag,
	}
}

// Session is the mutable state of one game. It has no lock of its own:
// the registry entry that owns it serializes access.
type Session struct {
	ID                SessionID
	Status            Status
	Settings          Settings
	Players           []*Player
	Questions         []Question
	PreviousQuestions []Question
	ActiveQuestion    *ActiveQuestion
	Answers           map[QuestionID]map[PlayerID]AnswerRecord

	joined int
}

func NewSession(settings Settings, host Identity) *Session {
	s := &Session{
		Status:   StatusLobby,
		Settings: settings,
		Answers:  make(map[QuestionID]map[PlayerID]AnswerRecord),
	}
	s.AddPlayer(host, PlayerHost)
	return s
}

// AddPlayer appends to the roster and remembers join order for tie-breaks.
func (s *Session) AddPlayer(id Identity, status PlayerStatus) *Player {
	p := NewPlayer(id, status)
	s.joined++
	p.joinSeq = s.joined
	s.Players = append(s.Players, p)
	return p
}

// RankPlayers orders by score, highest first; equal scores keep join order.
func (s *Session) RankPlayers() {
	sort.SliceStable(s.Players, func(i, j int) bool {
		a, b := s.Players[i], s.Players[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.joinSeq < b.joinSeq
	})
}

func (s *Session) Player(id PlayerID) (*Player, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

func (s *Session) IsHost(id PlayerID) bool {
	p, ok := s.Player(id)
	return ok && p.IsHost()
}

func (s *Session) RemovePlayer(id PlayerID) bool {
	for i, p := range s.Players {
		if p.ID == id {
			s.Players = append(s.Players[:i], s.Players[i+1:]...)
			return true
		}
	}
	return false
}

// CurrentIndex is the index of the next question to be played.
func (s *Session) CurrentIndex() int { return len(s.PreviousQuestions) }

func (s *Session) Answer(q QuestionID, p PlayerID) (AnswerRecord, bool) {
	rec, ok := s.Answers[q][p]
	return rec, ok
}

func (s *Session) RecordAnswer(q QuestionID, p PlayerID, rec AnswerRecord) {
	if s.Answers[q] == nil {
		s.Answers[q] = make(map[PlayerID]AnswerRecord)
	}
	s.Answers[q][p] = rec
}

// AllAnswered reports whether every current player has a record for q.
// An empty roster never counts as answered.
func (s *Session) AllAnswered(q QuestionID) bool {
	if len(s.Players) == 0 {
		return false
	}
	for _, p := range s.Players {
		if _, ok := s.Answers[q][p.ID]; !ok {
			return false
		}
	}
	return true
}
