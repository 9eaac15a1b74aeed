package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func ptr[T any](v T) *T { return &v }

func defaultSettings() Settings {
	return Settings{QuestionCount: 10, QuestionTime: 30, Region: "SE", Category: "movies", Difficulty: "easy"}
}

func TestSettingsPatchApply(t *testing.T) {
	tests := []struct {
		name    string
		patch   SettingsPatch
		wantErr error
		check   func(t *testing.T, s Settings)
	}{
		{
			name:  "only present keys change",
			patch: SettingsPatch{QuestionCount: ptr(5), IsPrivate: ptr(true)},
			check: func(t *testing.T, s Settings) {
				if s.QuestionCount != 5 || !s.IsPrivate {
					t.Fatalf("patch not applied: %+v", s)
				}
				if s.QuestionTime != 30 || s.Category != "movies" {
					t.Fatalf("untouched keys changed: %+v", s)
				}
			},
		},
		{name: "count too large", patch: SettingsPatch{QuestionCount: ptr(MaxQuestionCount + 1)}, wantErr: ErrInvalidSettings},
		{name: "time too short", patch: SettingsPatch{QuestionTime: ptr(1)}, wantErr: ErrInvalidSettings},
		{name: "unknown difficulty", patch: SettingsPatch{Difficulty: ptr("nightmare")}, wantErr: ErrInvalidSettings},
		{name: "blank region", patch: SettingsPatch{Region: ptr("  ")}, wantErr: ErrInvalidSettings},
		{
			name:  "tag is trimmed",
			patch: SettingsPatch{Tag: ptr(" film ")},
			check: func(t *testing.T, s Settings) {
				if s.Tag != "film" {
					t.Fatalf("tag = %q", s.Tag)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := defaultSettings()
			before := s
			err := tt.patch.Apply(&s)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if s != before {
					t.Fatalf("rejected patch mutated settings: %+v", s)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, s)
		})
	}
}

func TestSettingsValidate(t *testing.T) {
	if err := defaultSettings().Validate(); err != nil {
		t.Fatalf("defaults rejected: %v", err)
	}
	broken := []func(s *Settings){
		func(s *Settings) { s.QuestionCount = 0 },
		func(s *Settings) { s.QuestionCount = MaxQuestionCount + 1 },
		func(s *Settings) { s.QuestionTime = 0 },
		func(s *Settings) { s.Region = "" },
		func(s *Settings) { s.Category = " " },
		func(s *Settings) { s.Difficulty = "impossible" },
	}
	for i, breakIt := range broken {
		s := defaultSettings()
		breakIt(&s)
		if err := s.Validate(); !errors.Is(err, ErrInvalidSettings) {
			t.Fatalf("case %d: err = %v for %+v", i, err, s)
		}
	}
}

func TestSettingsPatchIgnoresUnknownJSONKeys(t *testing.T) {
	var p SettingsPatch
	if err := json.Unmarshal([]byte(`{"questionTime":20,"__proto__":{"x":1},"maxPlayers":999}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	s := defaultSettings()
	if err := p.Apply(&s); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if s.QuestionTime != 20 {
		t.Fatalf("questionTime = %d", s.QuestionTime)
	}
}

func TestSnapshotRedaction(t *testing.T) {
	host := Identity{ID: "h", Name: "Host"}
	s := NewSession(defaultSettings(), host)
	s.ID = "ABC123"
	q1 := Question{ID: "q1", Text: "first?", AnswerOptions: []string{"a", "b"}, CorrectAnswer: "a"}
	q2 := Question{ID: "q2", Text: "second?", AnswerOptions: []string{"c", "d"}, CorrectAnswer: "secret-d"}
	s.Questions = []Question{q1, q2}
	s.PreviousQuestions = []Question{q1}
	s.Status = StatusQuestion
	s.ActiveQuestion = q2.Redact(time.Unix(100, 0))
	s.RecordAnswer("q1", "h", AnswerRecord{SubmittedAnswer: "a", IsCorrect: true})
	s.RecordAnswer("q2", "h", AnswerRecord{SubmittedAnswer: "secret-d", IsCorrect: true})

	snap := s.Snapshot()
	if len(snap.Questions) != 0 {
		t.Fatalf("questions leaked: %d", len(snap.Questions))
	}
	if _, ok := snap.Answers["q2"]; ok {
		t.Fatal("answers for the open question leaked")
	}
	if _, ok := snap.Answers["q1"]; !ok {
		t.Fatal("answers for a revealed question missing")
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "secret-d") {
		t.Fatalf("snapshot leaks the active correct answer: %s", raw)
	}

	snap.Players[0].Score = 99
	if s.Players[0].Score != 0 {
		t.Fatal("snapshot shares player memory with the session")
	}
}

func TestAllAnswered(t *testing.T) {
	s := NewSession(defaultSettings(), Identity{ID: "h"})
	s.AddPlayer(Identity{ID: "p"}, PlayerNotReady)
	s.RecordAnswer("q", "h", AnswerRecord{})
	if s.AllAnswered("q") {
		t.Fatal("p has not answered yet")
	}
	s.RecordAnswer("q", "p", AnswerRecord{})
	if !s.AllAnswered("q") {
		t.Fatal("everyone answered")
	}
	s.Players = nil
	if s.AllAnswered("q") {
		t.Fatal("empty roster must not count as answered")
	}
}

func TestParsePlayerStatus(t *testing.T) {
	if _, err := ParsePlayerStatus("READY"); err != nil {
		t.Fatalf("READY rejected: %v", err)
	}
	if _, err := ParsePlayerStatus(string(PlayerHost)); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("HOST accepted: %v", err)
	}
}

func TestRankPlayersBreaksTiesByJoinOrder(t *testing.T) {
	s := NewSession(defaultSettings(), Identity{ID: "h"})
	s.AddPlayer(Identity{ID: "a"}, PlayerNotReady)
	s.AddPlayer(Identity{ID: "b"}, PlayerNotReady)

	// b leads once, then everyone ties: join order must win, not the previous ranking
	s.Players[2].Score = 10
	s.RankPlayers()
	if s.Players[0].ID != "b" {
		t.Fatalf("leader = %s, want b", s.Players[0].ID)
	}
	for _, p := range s.Players {
		p.Score = 5
	}
	s.RankPlayers()
	got := []PlayerID{s.Players[0].ID, s.Players[1].ID, s.Players[2].ID}
	want := []PlayerID{"h", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	if got, err := NormalizeName("  Ada  "); err != nil || got != "Ada" {
		t.Fatalf("got %q, %v", got, err)
	}
	if _, err := NormalizeName("   "); !errors.Is(err, ErrNameEmpty) {
		t.Fatalf("blank: %v", err)
	}
	if _, err := NormalizeName(strings.Repeat("å", MaxNameLen+1)); !errors.Is(err, ErrNameTooLong) {
		t.Fatalf("long: %v", err)
	}
	if _, err := NormalizeName(strings.Repeat("å", MaxNameLen)); err != nil {
		t.Fatalf("max length multibyte: %v", err)
	}
}
