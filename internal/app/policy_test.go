package app

import (
	"testing"
	"time"

	"github.com/dkeye/Trivia/internal/domain"
)

func TestTimeStreakPolicyPoints(t *testing.T) {
	p := TimeStreakPolicy{MaxPoints: 1000}
	qt := 30 * time.Second

	tests := []struct {
		name       string
		rt         time.Duration
		streak     int
		difficulty string
		want       int
	}{
		{"instant answer", 0, 1, "easy", 1000},
		{"last moment", qt, 1, "easy", 500},
		{"late answer is clamped", 2 * qt, 1, "easy", 500},
		{"half time", 15 * time.Second, 1, "easy", 750},
		{"streak of three", 0, 3, "easy", 1200},
		{"streak is capped", 0, 50, "easy", 1500},
		{"hard triples", 0, 1, "hard", 3000},
		{"no streak, no points", 0, 0, "easy", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Points(tt.rt, qt, tt.streak, tt.difficulty); got != tt.want {
				t.Fatalf("Points = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPointsDecreaseWithResponseTime(t *testing.T) {
	p := TimeStreakPolicy{MaxPoints: 1000}
	prev := p.Points(0, 10*time.Second, 1, "medium")
	for ms := 1000; ms <= 10000; ms += 1000 {
		cur := p.Points(time.Duration(ms)*time.Millisecond, 10*time.Second, 1, "medium")
		if cur > prev {
			t.Fatalf("points rose from %d to %d at %dms", prev, cur, ms)
		}
		prev = cur
	}
}

func TestScoreStreakResetsAndIsIdempotent(t *testing.T) {
	settings := domain.Settings{QuestionTime: 10, Difficulty: "easy"}
	played := []domain.Question{{ID: "q1"}, {ID: "q2"}, {ID: "q3"}, {ID: "q4"}}
	answers := map[domain.QuestionID]map[domain.PlayerID]domain.AnswerRecord{
		"q1": {"p": {IsCorrect: true}},
		"q2": {"p": {IsCorrect: true}},
		// q3 unanswered resets the streak
		"q4": {"p": {IsCorrect: true}},
	}
	policy := TimeStreakPolicy{MaxPoints: 100}

	// 100 + 110 + 0 + 100
	want := 310
	first := Score(policy, "p", played, answers, settings)
	second := Score(policy, "p", played, answers, settings)
	if first != want || second != want {
		t.Fatalf("scores = %d, %d; want %d", first, second, want)
	}
	if got := Score(policy, "nobody", played, answers, settings); got != 0 {
		t.Fatalf("absent player scored %d", got)
	}
}
