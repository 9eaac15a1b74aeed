package app

import (
	"math"
	"time"

	"github.com/dkeye/Trivia/internal/domain"
)

const (
	DefaultMaxPoints = 1000
	maxStreakSteps   = 5
)

// ScorePolicy prices one correct answer. Implementations must be pure:
// leaderboards are re-derived from the answer log on every reveal.
type ScorePolicy interface {
	Points(responseTime, questionTime time.Duration, streak int, difficulty string) int
}

// TimeStreakPolicy pays half of MaxPoints for being right and the other half
// in proportion to the time left, then scales by streak and difficulty.
type TimeStreakPolicy struct {
	MaxPoints int
}

func (p TimeStreakPolicy) Points(responseTime, questionTime time.Duration, streak int, difficulty string) int {
	if questionTime <= 0 || streak <= 0 {
		return 0
	}
	left := 1 - float64(responseTime)/float64(questionTime)
	left = math.Max(0, math.Min(1, left))
	base := float64(p.MaxPoints) * (0.5 + 0.5*left)
	streakMult := 1 + 0.1*float64(min(streak-1, maxStreakSteps))
	return int(math.Round(base * streakMult * float64(domain.DifficultyMultiplier(difficulty))))
}

// Score walks the played questions in order. A missing or wrong answer
// resets the streak.
func Score(policy ScorePolicy, player domain.PlayerID, played []domain.Question, answers map[domain.QuestionID]map[domain.PlayerID]domain.AnswerRecord, settings domain.Settings) int {
	questionTime := time.Duration(settings.QuestionTime) * time.Second
	total, streak := 0, 0
	for _, q := range played {
		rec, ok := answers[q.ID][player]
		if !ok || !rec.IsCorrect {
			streak = 0
			continue
		}
		streak++
		rt := time.Duration(rec.ResponseTimeMillis) * time.Millisecond
		total += policy.Points(rt, questionTime, streak, settings.Difficulty)
	}
	return total
}
