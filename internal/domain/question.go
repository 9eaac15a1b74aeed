package domain

import "time"

type QuestionID string

type Question struct {
	ID            QuestionID `json:"questionId"`
	Text          string     `json:"question"`
	AnswerOptions []string   `json:"answers"`
	CorrectAnswer string     `json:"correctAnswer"`
}

// ActiveQuestion is the redacted copy handed out while answers are open.
// It has no correct answer field at all, so it cannot leak through encoding.
type ActiveQuestion struct {
	ID            QuestionID `json:"questionId"`
	Text          string     `json:"question"`
	AnswerOptions []string   `json:"answers"`
	SentAt        time.Time  `json:"sentAt"`
}

func (q Question) Redact(sentAt time.Time) *ActiveQuestion {
	opts := make([]string, len(q.AnswerOptions))
	copy(opts, q.AnswerOptions)
	return &ActiveQuestion{ID: q.ID, Text: q.Text, AnswerOptions: opts, SentAt: sentAt}
}

// SourceQuestion is one entry as returned by the question bank.
type SourceQuestion struct {
	ID               string
	Text             string
	IncorrectAnswers []string
	CorrectAnswer    string
}

// Criteria filters a question set request.
type Criteria struct {
	Amount     int
	Region     string
	Category   string
	Difficulty string
	Tag        string
}

type AnswerRecord struct {
	SubmittedAnswer    string `json:"answer"`
	IsCorrect          bool   `json:"correct"`
	ResponseTimeMillis int64  `json:"time"`
}
