package domain

// Snapshot is the read-only view pushed to subscribers. It never carries the
// question bank, and answers for the question still open are withheld.
type Snapshot struct {
	ID                SessionID                                `json:"id"`
	Status            Status                                   `json:"status"`
	Settings          Settings                                 `json:"settings"`
	Players           []Player                                 `json:"players"`
	Questions         []Question                               `json:"questions"`
	PreviousQuestions []Question                               `json:"previousQuestions"`
	ActiveQuestion    *ActiveQuestion                          `json:"activeQuestion"`
	Answers           map[QuestionID]map[PlayerID]AnswerRecord `json:"answers"`
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:                s.ID,
		Status:            s.Status,
		Settings:          s.Settings,
		Players:           make([]Player, len(s.Players)),
		Questions:         []Question{},
		PreviousQuestions: append([]Question{}, s.PreviousQuestions...),
		Answers:           make(map[QuestionID]map[PlayerID]AnswerRecord, len(s.Answers)),
	}
	for i, p := range s.Players {
		snap.Players[i] = *p
	}
	if s.ActiveQuestion != nil {
		aq := *s.ActiveQuestion
		aq.AnswerOptions = append([]string{}, s.ActiveQuestion.AnswerOptions...)
		snap.ActiveQuestion = &aq
	}
	for qid, byPlayer := range s.Answers {
		if s.ActiveQuestion != nil && qid == s.ActiveQuestion.ID {
			continue
		}
		cp := make(map[PlayerID]AnswerRecord, len(byPlayer))
		for pid, rec := range byPlayer {
			cp[pid] = rec
		}
		snap.Answers[qid] = cp
	}
	return snap
}
