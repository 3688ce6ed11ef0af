package domain

import "time"

// Step is the stage of a user's quiz conversation.
type Step string

const (
	StepQuizQ1 Step = "quiz_q1"
	StepQuizQ2 Step = "quiz_q2"
	StepQuizQ3 Step = "quiz_q3"
	StepDone   Step = "done"
)

// User is a party guest resolved by display name. Two guests typing the same
// name share one record; the directory makes no attempt to tell them apart.
type User struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Step      Step   `json:"step"`
	Score     int    `json:"score"`
	CreatedAt string `json:"created_at"`
}

// TimeLayout is the format of every created_at field in the store.
// Fixed-width UTC, so lexicographic order matches chronological order.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

func Timestamp(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}
