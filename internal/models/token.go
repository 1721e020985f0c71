package models

import (
	"time"
)

// QuizToken grants one student access to one quiz without a session.
type QuizToken struct {
	Quiz            string    `json:"quiz"`
	Student         string    `json:"student"`
	Token           string    `json:"token"`
	RequestCount    int       `json:"request_count"`
	LastRequestTime time.Time `json:"last_request_dttm_utc"`
	CreatedTime     time.Time `json:"created_dttm_utc"`
}
