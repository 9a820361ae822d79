package user

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyExists = errors.New("user already exists")
)

// Record is a chatbot user, identified by the phone number the channel reports.
type Record struct {
	ID          uuid.UUID `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	Name        string    `json:"name"`
	Country     string    `json:"country"`

	// ScreeningToken is the inference provider session. Set only while a
	// self-screening is in progress.
	ScreeningToken *string `json:"screening_token,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Record) Token() (string, bool) {
	if r == nil || r.ScreeningToken == nil || *r.ScreeningToken == "" {
		return "", false
	}
	return *r.ScreeningToken, true
}

func (r *Record) SetToken(token string) {
	r.ScreeningToken = &token
}

func (r *Record) ClearToken() {
	r.ScreeningToken = nil
}

func (r *Record) clone() *Record {
	c := *r
	if r.ScreeningToken != nil {
		t := *r.ScreeningToken
		c.ScreeningToken = &t
	}
	return &c
}
