package store

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderBot
}

// Message is one chat turn. All messages share a single global history.
type Message struct {
	Text   string `json:"text" bson:"message"`
	Sender Sender `json:"sender" bson:"sender"`
}

func (m Message) Validate() error {
	if strings.TrimSpace(m.Text) == "" {
		return errors.New("message text is empty")
	}
	if !m.Sender.Valid() {
		return fmt.Errorf("invalid sender %q", m.Sender)
	}
	return nil
}

type TrendItem struct {
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	CapturedAt  time.Time `json:"captured_at" bson:"timestamp"` // UTC
}
