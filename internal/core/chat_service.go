package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/marketpulse/trendchat/internal/logging"
	"github.com/marketpulse/trendchat/internal/store"
)

// ErrStoreUnavailable is returned when the service started without a store.
var ErrStoreUnavailable = errors.New("database connection is not available")

// MessageStore is the slice of store.Store the chat path needs.
type MessageStore interface {
	InsertMessage(ctx context.Context, msg store.Message) error
	ListMessages(ctx context.Context) ([]store.Message, error)
	DeleteAllMessages(ctx context.Context) error
}

type ChatService struct {
	messages MessageStore
	llm      Completer
	logger   *zap.Logger
}

// NewChatService wires the chat path. messages may be nil when the store could
// not be reached at startup; every call then fails with ErrStoreUnavailable.
func NewChatService(messages MessageStore, llm Completer, logger *zap.Logger) *ChatService {
	return &ChatService{
		messages: messages,
		llm:      llm,
		logger:   logger,
	}
}

func (s *ChatService) StoreAvailable() bool {
	return s.messages != nil
}

// SendMessage stores the user text, asks the model, stores the answer and
// returns it. Both writes are best-effort; only the model call can fail the
// request.
func (s *ChatService) SendMessage(ctx context.Context, text string) (string, error) {
	if !s.StoreAvailable() {
		return "", ErrStoreUnavailable
	}

	s.save(ctx, store.Message{Text: text, Sender: store.SenderUser})

	answer, err := s.llm.Complete(ctx, text)
	if err != nil {
		var perr *ProviderError
		if !errors.As(err, &perr) {
			err = &ProviderError{Err: err}
		}
		return "", err
	}
	if strings.TrimSpace(answer) == "" {
		return "", &ProviderError{Err: errors.New("empty response from model")}
	}

	s.save(ctx, store.Message{Text: answer, Sender: store.SenderBot})
	return answer, nil
}

func (s *ChatService) save(ctx context.Context, msg store.Message) Outcome {
	op := fmt.Sprintf("save %s message", msg.Sender)
	return recordOutcome(s.logger, op, s.messages.InsertMessage(ctx, msg),
		zap.String("text", logging.Snippet(msg.Text, 50)))
}

func (s *ChatService) History(ctx context.Context) ([]store.Message, error) {
	if !s.StoreAvailable() {
		return nil, ErrStoreUnavailable
	}
	return s.messages.ListMessages(ctx)
}

func (s *ChatService) ClearHistory(ctx context.Context) error {
	if !s.StoreAvailable() {
		return ErrStoreUnavailable
	}
	if err := s.messages.DeleteAllMessages(ctx); err != nil {
		return err
	}
	s.logger.Info("chat history cleared")
	return nil
}
