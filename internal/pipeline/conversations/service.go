package conversations

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	errx "github.com/chative-router/server/internal/core/error"
	"github.com/chative-router/server/internal/pipeline/handlers"
	"github.com/chative-router/server/internal/pipeline/model"
	logx "github.com/chative-router/server/pkg/logger"
)

const defaultMaxTurns = 10

// Service runs a stateless handler over a stored conversation: the history is
// loaded, passed in the request and the new turn is persisted afterwards.
// A turn is one user message plus the assistant reply.
type Service struct {
	repo     model.ConversationRepository
	handler  handlers.Handler
	maxTurns int
}

func NewService(repo model.ConversationRepository, handler handlers.Handler, cfg model.ConversationConfig) *Service {
	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}
	return &Service{repo: repo, handler: handler, maxTurns: maxTurns}
}

// Ask answers query within conversationID and returns the conversation ID
// used, generating one when empty. Nothing is stored when the handler fails.
func (s *Service) Ask(ctx context.Context, conversationID, query string) (string, string, error) {
	if strings.TrimSpace(query) == "" {
		return "", conversationID, errx.EmptyRequest()
	}
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	history, err := s.repo.LoadHistory(ctx, conversationID)
	if err != nil {
		return "", conversationID, err
	}

	answer, err := s.handler.Generate(ctx, model.Request{
		Text:    query,
		History: trimTail(history.Messages, 2*s.maxTurns),
	})
	if err != nil {
		return "", conversationID, err
	}

	turn := []*schema.Message{schema.UserMessage(query), schema.AssistantMessage(answer, nil)}
	if err := s.repo.AddMessages(ctx, conversationID, turn...); err != nil {
		return "", conversationID, err
	}
	logx.Debug().
		Str("conversation_id", conversationID).
		Int("history", len(history.Messages)).
		Msg("conversation turn stored")
	return answer, conversationID, nil
}

// History returns the stored turns of a conversation.
func (s *Service) History(ctx context.Context, conversationID string) ([]*schema.Message, error) {
	h, err := s.repo.LoadHistory(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return h.Messages, nil
}

// Reset removes a conversation.
func (s *Service) Reset(ctx context.Context, conversationID string) error {
	return s.repo.ClearHistory(ctx, conversationID)
}

// trimTail keeps the last maxMessages messages, copying the slice.
func trimTail(messages []*schema.Message, maxMessages int) []*schema.Message {
	if len(messages) > maxMessages {
		messages = messages[len(messages)-maxMessages:]
	}
	result := make([]*schema.Message, len(messages))
	copy(result, messages)
	return result
}
