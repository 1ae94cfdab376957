package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// ConversationRepository persists the turns of conversations by ID. Unknown
// IDs load as an empty history.
type ConversationRepository interface {
	AddMessage(ctx context.Context, conversationID string, message *schema.Message) error
	// AddMessages appends all messages or none of them.
	AddMessages(ctx context.Context, conversationID string, messages ...*schema.Message) error
	LoadHistory(ctx context.Context, conversationID string) (*ConversationHistory, error)
	// SaveHistory replaces all stored turns.
	SaveHistory(ctx context.Context, conversationID string, messages []*schema.Message) error
	ClearHistory(ctx context.Context, conversationID string) error
	GetMessageCount(ctx context.Context, conversationID string) (int, error)
}

// ConversationHistory is the ordered list of turns stored for one conversation.
type ConversationHistory struct {
	ConversationID string
	Messages       []*schema.Message
}

// DocumentStore is the embedding-indexed store used by retrieval handlers.
type DocumentStore interface {
	// Exists reports whether the collection holds at least one document.
	Exists(ctx context.Context, collection string) (bool, error)

	// Put embeds and stores documents, replacing documents with the same ID.
	Put(ctx context.Context, collection string, docs []*schema.Document) error

	// Query returns up to k documents ordered by descending similarity to text.
	// The similarity is available through Document.Score.
	Query(ctx context.Context, collection string, text string, k int) ([]*schema.Document, error)
}

// Metadata keys set on stored documents.
const (
	MetaSource = "source"
	MetaChunk  = "chunk"
)
