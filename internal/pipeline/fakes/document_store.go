package fakes

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/schema"
)

// DocumentStore keeps documents in memory and answers queries in insertion
// order. Err, when set, fails every call.
type DocumentStore struct {
	mu      sync.Mutex
	docs    map[string][]*schema.Document
	queries []string
	Err     error
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: map[string][]*schema.Document{}}
}

func (s *DocumentStore) Exists(_ context.Context, collection string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	return len(s.docs[collection]) > 0, nil
}

func (s *DocumentStore) Put(_ context.Context, collection string, docs []*schema.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if s.docs == nil {
		s.docs = map[string][]*schema.Document{}
	}
	existing := s.docs[collection]
	for _, d := range docs {
		replaced := false
		for i, e := range existing {
			if d.ID != "" && e.ID == d.ID {
				existing[i] = d
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, d)
		}
	}
	s.docs[collection] = existing
	return nil
}

func (s *DocumentStore) Query(_ context.Context, collection string, text string, k int) ([]*schema.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, text)
	if s.Err != nil {
		return nil, s.Err
	}
	docs := s.docs[collection]
	if k < len(docs) {
		docs = docs[:k]
	}
	return append([]*schema.Document(nil), docs...), nil
}

// Queries returns the query texts received so far.
func (s *DocumentStore) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

// Len returns the number of documents in a collection.
func (s *DocumentStore) Len(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs[collection])
}
