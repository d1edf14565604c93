// Package search filters document listings by name keyword. When a
// Meilisearch instance is configured it serves the lookup; otherwise a
// plain substring match over the already-visible set is used.
package search

import (
	"context"
	"strings"

	"filez/api/internal/store"
)

type Service struct {
	meili *Meili
}

// NewService builds the search service; meili may be nil.
func NewService(meili *Meili) *Service {
	return &Service{meili: meili}
}

// IndexDocument registers (or refreshes) a document in the name index.
func (s *Service) IndexDocument(ctx context.Context, doc store.Document) {
	if s.meili != nil {
		s.meili.IndexDocument(doc)
	}
}

// RemoveDocument drops a document from the name index.
func (s *Service) RemoveDocument(ctx context.Context, docID string) {
	if s.meili != nil {
		s.meili.RemoveDocument(docID)
	}
}

// Filter narrows docs to those matching keyword. The candidate set is the
// caller's visibility-filtered listing, so index results can only narrow,
// never widen, what a user sees.
func (s *Service) Filter(ctx context.Context, docs []store.Document, keyword string) []store.Document {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return docs
	}

	if s.meili != nil && s.meili.Healthy() {
		ids, err := s.meili.SearchIDs(keyword)
		if err == nil {
			matched := make([]store.Document, 0, len(docs))
			for _, d := range docs {
				if _, ok := ids[d.ID]; ok {
					matched = append(matched, d)
				}
			}
			return matched
		}
	}

	lower := strings.ToLower(keyword)
	matched := make([]store.Document, 0, len(docs))
	for _, d := range docs {
		if strings.Contains(strings.ToLower(d.Name), lower) {
			matched = append(matched, d)
		}
	}
	return matched
}
