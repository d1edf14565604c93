// Package access decides whether a user may touch a document at all. It is
// the coarse gate consulted before any read, write, metadata or control
// operation; fine-grained capabilities live in the per-user doc controls.
package access

import (
	"context"

	"filez/api/internal/store"
)

type DocFinder interface {
	GetDocument(ctx context.Context, id string) (store.Document, error)
}

type Evaluator struct {
	docs       DocFinder
	privileged map[string]struct{}
	shareID    string
}

// NewEvaluator builds the gate. privileged identities may open every
// document; documents created or owned by shareID are open to everyone.
func NewEvaluator(docs DocFinder, privileged []string, shareID string) *Evaluator {
	set := make(map[string]struct{}, len(privileged))
	for _, id := range privileged {
		set[id] = struct{}{}
	}
	return &Evaluator{docs: docs, privileged: set, shareID: shareID}
}

// CanAccess evaluates the rules in order, first match wins. A document that
// does not resolve, or is soft-deleted, denies access; lookup errors never
// escape as panics or grants.
func (e *Evaluator) CanAccess(ctx context.Context, userID, docID string) bool {
	doc, err := e.docs.GetDocument(ctx, docID)
	if err != nil || doc.IsDeleted {
		return false
	}
	if _, ok := e.privileged[userID]; ok {
		return true
	}
	if doc.CreatedByID == userID || doc.OwnerID == userID {
		return true
	}
	if doc.CreatedByID == e.shareID || doc.OwnerID == e.shareID {
		return true
	}
	return false
}
