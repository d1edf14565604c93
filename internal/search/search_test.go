package search

import (
	"context"
	"testing"

	"filez/api/internal/store"
)

func docsNamed(names ...string) []store.Document {
	docs := make([]store.Document, 0, len(names))
	for i, name := range names {
		docs = append(docs, store.Document{ID: string(rune('a' + i)), Name: name})
	}
	return docs
}

func TestFilterEmptyKeywordReturnsAll(t *testing.T) {
	svc := NewService(nil)
	docs := docsNamed("budget.docx", "roadmap.pptx")

	got := svc.Filter(context.Background(), docs, "")
	if len(got) != 2 {
		t.Fatalf("got %d docs, want all", len(got))
	}
	got = svc.Filter(context.Background(), docs, "   ")
	if len(got) != 2 {
		t.Fatalf("whitespace keyword filtered to %d docs, want all", len(got))
	}
}

func TestFilterSubstringFallback(t *testing.T) {
	svc := NewService(nil)
	docs := docsNamed("Budget-Q3.docx", "roadmap.pptx", "budget notes.txt")

	got := svc.Filter(context.Background(), docs, "BUDGET")
	if len(got) != 2 {
		t.Fatalf("got %d matches, want case-insensitive substring matches", len(got))
	}
	for _, d := range got {
		if d.Name == "roadmap.pptx" {
			t.Fatal("non-matching document survived the filter")
		}
	}
}

func TestFilterNeverWidensVisibleSet(t *testing.T) {
	svc := NewService(nil)
	visible := docsNamed("mine.docx")

	got := svc.Filter(context.Background(), visible, "mine")
	if len(got) != 1 || got[0].Name != "mine.docx" {
		t.Fatalf("got %+v", got)
	}
	// Nothing outside the candidate slice can appear.
	got = svc.Filter(context.Background(), nil, "mine")
	if len(got) != 0 {
		t.Fatalf("filter invented %d documents", len(got))
	}
}
