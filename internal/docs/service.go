// Package docs implements the document service: metadata CRUD, the content
// save protocol, and the per-user permission controls.
package docs

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"filez/api/internal/blob"
	"filez/api/internal/store"
)

type Store interface {
	CreateDocument(ctx context.Context, d store.Document) error
	GetDocument(ctx context.Context, id string) (store.Document, error)
	GetDocumentByName(ctx context.Context, name string) (store.Document, error)
	ListDocuments(ctx context.Context, userID, shareID string) ([]store.Document, error)
	UpdateDocument(ctx context.Context, id string, patch store.DocumentPatch) error
	GetControl(ctx context.Context, userID, docID string) (store.DocControl, error)
	PutControl(ctx context.Context, c store.DocControl) error
}

type Service struct {
	store     Store
	blobs     blob.Store
	templates *Templates
	shareID   string
	log       *logrus.Logger
	now       func() time.Time
}

func NewService(s Store, blobs blob.Store, templates *Templates, shareID string, log *logrus.Logger) *Service {
	return &Service{
		store:     s,
		blobs:     blobs,
		templates: templates,
		shareID:   shareID,
		log:       log,
		now:       time.Now,
	}
}

// SetClock overrides the service clock for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

type CreateInput struct {
	Name      string
	Path      string
	UserID    string
	Content   []byte
	MimeType  string
	Extension string
}

// Create registers a new document owned and created by UserID and, when
// content is given, writes its bytes and stamps modified_at.
func (s *Service) Create(ctx context.Context, in CreateInput) (store.Document, error) {
	ext := in.Extension
	if ext == "" {
		ext = strings.TrimPrefix(filepath.Ext(in.Name), ".")
	}
	mime := in.MimeType
	if mime == "" {
		mime = MimeType(ext)
	}

	doc := store.Document{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Path:        in.Path,
		Size:        int64(len(in.Content)),
		Extension:   ext,
		MimeType:    mime,
		Version:     1,
		CreatedByID: in.UserID,
		OwnerID:     in.UserID,
	}
	if len(in.Content) > 0 {
		now := s.now()
		doc.ModifiedAt = &now
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return store.Document{}, err
	}
	if len(in.Content) > 0 {
		if err := s.blobs.Write(ctx, doc.ID, in.Content, mime); err != nil {
			return store.Document{}, err
		}
	}
	return s.store.GetDocument(ctx, doc.ID)
}

func (s *Service) Get(ctx context.Context, docID string) (store.Document, error) {
	return s.store.GetDocument(ctx, docID)
}

func (s *Service) GetByName(ctx context.Context, name string) (store.Document, error) {
	return s.store.GetDocumentByName(ctx, name)
}

// List returns every live document visible to userID.
func (s *Service) List(ctx context.Context, userID string) ([]store.Document, error) {
	return s.store.ListDocuments(ctx, userID, s.shareID)
}

type MetaPatch struct {
	Name *string
	Path *string
}

func (s *Service) UpdateMeta(ctx context.Context, docID string, patch MetaPatch) (store.Document, error) {
	now := s.now()
	err := s.store.UpdateDocument(ctx, docID, store.DocumentPatch{
		Name:       patch.Name,
		Path:       patch.Path,
		ModifiedAt: &now,
	})
	if err != nil {
		return store.Document{}, err
	}
	return s.store.GetDocument(ctx, docID)
}

// SaveContent writes new bytes for the document and reports whether the
// save took effect. The editor's save protocol requires observing the
// stored modified_at advancing strictly past its prior value; when it does
// not, the prior metadata is returned with saved=false and no error.
func (s *Service) SaveContent(ctx context.Context, docID string, content []byte) (store.Document, bool, error) {
	prev, err := s.store.GetDocument(ctx, docID)
	if err != nil {
		return store.Document{}, false, err
	}

	if err := s.blobs.Write(ctx, docID, content, prev.MimeType); err != nil {
		return prev, false, err
	}

	now := s.now()
	size := int64(len(content))
	version := prev.Version + 1
	err = s.store.UpdateDocument(ctx, docID, store.DocumentPatch{
		Size:       &size,
		Version:    &version,
		ModifiedAt: &now,
	})
	if err != nil {
		return prev, false, err
	}

	cur, err := s.store.GetDocument(ctx, docID)
	if err != nil {
		return prev, false, err
	}
	if cur.ModifiedAt == nil {
		return prev, false, nil
	}
	if prev.ModifiedAt != nil && !cur.ModifiedAt.After(*prev.ModifiedAt) {
		return prev, false, nil
	}
	return cur, true, nil
}

// Content returns the stored bytes and metadata for a document.
func (s *Service) Content(ctx context.Context, docID string) ([]byte, store.Document, error) {
	doc, err := s.store.GetDocument(ctx, docID)
	if err != nil {
		return nil, store.Document{}, err
	}
	data, err := s.blobs.Read(ctx, docID)
	if err != nil {
		return nil, doc, err
	}
	return data, doc, nil
}

// Delete soft-deletes the document, then purges its bytes best-effort: a
// failed purge is logged and does not roll back the soft-delete.
func (s *Service) Delete(ctx context.Context, docID string) (store.Document, error) {
	if _, err := s.store.GetDocument(ctx, docID); err != nil {
		return store.Document{}, err
	}
	deleted := true
	if err := s.store.UpdateDocument(ctx, docID, store.DocumentPatch{IsDeleted: &deleted}); err != nil {
		return store.Document{}, err
	}
	if err := s.blobs.Delete(ctx, docID); err != nil {
		s.log.WithError(err).WithField("docId", docID).Warn("content purge failed after soft-delete")
	}
	return s.store.GetDocument(ctx, docID)
}

// NewFromTemplate creates a document seeded from the template matching the
// file extension. Fails when a live document with the same name exists.
func (s *Service) NewFromTemplate(ctx context.Context, name, dirPath, userID string) (store.Document, error) {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if !Supported(ext) {
		return store.Document{}, fmt.Errorf("unsupported document type %q", ext)
	}
	if _, err := s.store.GetDocumentByName(ctx, name); err == nil {
		return store.Document{}, fmt.Errorf("document %q already exists", name)
	} else if !errors.Is(err, store.ErrNotFound) {
		return store.Document{}, err
	}

	content, err := s.templates.Bytes(ext)
	if err != nil {
		return store.Document{}, err
	}
	return s.Create(ctx, CreateInput{
		Name:      name,
		Path:      dirPath,
		UserID:    userID,
		Content:   content,
		Extension: ext,
	})
}

// Control returns the stored control record for (userID, docID), or the
// all-permissive default when none exists. Absence is not an error.
func (s *Service) Control(ctx context.Context, userID, docID string) (store.DocControl, error) {
	ctl, err := s.store.GetControl(ctx, userID, docID)
	if errors.Is(err, store.ErrNotFound) {
		return DefaultControl(userID, docID), nil
	}
	if err != nil {
		return store.DocControl{}, err
	}
	return ctl, nil
}

// UpsertControl layers the patch over the existing record, or over the
// defaults when none exists, and writes the merged result. The storage
// layer's (user, doc) uniqueness resolves concurrent upserts.
func (s *Service) UpsertControl(ctx context.Context, userID, docID string, patch ControlPatch) (store.DocControl, error) {
	ctl, err := s.store.GetControl(ctx, userID, docID)
	if errors.Is(err, store.ErrNotFound) {
		ctl = DefaultControl(userID, docID)
		ctl.ID = uuid.NewString()
	} else if err != nil {
		return store.DocControl{}, err
	}

	patch.apply(&ctl)
	if err := s.store.PutControl(ctx, ctl); err != nil {
		return store.DocControl{}, err
	}
	return s.store.GetControl(ctx, userID, docID)
}
