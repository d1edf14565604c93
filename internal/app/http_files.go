package app

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"filez/api/internal/blob"
	"filez/api/internal/docs"
	"filez/api/internal/store"
)

func (s *Service) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.Cfg.MaxUploadBytes); err != nil {
		badRequest(w, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "file field is required")
		return
	}
	defer file.Close()

	doc, err := s.storeUpload(r, file, header, r.FormValue("path"))
	if err != nil {
		respondError(w, s.Log, err)
		return
	}
	success(w, viewDoc(doc), "Uploaded")
}

func (s *Service) handleBatchUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.Cfg.MaxUploadBytes); err != nil {
		badRequest(w, "invalid multipart form")
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		badRequest(w, "files field is required")
		return
	}

	uploaded := make([]docView, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			respondError(w, s.Log, err)
			return
		}
		doc, err := s.storeUpload(r, file, header, r.FormValue("path"))
		file.Close()
		if err != nil {
			respondError(w, s.Log, err)
			return
		}
		uploaded = append(uploaded, viewDoc(doc))
	}
	success(w, uploaded, fmt.Sprintf("Uploaded %d files", len(uploaded)))
}

func (s *Service) storeUpload(r *http.Request, file multipart.File, header *multipart.FileHeader, dirPath string) (store.Document, error) {
	content, err := io.ReadAll(io.LimitReader(file, s.Cfg.MaxUploadBytes+1))
	if err != nil {
		return store.Document{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(content)) > s.Cfg.MaxUploadBytes {
		return store.Document{}, domainError(http.StatusRequestEntityTooLarge, http.StatusRequestEntityTooLarge, "file too large")
	}

	claims := claimsFrom(r)
	doc, err := s.Docs.Create(r.Context(), docs.CreateInput{
		Name:     header.Filename,
		Path:     dirPath,
		UserID:   claims.UserID,
		Content:  content,
		MimeType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		return store.Document{}, err
	}
	s.Search.IndexDocument(r.Context(), doc)
	return doc, nil
}

func (s *Service) handleDownload(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docId")
	claims := claimsFrom(r)
	if !s.Access.CanAccess(r.Context(), claims.UserID, docID) {
		forbidden(w, "")
		return
	}

	data, doc, err := s.Docs.Content(r.Context(), docID)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) || errors.Is(err, store.ErrNotFound) {
			notFound(w, "document content not found")
			return
		}
		respondError(w, s.Log, err)
		return
	}
	serveFile(w, doc, data)
}

func (s *Service) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docId")
	claims := claimsFrom(r)
	if !s.Access.CanAccess(r.Context(), claims.UserID, docID) {
		forbidden(w, "")
		return
	}

	doc, err := s.Docs.Delete(r.Context(), docID)
	if err != nil {
		respondError(w, s.Log, err)
		return
	}
	s.Search.RemoveDocument(r.Context(), docID)
	success(w, viewDoc(doc), "Deleted")
}

func (s *Service) handleBatchDelete(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DocIDs []string `json:"docIds"`
	}
	if err := decodeBody(r, &body); err != nil {
		badRequest(w, err.Error())
		return
	}
	if len(body.DocIDs) == 0 {
		badRequest(w, "docIds is required")
		return
	}

	claims := claimsFrom(r)
	deleted := make([]docView, 0, len(body.DocIDs))
	for _, docID := range body.DocIDs {
		if !s.Access.CanAccess(r.Context(), claims.UserID, docID) {
			forbidden(w, fmt.Sprintf("access denied for document %s", docID))
			return
		}
		doc, err := s.Docs.Delete(r.Context(), docID)
		if err != nil {
			respondError(w, s.Log, err)
			return
		}
		s.Search.RemoveDocument(r.Context(), docID)
		deleted = append(deleted, viewDoc(doc))
	}
	success(w, deleted, fmt.Sprintf("Deleted %d files", len(deleted)))
}

// handleNewFile creates a blank document from the template matching the
// requested type. The generated name carries a timestamp prefix so repeated
// creations do not collide.
func (s *Service) handleNewFile(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DocType  string `json:"docType"`
		Filename string `json:"filename"`
	}
	if err := decodeBody(r, &body); err != nil {
		badRequest(w, err.Error())
		return
	}
	if body.DocType == "" {
		badRequest(w, "docType is required")
		return
	}
	if !docs.Supported(body.DocType) {
		badRequest(w, fmt.Sprintf("unsupported document type %q", body.DocType))
		return
	}

	base := body.Filename
	if base == "" {
		base = "new"
	}
	name := fmt.Sprintf("%s-%s.%s", time.Now().UTC().Format("20060102T150405"), base, body.DocType)

	claims := claimsFrom(r)
	doc, err := s.Docs.NewFromTemplate(r.Context(), name, "/", claims.UserID)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	s.Search.IndexDocument(r.Context(), doc)
	success(w, viewDoc(doc), "Created")
}

func (s *Service) handleListFiles(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	list, err := s.Docs.List(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, s.Log, err)
		return
	}
	list = s.Search.Filter(r.Context(), list, r.URL.Query().Get("keyword"))
	success(w, viewDocs(list))
}

func serveFile(w http.ResponseWriter, doc store.Document, data []byte) {
	contentType := doc.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Name))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
