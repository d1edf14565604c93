package app

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"filez/api/internal/blob"
	"filez/api/internal/docs"
	"filez/api/internal/store"
)

func (s *Service) handleDocMeta(w http.ResponseWriter, r *http.Request) {
	doc, err := s.Docs.Get(r.Context(), chi.URLParam(r, "docId"))
	if err != nil {
		respondError(w, s.Log, err)
		return
	}
	success(w, viewDoc(doc))
}

func (s *Service) handleUpdateDocMeta(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name *string `json:"name"`
		Path *string `json:"path"`
	}
	if err := decodeBody(r, &body); err != nil {
		badRequest(w, err.Error())
		return
	}

	doc, err := s.Docs.UpdateMeta(r.Context(), chi.URLParam(r, "docId"), docs.MetaPatch{
		Name: body.Name,
		Path: body.Path,
	})
	if err != nil {
		respondError(w, s.Log, err)
		return
	}
	s.Search.IndexDocument(r.Context(), doc)
	success(w, viewDoc(doc))
}

func (s *Service) handleDocContent(w http.ResponseWriter, r *http.Request) {
	data, doc, err := s.Docs.Content(r.Context(), chi.URLParam(r, "docId"))
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

// handleSaveDocContent replaces a document's bytes from a multipart form,
// the same shape the upload endpoints accept.
func (s *Service) handleSaveDocContent(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docId")
	if err := r.ParseMultipartForm(s.Cfg.MaxUploadBytes); err != nil {
		badRequest(w, "invalid multipart form")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "file part is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, s.Cfg.MaxUploadBytes+1))
	if err != nil {
		badRequest(w, "could not read content")
		return
	}
	if int64(len(content)) > s.Cfg.MaxUploadBytes {
		failure(w, http.StatusRequestEntityTooLarge, http.StatusRequestEntityTooLarge, "content too large")
		return
	}

	_, saved, err := s.Docs.SaveContent(r.Context(), docID, content)
	if err != nil {
		respondError(w, s.Log, err)
		return
	}
	if !saved {
		success(w, nil, "Not saved")
		return
	}
	success(w, nil, "Saved")
}

func (s *Service) handleGetControl(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	docID := chi.URLParam(r, "docId")
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = claims.UserID
	}

	ctl, err := s.Docs.Control(r.Context(), userID, docID)
	if err != nil {
		respondError(w, s.Log, err)
		return
	}
	success(w, viewControl(ctl))
}

// handleUpsertControl merges a partial control update over the existing
// record, or over the defaults when none exists yet.
func (s *Service) handleUpsertControl(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID           string  `json:"userId"`
		CanEdit          *bool   `json:"canEdit"`
		CanDownload      *bool   `json:"canDownload"`
		CanPrint         *bool   `json:"canPrint"`
		CanCopy          *bool   `json:"canCopy"`
		CanComment       *bool   `json:"canComment"`
		CanShare         *bool   `json:"canShare"`
		WatermarkEnabled *bool   `json:"watermarkEnabled"`
		WatermarkText    *string `json:"watermarkText"`
		WatermarkType    *string `json:"watermarkType"`
		Extensions       *string `json:"extensions"`
	}
	if err := decodeBody(r, &body); err != nil {
		badRequest(w, err.Error())
		return
	}

	claims := claimsFrom(r)
	userID := body.UserID
	if userID == "" {
		userID = claims.UserID
	}

	ctl, err := s.Docs.UpsertControl(r.Context(), userID, chi.URLParam(r, "docId"), docs.ControlPatch{
		CanEdit:          body.CanEdit,
		CanDownload:      body.CanDownload,
		CanPrint:         body.CanPrint,
		CanCopy:          body.CanCopy,
		CanComment:       body.CanComment,
		CanShare:         body.CanShare,
		WatermarkEnabled: body.WatermarkEnabled,
		WatermarkText:    body.WatermarkText,
		WatermarkType:    body.WatermarkType,
		Extensions:       body.Extensions,
	})
	if err != nil {
		respondError(w, s.Log, err)
		return
	}
	success(w, viewControl(ctl))
}

// handleNotify receives editor events for a document. Events are logged;
// no further routing is attached.
func (s *Service) handleNotify(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	s.Log.WithFields(logrus.Fields{
		"docId":   chi.URLParam(r, "docId"),
		"userId":  claimsFrom(r).UserID,
		"payload": string(body),
	}).Info("doc notify")
	success(w, nil, "Notified")
}

// handleMention receives @-mention events raised inside the editor.
func (s *Service) handleMention(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	s.Log.WithFields(logrus.Fields{
		"docId":   chi.URLParam(r, "docId"),
		"userId":  claimsFrom(r).UserID,
		"payload": string(body),
	}).Info("doc mention")
	success(w, nil, "Mentioned")
}
