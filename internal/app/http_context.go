package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"filez/api/internal/blob"
	"filez/api/internal/store"
	"filez/api/internal/zoffice"
)

// handleDriverCallback builds the signed handoff URL that opens a document
// in the editor and returns it in the standard envelope.
func (s *Service) handleDriverCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	docID := q.Get("docId")
	if docID == "" {
		badRequest(w, "docId is required")
		return
	}

	claims := claimsFrom(r)
	if !s.Access.CanAccess(r.Context(), claims.UserID, docID) {
		forbidden(w, "")
		return
	}

	userinfo, err := s.currentUserinfo(r)
	if err != nil {
		respondError(w, s.Log, err)
		return
	}
	meta, err := s.externalMeta(r, claims.UserID, docID)
	if err != nil {
		respondError(w, s.Log, err)
		return
	}

	openURL, err := s.ZOffice.OpenURL(zoffice.OpenRequest{
		DocID:    docID,
		Action:   q.Get("action"),
		InFrame:  q.Get("isInFrame") == "true",
		Token:    tokenFrom(r),
		Userinfo: userinfo,
		Meta:     meta,
	})
	if err != nil {
		respondError(w, s.Log, err)
		return
	}
	s.Log.WithField("url", openURL).Debug("editor handoff url")
	success(w, openURL)
}

// handleCompareDoc builds the signed URL for the editor's two-document
// compare view. The body is the URL itself, not the envelope.
func (s *Service) handleCompareDoc(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	docAID := q.Get("docAid")
	docBID := q.Get("docBid")
	if docAID == "" || docBID == "" {
		badRequest(w, "docAid and docBid are required")
		return
	}

	claims := claimsFrom(r)
	if !s.Access.CanAccess(r.Context(), claims.UserID, docAID) ||
		!s.Access.CanAccess(r.Context(), claims.UserID, docBID) {
		forbidden(w, "")
		return
	}

	userinfo, err := s.currentUserinfo(r)
	if err != nil {
		respondError(w, s.Log, err)
		return
	}
	metaA, err := s.externalMeta(r, claims.UserID, docAID)
	if err != nil {
		respondError(w, s.Log, err)
		return
	}
	metaB, err := s.externalMeta(r, claims.UserID, docBID)
	if err != nil {
		respondError(w, s.Log, err)
		return
	}

	compareURL, err := s.ZOffice.CompareURL(zoffice.CompareRequest{
		DocAID:   docAID,
		DocBID:   docBID,
		Token:    tokenFrom(r),
		Userinfo: userinfo,
		MetaA:    metaA,
		MetaB:    metaB,
	})
	if err != nil {
		respondError(w, s.Log, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(compareURL))
}

// currentUserinfo marshals the caller's external profile; a user that no
// longer resolves yields nil so the parameter is simply omitted.
func (s *Service) currentUserinfo(r *http.Request) ([]byte, error) {
	claims := claimsFrom(r)
	user, err := s.Users.Get(r.Context(), claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(zoffice.UserProfile(&user))
}

func (s *Service) externalMeta(r *http.Request, userID, docID string) ([]byte, error) {
	doc, err := s.Docs.Get(r.Context(), docID)
	if err != nil {
		return nil, err
	}
	ctl, err := s.Docs.Control(r.Context(), userID, docID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(zoffice.DocMeta(doc, ctl, time.Now()))
}

// handleBridgeContent serves document bytes to the editor. The attachment
// disposition is only set for explicit downloads.
func (s *Service) handleBridgeContent(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docId")
	data, doc, err := s.Docs.Content(r.Context(), docID)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) || errors.Is(err, store.ErrNotFound) {
			notFound(w, "document content not found")
			return
		}
		respondError(w, s.Log, err)
		return
	}

	contentType := doc.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if r.URL.Query().Get("download") == "true" {
		encoded := url.PathEscape(doc.Name)
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", encoded, encoded))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleBridgeSave receives the edited bytes back from the editor. The
// response always carries metadata: the refreshed record when the save
// advanced the modification time, the prior record otherwise. A missing
// file part is treated as a no-op save.
func (s *Service) handleBridgeSave(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docId")

	if err := r.ParseMultipartForm(s.Cfg.MaxUploadBytes); err != nil {
		badRequest(w, "invalid multipart form")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		doc, err := s.Docs.Get(r.Context(), docID)
		if err != nil {
			respondError(w, s.Log, err)
			return
		}
		success(w, viewDoc(doc))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, s.Cfg.MaxUploadBytes+1))
	if err != nil {
		respondError(w, s.Log, err)
		return
	}
	if int64(len(content)) > s.Cfg.MaxUploadBytes {
		failure(w, http.StatusRequestEntityTooLarge, http.StatusRequestEntityTooLarge, "content too large")
		return
	}

	doc, saved, err := s.Docs.SaveContent(r.Context(), docID, content)
	if err != nil {
		respondError(w, s.Log, err)
		return
	}
	if saved {
		s.Log.WithFields(logrus.Fields{"docId": docID, "modifiedAt": doc.ModifiedAt}).Info("editor save accepted")
	} else {
		s.Log.WithField("docId", docID).Info("editor save did not advance modification time")
	}
	success(w, viewDoc(doc))
}

// handleBridgeMeta writes the editor's metadata contract body directly,
// without the envelope.
func (s *Service) handleBridgeMeta(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	docID := chi.URLParam(r, "docId")

	doc, err := s.Docs.Get(r.Context(), docID)
	if err != nil {
		respondError(w, s.Log, err)
		return
	}
	ctl, err := s.Docs.Control(r.Context(), claims.UserID, docID)
	if err != nil {
		respondError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, zoffice.DocMeta(doc, ctl, time.Now()))
}

// handleProfiles answers the editor's user lookups. Three query forms are
// served: keyword/paged listing, an explicit id list, and the bare call
// returning the caller's own profile.
func (s *Service) handleProfiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if q.Get("keyword") != "" || q.Get("page_num") != "" || q.Get("page_limit") != "" {
		all, err := s.Users.List(r.Context())
		if err != nil {
			respondError(w, s.Log, err)
			return
		}
		items := make([]*zoffice.Profile, 0, len(all))
		for i := range all {
			items = append(items, zoffice.UserProfile(&all[i]))
		}
		writeJSON(w, http.StatusOK, map[string]any{"total": len(items), "items": items})
		return
	}

	if ids := q["users"]; len(ids) > 0 {
		list := make([]*zoffice.Profile, 0, len(ids))
		for _, id := range ids {
			user, err := s.Users.Get(r.Context(), id)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				respondError(w, s.Log, err)
				return
			}
			list = append(list, zoffice.UserProfile(&user))
		}
		writeJSON(w, http.StatusOK, map[string]any{"total": len(list), "list": list})
		return
	}

	claims := claimsFrom(r)
	user, err := s.Users.Get(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusOK, json.RawMessage("null"))
			return
		}
		respondError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, zoffice.UserProfile(&user))
}

// handleBridgeNotify echoes the editor's event payload back, per its
// callback contract.
func (s *Service) handleBridgeNotify(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	s.Log.WithFields(logrus.Fields{
		"docId":   chi.URLParam(r, "docId"),
		"payload": string(body),
	}).Info("editor notify")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Service) handleBridgeMention(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	s.Log.WithFields(logrus.Fields{
		"docId":   chi.URLParam(r, "docId"),
		"payload": string(body),
	}).Info("editor mention")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("success"))
}

// handleSaveAs answers the editor's save-as preflight by provisioning the
// target document. Conflicts and unsupported types fail with 409 as the
// editor expects.
func (s *Service) handleSaveAs(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name           string `json:"name"`
		ParentPathName string `json:"parentPathName"`
	}
	if err := decodeBody(r, &body); err != nil || body.Name == "" {
		writeJSON(w, http.StatusConflict, map[string]any{"error": "preflight check fail"})
		return
	}

	dirPath := body.ParentPathName
	if dirPath == "" {
		dirPath = "/"
	}
	creator := claimsFrom(r).UserID
	if creator == "" {
		creator = s.Cfg.AdminUsername
	}

	doc, err := s.Docs.NewFromTemplate(r.Context(), body.Name, dirPath, creator)
	if err != nil {
		s.Log.WithError(err).WithField("name", body.Name).Warn("save-as preflight failed")
		writeJSON(w, http.StatusConflict, map[string]any{"error": "preflight check fail"})
		return
	}
	s.Search.IndexDocument(r.Context(), doc)
	writeJSON(w, http.StatusOK, viewDoc(doc))
}
