package app

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

func TestUploadListDownloadDelete(t *testing.T) {
	a := newTestApp(t, nil)
	token := a.login(t, "test", "zOffice")

	body, contentType := multipartBody(t, "file", "report.docx", []byte("report-bytes"), map[string]string{"path": "/work"})
	w := a.do(t, http.MethodPost, "/api/file/upload", token, body, contentType)
	if w.Code != http.StatusOK {
		t.Fatalf("upload: status = %d: %s", w.Code, w.Body.String())
	}
	var env testEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	var doc struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Path    string `json:"path"`
		Size    int64  `json:"size"`
		Version int    `json:"version"`
	}
	if err := json.Unmarshal(env.Data, &doc); err != nil {
		t.Fatalf("decode doc: %v", err)
	}
	if doc.Name != "report.docx" || doc.Path != "/work" || doc.Size != int64(len("report-bytes")) || doc.Version != 1 {
		t.Fatalf("doc = %+v", doc)
	}

	w = a.do(t, http.MethodGet, "/api/file/list", token, nil, "")
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	var list []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].ID != doc.ID {
		t.Fatalf("list = %+v", list)
	}

	w = a.do(t, http.MethodGet, "/api/file/download/"+doc.ID, token, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("download: status = %d", w.Code)
	}
	if w.Body.String() != "report-bytes" {
		t.Fatalf("download body = %q", w.Body.String())
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "report.docx") {
		t.Fatal("download missing filename disposition")
	}

	w = a.do(t, http.MethodDelete, "/api/file/delete/"+doc.ID, token, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", w.Code)
	}
	if a.blobs.Has(doc.ID) {
		t.Fatal("content survived deletion")
	}

	w = a.do(t, http.MethodGet, "/api/file/list", token, nil, "")
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("deleted document still listed: %+v", list)
	}
}

func TestDownloadDeniedForForeignDocument(t *testing.T) {
	a := newTestApp(t, nil)
	token := a.login(t, "test", "zOffice")
	a.seedDoc(t, "doc-1", "someone-else", []byte("private"))

	w := a.do(t, http.MethodGet, "/api/file/download/doc-1", token, nil, "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestAdminSeesEveryDocument(t *testing.T) {
	a := newTestApp(t, nil)
	adminToken := a.login(t, "admin", "zOffice")
	a.seedDoc(t, "doc-1", "someone-else", []byte("private"))

	w := a.do(t, http.MethodGet, "/api/file/download/doc-1", adminToken, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("admin download: status = %d", w.Code)
	}
}

func TestListIncludesSharedDocuments(t *testing.T) {
	a := newTestApp(t, nil)
	token := a.login(t, "test", "zOffice")
	a.seedDoc(t, "shared-doc", "share", []byte("x"))
	a.seedDoc(t, "private-doc", "someone-else", []byte("y"))

	w := a.do(t, http.MethodGet, "/api/file/list", token, nil, "")
	var env testEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	var list []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].ID != "shared-doc" {
		t.Fatalf("list = %+v, want only the share-attributed document", list)
	}
}

func TestListKeywordFilter(t *testing.T) {
	a := newTestApp(t, nil)
	token := a.login(t, "test", "zOffice")
	a.seedDoc(t, "budget-q3", "test", []byte("x"))
	a.seedDoc(t, "roadmap", "test", []byte("y"))

	w := a.do(t, http.MethodGet, "/api/file/list?keyword=budget", token, nil, "")
	var env testEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	var list []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].ID != "budget-q3" {
		t.Fatalf("filtered list = %+v", list)
	}
}

func TestBatchDeleteStopsAtDenied(t *testing.T) {
	a := newTestApp(t, nil)
	token := a.login(t, "test", "zOffice")
	a.seedDoc(t, "mine", "test", []byte("x"))
	a.seedDoc(t, "not-mine", "someone-else", []byte("y"))

	w := a.doJSON(t, http.MethodPost, "/api/file/batch-delete", token, map[string]any{
		"docIds": []string{"not-mine", "mine"},
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	if a.blobs.Has("not-mine") == false {
		t.Fatal("denied document was deleted")
	}
}

func TestNewFileFromTemplate(t *testing.T) {
	a := newTestApp(t, nil)
	token := a.login(t, "test", "zOffice")

	w := a.doJSON(t, http.MethodPost, "/api/file/new", token, map[string]string{
		"docType":  "xlsx",
		"filename": "ledger",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var env testEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	var doc struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Extension string `json:"extension"`
	}
	if err := json.Unmarshal(env.Data, &doc); err != nil {
		t.Fatalf("decode doc: %v", err)
	}
	if !strings.HasSuffix(doc.Name, "-ledger.xlsx") {
		t.Fatalf("name = %s, want timestamped ledger.xlsx", doc.Name)
	}
	if doc.Extension != "xlsx" {
		t.Fatalf("extension = %s", doc.Extension)
	}
	if !a.blobs.Has(doc.ID) {
		t.Fatal("template content not written")
	}

	w = a.doJSON(t, http.MethodPost, "/api/file/new", token, map[string]string{"docType": "txt"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unsupported type: status = %d, want 400", w.Code)
	}
}
