package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"filez/api/internal/access"
	"filez/api/internal/blob"
	"filez/api/internal/config"
	"filez/api/internal/docs"
	"filez/api/internal/search"
	"filez/api/internal/session"
	"filez/api/internal/store"
	"filez/api/internal/users"
	"filez/api/internal/zoffice"
)

func testCfg(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Env:                  "test",
		JWTSecret:            "test-secret",
		TokenTTL:             time.Hour,
		TokenName:            "filez_token",
		CORSOrigin:           "*",
		MaxUploadBytes:       10 << 20,
		TemplateDir:          t.TempDir(),
		ZOfficeScheme:        "http",
		ZOfficeHost:          "editor.example.com",
		ZOfficePort:          8080,
		ZOfficeContext:       "/v2/drive",
		ZOfficeSecret:        "app-secret",
		ZOfficeFEIntegration: true,
		RepoID:               "thirdparty-rest",
		CallbackHost:         "localhost",
		CallbackPort:         8686,
		CallbackContext:      "/v2/context",
		PrivilegedUsers:      "admin,share",
		ShareUser:            "share",
		AdminUsername:        "admin",
		AdminPassword:        "zOffice",
		AdminEmail:           "admin@example.com",
	}
}

type testApp struct {
	svc   *Service
	store *store.MemoryStore
	blobs *blob.Memory
	srv   http.Handler
}

func newTestApp(t *testing.T, sessions *session.RedisStore) *testApp {
	t.Helper()

	cfg := testCfg(t)
	for _, name := range []string{"new_doc.docx", "new_excel.xlsx", "new_ppt.pptx"} {
		if err := os.WriteFile(filepath.Join(cfg.TemplateDir, name), []byte("template:"+name), 0o644); err != nil {
			t.Fatalf("write template: %v", err)
		}
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	st := store.NewMemoryStore()
	blobs := blob.NewMemory()
	svc := &Service{
		Cfg:      cfg,
		Log:      log,
		Users:    users.NewService(st),
		Docs:     docs.NewService(st, blobs, docs.NewTemplates(cfg.TemplateDir), cfg.ShareUser, log),
		Access:   access.NewEvaluator(st, cfg.Privileged(), cfg.ShareUser),
		Sessions: sessions,
		Search:   search.NewService(nil),
		ZOffice:  zoffice.NewBuilder(zoffice.Config{
			Scheme:          cfg.ZOfficeScheme,
			Host:            cfg.ZOfficeHost,
			Port:            cfg.ZOfficePort,
			Context:         cfg.ZOfficeContext,
			Secret:          cfg.ZOfficeSecret,
			FEIntegration:   cfg.ZOfficeFEIntegration,
			RepoID:          cfg.RepoID,
			TokenName:       cfg.TokenName,
			CallbackHost:    cfg.CallbackHost,
			CallbackPort:    cfg.CallbackPort,
			CallbackContext: cfg.CallbackContext,
		}),
	}
	if err := svc.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return &testApp{svc: svc, store: st, blobs: blobs, srv: svc.Router()}
}

type testEnvelope struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

func (a *testApp) do(t *testing.T, method, target, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, target, body)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	a.srv.ServeHTTP(w, r)
	return w
}

func (a *testApp) doJSON(t *testing.T, method, target, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	return a.do(t, method, target, token, body, "application/json")
}

func (a *testApp) login(t *testing.T, username, password string) string {
	t.Helper()
	w := a.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status %d: %s", username, w.Code, w.Body.String())
	}
	var env testEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("login response: %v", err)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("login data: %v", err)
	}
	if data.Token == "" {
		t.Fatal("login returned empty token")
	}
	return data.Token
}

func (a *testApp) seedDoc(t *testing.T, id, creator string, content []byte) {
	t.Helper()
	modified := time.Now().Add(-time.Hour)
	doc := store.Document{
		ID:          id,
		Name:        id + ".docx",
		Path:        "/",
		Size:        int64(len(content)),
		Extension:   "docx",
		MimeType:    docs.MimeType("docx"),
		Version:     1,
		CreatedByID: creator,
		OwnerID:     creator,
	}
	if len(content) > 0 {
		doc.ModifiedAt = &modified
	}
	if err := a.store.CreateDocument(context.Background(), doc); err != nil {
		t.Fatalf("seed document: %v", err)
	}
	if len(content) > 0 {
		if err := a.blobs.Write(context.Background(), id, content, doc.MimeType); err != nil {
			t.Fatalf("seed blob: %v", err)
		}
	}
}

func multipartBody(t *testing.T, field, filename string, content []byte, extra map[string]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	for k, v := range extra {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}
