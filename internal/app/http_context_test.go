package app

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestDriverCallbackReturnsSignedURL(t *testing.T) {
	a := newTestApp(t, nil)
	token := a.login(t, "test", "zOffice")
	a.seedDoc(t, "doc-1", "test", []byte("bytes"))

	w := a.do(t, http.MethodGet, "/v2/context/driver-cb?docId=doc-1&action=edit", token, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var env testEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	var handoff string
	if err := json.Unmarshal(env.Data, &handoff); err != nil {
		t.Fatalf("decode url: %v", err)
	}

	if !strings.HasPrefix(handoff, "http://editor.example.com:8080/v2/drive?") {
		t.Fatalf("unexpected editor url: %s", handoff)
	}
	for _, fragment := range []string{"repoId=thirdparty-rest", "action=edit", "docId=doc-1", "userinfo=", "meta=", "&HMAC="} {
		if !strings.Contains(handoff, fragment) {
			t.Fatalf("handoff url missing %q: %s", fragment, handoff)
		}
	}
}

func TestDriverCallbackRequiresDocID(t *testing.T) {
	a := newTestApp(t, nil)
	token := a.login(t, "test", "zOffice")

	w := a.do(t, http.MethodGet, "/v2/context/driver-cb", token, nil, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestDriverCallbackDeniedForForeignDocument(t *testing.T) {
	a := newTestApp(t, nil)
	token := a.login(t, "test", "zOffice")
	a.seedDoc(t, "doc-1", "someone-else", []byte("bytes"))

	w := a.do(t, http.MethodGet, "/v2/context/driver-cb?docId=doc-1", token, nil, "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestCompareDocReturnsRawURL(t *testing.T) {
	a := newTestApp(t, nil)
	token := a.login(t, "test", "zOffice")
	a.seedDoc(t, "doc-a", "test", []byte("a"))
	a.seedDoc(t, "doc-b", "test", []byte("b"))

	w := a.do(t, http.MethodGet, "/v2/context/compareDoc?docAid=doc-a&docBid=doc-b", token, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if strings.HasPrefix(body, "{") {
		t.Fatalf("compare response must be the bare url, got %s", body)
	}
	for _, fragment := range []string{"action=compare", "docId=doc-a", "docIdB=doc-b", "&HMAC="} {
		if !strings.Contains(body, fragment) {
			t.Fatalf("compare url missing %q: %s", fragment, body)
		}
	}
}

// The metadata the editor fetches must reflect the control record: absent
// record means everything allowed and no watermark, an enabled watermark
// appears verbatim.
func TestBridgeMetaFollowsControlRecord(t *testing.T) {
	a := newTestApp(t, nil)
	token := a.login(t, "test", "zOffice")
	a.seedDoc(t, "doc-1", "test", []byte("bytes"))

	w := a.do(t, http.MethodGet, "/v2/context/doc-1/meta", token, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var meta map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &meta); err != nil {
		t.Fatalf("decode meta: %v", err)
	}
	if _, ok := meta["waterMark"]; ok {
		t.Fatal("waterMark emitted without a control record")
	}
	var perms struct {
		Write, Read, Download, Print, Copy bool
	}
	if err := json.Unmarshal(meta["permissions"], &perms); err != nil {
		t.Fatalf("decode permissions: %v", err)
	}
	if !perms.Write || !perms.Read || !perms.Download || !perms.Print || !perms.Copy {
		t.Fatalf("default permissions must be all-permissive: %+v", perms)
	}

	w = a.doJSON(t, http.MethodPut, "/api/doc/doc-1/control", token, map[string]any{
		"canEdit":          false,
		"watermarkEnabled": true,
		"watermarkText":    "CONFIDENTIAL",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("control upsert: status = %d: %s", w.Code, w.Body.String())
	}

	w = a.do(t, http.MethodGet, "/v2/context/doc-1/meta", token, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var after struct {
		Permissions struct {
			Write bool `json:"write"`
			Read  bool `json:"read"`
		} `json:"permissions"`
		WaterMark *struct {
			Enabled bool   `json:"enabled"`
			Text    string `json:"text"`
			Type    string `json:"type"`
		} `json:"waterMark"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &after); err != nil {
		t.Fatalf("decode meta: %v", err)
	}
	if after.Permissions.Write {
		t.Fatal("write permission must follow the control record")
	}
	if !after.Permissions.Read {
		t.Fatal("read must stay true")
	}
	if after.WaterMark == nil || !after.WaterMark.Enabled || after.WaterMark.Text != "CONFIDENTIAL" {
		t.Fatalf("waterMark = %+v", after.WaterMark)
	}
	if after.WaterMark.Type != "text" {
		t.Fatalf("waterMark type = %s, want text default", after.WaterMark.Type)
	}
}

func TestBridgeMetaTimestampShape(t *testing.T) {
	a := newTestApp(t, nil)
	token := a.login(t, "test", "zOffice")
	a.seedDoc(t, "doc-1", "test", []byte("bytes"))

	w := a.do(t, http.MethodGet, "/v2/context/doc-1/meta", token, nil, "")
	var meta struct {
		Version    string `json:"version"`
		CreatedAt  string `json:"created_at"`
		ModifiedAt string `json:"modified_at"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &meta); err != nil {
		t.Fatalf("decode meta: %v", err)
	}
	if meta.Version != "1" {
		t.Fatalf("version = %q, want string \"1\"", meta.Version)
	}
	for _, ts := range []string{meta.CreatedAt, meta.ModifiedAt} {
		if _, err := time.Parse("2006-01-02T15:04:05.000Z", ts); err != nil {
			t.Fatalf("timestamp %q not ISO-8601 UTC with milliseconds: %v", ts, err)
		}
	}
}

func TestBridgeSaveProtocol(t *testing.T) {
	a := newTestApp(t, nil)
	token := a.login(t, "test", "zOffice")
	a.seedDoc(t, "doc-1", "test", []byte("v1"))

	// First save with a live clock advances the modification time.
	body, contentType := multipartBody(t, "file", "doc-1.docx", []byte("v2-content"), nil)
	w := a.do(t, http.MethodPost, "/v2/context/doc-1/content", token, body, contentType)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var env testEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	var saved struct {
		Version int   `json:"version"`
		Size    int64 `json:"size"`
	}
	if err := json.Unmarshal(env.Data, &saved); err != nil {
		t.Fatalf("decode doc: %v", err)
	}
	if saved.Version != 2 {
		t.Fatalf("version = %d, want 2", saved.Version)
	}
	if saved.Size != int64(len("v2-content")) {
		t.Fatalf("size = %d", saved.Size)
	}

	// Freeze the clock strictly past the first save's stamp. The next save
	// still advances; the one after cannot, and must report the prior
	// record instead of a phantom bump.
	frozen := time.Now().Add(time.Second)
	a.svc.Docs.SetClock(func() time.Time { return frozen })

	body, contentType = multipartBody(t, "file", "doc-1.docx", []byte("v3"), nil)
	if w = a.do(t, http.MethodPost, "/v2/context/doc-1/content", token, body, contentType); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	var advanced struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(env.Data, &advanced); err != nil {
		t.Fatalf("decode doc: %v", err)
	}
	if advanced.Version != 3 {
		t.Fatalf("version = %d, want 3", advanced.Version)
	}

	body, contentType = multipartBody(t, "file", "doc-1.docx", []byte("v4"), nil)
	if w = a.do(t, http.MethodPost, "/v2/context/doc-1/content", token, body, contentType); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	var stale struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(env.Data, &stale); err != nil {
		t.Fatalf("decode doc: %v", err)
	}
	if stale.Version != 3 {
		t.Fatalf("stale save reported version %d, want prior 3", stale.Version)
	}
}

func TestBridgeContentDispositionOnlyOnDownload(t *testing.T) {
	a := newTestApp(t, nil)
	token := a.login(t, "test", "zOffice")
	a.seedDoc(t, "doc-1", "test", []byte("bytes"))

	w := a.do(t, http.MethodGet, "/v2/context/doc-1/content", token, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("Content-Disposition") != "" {
		t.Fatal("plain content fetch must not force a download")
	}

	w = a.do(t, http.MethodGet, "/v2/context/doc-1/content?download=true", token, nil, "")
	if !strings.Contains(w.Header().Get("Content-Disposition"), "attachment") {
		t.Fatal("download fetch must set the attachment disposition")
	}
}

func TestProfilesQueryForms(t *testing.T) {
	a := newTestApp(t, nil)
	token := a.login(t, "test", "zOffice")

	// Bare call returns the caller's own profile.
	w := a.do(t, http.MethodGet, "/v2/context/profiles", token, nil, "")
	var own struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &own); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if own.ID != "test" || own.Name != "test" {
		t.Fatalf("own profile = %+v", own)
	}

	// Keyword form lists everyone with a total.
	w = a.do(t, http.MethodGet, "/v2/context/profiles?keyword=a", token, nil, "")
	var paged struct {
		Total int               `json:"total"`
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &paged); err != nil {
		t.Fatalf("decode paged profiles: %v", err)
	}
	if paged.Total != 3 || len(paged.Items) != 3 {
		t.Fatalf("paged = total %d items %d, want the 3 seeded users", paged.Total, len(paged.Items))
	}

	// Explicit id list form; unknown ids are skipped.
	w = a.do(t, http.MethodGet, "/v2/context/profiles?users=admin&users=ghost", token, nil, "")
	var listed struct {
		Total int `json:"total"`
		List  []struct {
			ID string `json:"id"`
		} `json:"list"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode listed profiles: %v", err)
	}
	if listed.Total != 1 || len(listed.List) != 1 || listed.List[0].ID != "admin" {
		t.Fatalf("listed = %+v", listed)
	}
}

func TestSaveAsPreflight(t *testing.T) {
	a := newTestApp(t, nil)
	token := a.login(t, "test", "zOffice")

	w := a.doJSON(t, http.MethodPost, "/v2/context/files/content", token, map[string]string{
		"name":           "copy.docx",
		"parentPathName": "/archive",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var doc struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Path string `json:"path"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode doc: %v", err)
	}
	if doc.Name != "copy.docx" || doc.Path != "/archive" {
		t.Fatalf("doc = %+v", doc)
	}
	if !a.blobs.Has(doc.ID) {
		t.Fatal("save-as target has no template content")
	}

	// A second preflight for the same name conflicts.
	w = a.doJSON(t, http.MethodPost, "/v2/context/files/content", token, map[string]string{
		"name": "copy.docx",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate preflight: status = %d, want 409", w.Code)
	}
}

func TestBridgeNotifyEchoesPayload(t *testing.T) {
	a := newTestApp(t, nil)
	token := a.login(t, "test", "zOffice")
	a.seedDoc(t, "doc-1", "test", []byte("bytes"))

	payload := `{"docId":"doc-1","repoId":"thirdparty-rest","type":"edit.session.close"}`
	w := a.do(t, http.MethodPost, "/v2/context/doc-1/notify", token, strings.NewReader(payload), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Body.String() != payload {
		t.Fatalf("notify must echo the payload, got %s", w.Body.String())
	}

	w = a.do(t, http.MethodPost, "/v2/context/doc-1/mention", token, strings.NewReader(`{}`), "application/json")
	if w.Body.String() != "success" {
		t.Fatalf("mention body = %q", w.Body.String())
	}
}
