package zoffice

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config locates the co-editing server and carries the signing material.
type Config struct {
	Scheme        string
	Host          string
	Port          int
	Context       string // path on the editor that accepts the signed payload
	Secret        string
	FEIntegration bool
	RepoID        string
	TokenName     string

	// Where the editor reaches back into this backend for document bytes.
	CallbackHost    string
	CallbackPort    int
	CallbackContext string
}

// Builder assembles handoff URLs. All query construction funnels through
// the ordered pair list below: the HMAC covers the literal query text, so
// parameter order is part of the protocol, never an accident of a map.
type Builder struct {
	cfg Config
	now func() time.Time
}

func NewBuilder(cfg Config) *Builder {
	return &Builder{cfg: cfg, now: time.Now}
}

// SetClock overrides the timestamp source for tests.
func (b *Builder) SetClock(now func() time.Time) {
	b.now = now
}

// orderedParams preserves append order; encoding matches form-encoding
// (space as '+'), the same canonical text the signature covers.
type orderedParams struct {
	pairs [][2]string
}

func (p *orderedParams) Add(key, value string) {
	p.pairs = append(p.pairs, [2]string{key, value})
}

func (p *orderedParams) Encode() string {
	var sb strings.Builder
	for i, kv := range p.pairs {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(kv[0]))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(kv[1]))
	}
	return sb.String()
}

func (b *Builder) baseURL() string {
	u := fmt.Sprintf("%s://%s", b.cfg.Scheme, b.cfg.Host)
	if b.cfg.Port != 0 && b.cfg.Port != 80 && b.cfg.Port != 443 {
		u += ":" + strconv.Itoa(b.cfg.Port)
	}
	return u
}

// contentCallbackURL points the editor at this backend's content endpoint
// for the document; the same URL serves download and upload.
func (b *Builder) contentCallbackURL(docID string) string {
	return fmt.Sprintf("http://%s:%d%s/%s/content",
		b.cfg.CallbackHost, b.cfg.CallbackPort, b.cfg.CallbackContext, docID)
}

// authParams is the authentication header string the editor forwards on
// its callbacks. The two placeholder pairs are part of the existing
// protocol and must be preserved verbatim.
func (b *Builder) authParams(token string) string {
	return fmt.Sprintf("%s=%s;param-1=aaa;x-param-2=bbb", b.cfg.TokenName, token)
}

type OpenRequest struct {
	DocID    string
	Action   string // view | edit; empty defaults to view
	InFrame  bool
	Token    string
	Userinfo []byte // JSON external profile; omitted when empty
	Meta     []byte // JSON external document metadata; omitted when empty
}

// OpenURL builds the URL that opens a document in the editor. In standard
// mode this is a direct link carrying only the token; in front-end
// integration mode the full signed payload is assembled.
func (b *Builder) OpenURL(req OpenRequest) (string, error) {
	action := req.Action
	if action == "" {
		action = "view"
	}
	if !b.cfg.FEIntegration {
		return b.standardOpenURL(req.DocID, action, req.Token), nil
	}

	q := &orderedParams{}
	q.Add("repoId", b.cfg.RepoID)
	q.Add("action", action)
	q.Add("docId", req.DocID)
	if len(req.Userinfo) > 0 {
		q.Add("userinfo", base64.StdEncoding.EncodeToString(req.Userinfo))
	}
	if len(req.Meta) > 0 {
		q.Add("meta", base64.StdEncoding.EncodeToString(req.Meta))
	}
	callback := b.contentCallbackURL(req.DocID)
	q.Add("downloadUrl", callback)
	q.Add("uploadUrl", callback)
	q.Add("params", b.authParams(req.Token))
	q.Add("ts", strconv.FormatInt(b.now().UnixMilli(), 10))

	final, err := b.signed(q)
	if err != nil {
		return "", err
	}
	if req.InFrame {
		return "/home/iframe?url=" + url.QueryEscape(final), nil
	}
	return final, nil
}

type CompareRequest struct {
	DocAID   string
	DocBID   string
	Token    string
	Userinfo []byte
	MetaA    []byte
	MetaB    []byte
}

// CompareURL builds the URL that opens the editor's two-document compare
// view.
func (b *Builder) CompareURL(req CompareRequest) (string, error) {
	if !b.cfg.FEIntegration {
		return b.standardCompareURL(req.DocAID, req.DocBID, req.Token), nil
	}

	q := &orderedParams{}
	q.Add("repoId", b.cfg.RepoID)
	q.Add("action", "compare")
	q.Add("docId", req.DocAID)
	q.Add("docIdB", req.DocBID)
	if len(req.Userinfo) > 0 {
		q.Add("userinfo", base64.StdEncoding.EncodeToString(req.Userinfo))
	}
	if len(req.MetaA) > 0 {
		q.Add("meta", base64.StdEncoding.EncodeToString(req.MetaA))
	}
	if len(req.MetaB) > 0 {
		q.Add("metaB", base64.StdEncoding.EncodeToString(req.MetaB))
	}
	q.Add("downloadUrl", b.contentCallbackURL(req.DocAID))
	q.Add("downloadUrlB", b.contentCallbackURL(req.DocBID))
	q.Add("params", b.authParams(req.Token))
	q.Add("ts", strconv.FormatInt(b.now().UnixMilli(), 10))

	return b.signed(q)
}

// signed appends the HMAC over the fully assembled URL as the final
// parameter and returns the complete URL.
func (b *Builder) signed(q *orderedParams) (string, error) {
	full := b.baseURL() + b.cfg.Context + "?" + q.Encode()
	mac, err := Sign(full, b.cfg.Secret)
	if err != nil {
		return "", err
	}
	q.Add("HMAC", mac)
	return b.baseURL() + b.cfg.Context + "?" + q.Encode(), nil
}

func (b *Builder) standardOpenURL(docID, action, token string) string {
	path := fmt.Sprintf("/docs/app/%s/%s/%s/content", b.cfg.RepoID, docID, action)
	q := &orderedParams{}
	if token != "" {
		q.Add(b.cfg.TokenName, token)
	}
	return b.baseURL() + path + "?" + q.Encode()
}

func (b *Builder) standardCompareURL(docAID, docBID, token string) string {
	path := fmt.Sprintf("/docs/app/%s/compare", b.cfg.RepoID)
	q := &orderedParams{}
	q.Add("docA", docAID)
	q.Add("docB", docBID)
	if token != "" {
		q.Add(b.cfg.TokenName, token)
	}
	return b.baseURL() + path + "?" + q.Encode()
}
