// Package zoffice is the trust bridge to the external co-editing server:
// it translates internal records into the editor's wire shapes, assembles
// the signed handoff URLs, and computes their HMAC.
package zoffice

import (
	"strconv"
	"time"

	"filez/api/internal/store"
)

// Profile is the editor-facing user shape.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photo_url"`
	Name        string `json:"name"`
	JobTitle    string `json:"job_title"`
	OrgName     string `json:"org_name"`
	OrgID       string `json:"org_id"`
}

// Permissions is always present on the editor-facing metadata; read is
// unconditionally true because reaching this point already passed the
// access gate.
type Permissions struct {
	Write    bool `json:"write"`
	Read     bool `json:"read"`
	Download bool `json:"download"`
	Print    bool `json:"print"`
	Copy     bool `json:"copy"`
}

type WaterMark struct {
	Enabled bool   `json:"enabled"`
	Text    string `json:"text"`
	Type    string `json:"type"`
}

// Meta is the editor-facing document shape. WaterMark is emitted only when
// the control record enables it.
type Meta struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Size        int64       `json:"size"`
	Version     string      `json:"version"`
	Filepath    string      `json:"filepath"`
	CreatedAt   string      `json:"created_at"`
	ModifiedAt  string      `json:"modified_at"`
	CreatedBy   *Profile    `json:"created_by,omitempty"`
	ModifiedBy  *Profile    `json:"modified_by,omitempty"`
	Owner       *Profile    `json:"owner,omitempty"`
	Permissions Permissions `json:"permissions"`
	WaterMark   *WaterMark  `json:"waterMark,omitempty"`
}

// UserProfile translates a user row; display_name prefers the nickname,
// the remaining optional fields default to empty strings.
func UserProfile(u *store.User) *Profile {
	if u == nil {
		return nil
	}
	displayName := u.Nickname
	if displayName == "" {
		displayName = u.Username
	}
	return &Profile{
		ID:          u.ID,
		DisplayName: displayName,
		Email:       u.Email,
		PhotoURL:    u.Avatar,
		Name:        u.Username,
		JobTitle:    u.JobTitle,
		OrgName:     u.OrgName,
		OrgID:       u.OrgID,
	}
}

// DocMeta translates a document plus its (already default-substituted)
// control record. No modifier is tracked in the data model, so modified_by
// reuses the creator profile; this is a deliberate approximation.
func DocMeta(doc store.Document, ctl store.DocControl, now time.Time) Meta {
	meta := Meta{
		ID:         doc.ID,
		Name:       doc.Name,
		Size:       doc.Size,
		Version:    versionString(doc.Version),
		Filepath:   doc.Path,
		CreatedAt:  formatUTC(doc.CreatedAt, now),
		ModifiedAt: formatModified(doc, now),
		CreatedBy:  UserProfile(doc.CreatedBy),
		ModifiedBy: UserProfile(doc.CreatedBy),
		Owner:      UserProfile(doc.Owner),
		Permissions: Permissions{
			Write:    ctl.CanEdit,
			Read:     true,
			Download: ctl.CanDownload,
			Print:    ctl.CanPrint,
			Copy:     ctl.CanCopy,
		},
	}
	if ctl.WatermarkEnabled {
		wmType := ctl.WatermarkType
		if wmType == "" {
			wmType = "text"
		}
		meta.WaterMark = &WaterMark{
			Enabled: true,
			Text:    ctl.WatermarkText,
			Type:    wmType,
		}
	}
	return meta
}

func versionString(v int) string {
	if v <= 0 {
		return "1"
	}
	return strconv.Itoa(v)
}

// formatUTC renders ISO-8601 UTC with millisecond precision, e.g.
// 2020-03-25T02:57:38.000Z. A zero time falls back to now; a timestamp is
// never omitted.
func formatUTC(t time.Time, now time.Time) string {
	if t.IsZero() {
		t = now
	}
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

func formatModified(doc store.Document, now time.Time) string {
	if doc.ModifiedAt != nil {
		return formatUTC(*doc.ModifiedAt, now)
	}
	return formatUTC(doc.UpdatedAt, now)
}
