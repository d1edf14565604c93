package app

import (
	"time"

	"filez/api/internal/store"
)

// userView is the client-facing user shape; the password hash never leaves
// the store layer.
type userView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Nickname  string    `json:"nickname"`
	Avatar    string    `json:"avatar"`
	JobTitle  string    `json:"jobTitle"`
	OrgName   string    `json:"orgName"`
	OrgID     string    `json:"orgId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func viewUser(u store.User) userView {
	return userView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Nickname:  u.Nickname,
		Avatar:    u.Avatar,
		JobTitle:  u.JobTitle,
		OrgName:   u.OrgName,
		OrgID:     u.OrgID,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func viewUserPtr(u *store.User) *userView {
	if u == nil {
		return nil
	}
	v := viewUser(*u)
	return &v
}

type docView struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Path        string     `json:"path"`
	Size        int64      `json:"size"`
	Extension   string     `json:"extension"`
	MimeType    string     `json:"mimeType"`
	Version     int        `json:"version"`
	IsDeleted   bool       `json:"isDeleted"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	ModifiedAt  *time.Time `json:"modifiedAt"`
	CreatedByID string     `json:"createdById"`
	OwnerID     string     `json:"ownerId"`
	CreatedBy   *userView  `json:"createdBy,omitempty"`
	Owner       *userView  `json:"owner,omitempty"`
}

func viewDoc(d store.Document) docView {
	return docView{
		ID:          d.ID,
		Name:        d.Name,
		Path:        d.Path,
		Size:        d.Size,
		Extension:   d.Extension,
		MimeType:    d.MimeType,
		Version:     d.Version,
		IsDeleted:   d.IsDeleted,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		ModifiedAt:  d.ModifiedAt,
		CreatedByID: d.CreatedByID,
		OwnerID:     d.OwnerID,
		CreatedBy:   viewUserPtr(d.CreatedBy),
		Owner:       viewUserPtr(d.Owner),
	}
}

func viewDocs(docs []store.Document) []docView {
	views := make([]docView, 0, len(docs))
	for _, d := range docs {
		views = append(views, viewDoc(d))
	}
	return views
}

type controlView struct {
	ID               string `json:"id"`
	UserID           string `json:"userId"`
	DocID            string `json:"docId"`
	CanEdit          bool   `json:"canEdit"`
	CanDownload      bool   `json:"canDownload"`
	CanPrint         bool   `json:"canPrint"`
	CanCopy          bool   `json:"canCopy"`
	CanComment       bool   `json:"canComment"`
	CanShare         bool   `json:"canShare"`
	WatermarkEnabled bool   `json:"watermarkEnabled"`
	WatermarkText    string `json:"watermarkText"`
	WatermarkType    string `json:"watermarkType"`
	Extensions       string `json:"extensions"`
}

func viewControl(c store.DocControl) controlView {
	return controlView{
		ID:               c.ID,
		UserID:           c.UserID,
		DocID:            c.DocID,
		CanEdit:          c.CanEdit,
		CanDownload:      c.CanDownload,
		CanPrint:         c.CanPrint,
		CanCopy:          c.CanCopy,
		CanComment:       c.CanComment,
		CanShare:         c.CanShare,
		WatermarkEnabled: c.WatermarkEnabled,
		WatermarkText:    c.WatermarkText,
		WatermarkType:    c.WatermarkType,
		Extensions:       c.Extensions,
	}
}
