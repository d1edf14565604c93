package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned by every lookup that resolves nothing. Callers
// that treat absence as a normal outcome (control records, blob reads)
// check for it with errors.Is.
var ErrNotFound = errors.New("store: not found")

type User struct {
	ID        string
	Username  string
	Password  string // bcrypt hash
	Email     string
	Nickname  string
	Avatar    string
	JobTitle  string
	OrgName   string
	OrgID     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Document struct {
	ID          string
	Name        string
	Path        string
	Size        int64
	Extension   string
	MimeType    string
	Version     int
	IsDeleted   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ModifiedAt  *time.Time
	CreatedByID string
	OwnerID     string

	// Joined creator/owner rows, nil when the reference is empty or the
	// user no longer resolves.
	CreatedBy *User
	Owner     *User
}

// DocControl is the per-(user, document) permission record. At most one
// exists per pair; absence means "everything allowed, no watermark".
type DocControl struct {
	ID               string
	UserID           string
	DocID            string
	CanEdit          bool
	CanDownload      bool
	CanPrint         bool
	CanCopy          bool
	CanComment       bool
	CanShare         bool
	WatermarkEnabled bool
	WatermarkText    string
	WatermarkType    string
	Extensions       string // opaque JSON blob, not interpreted
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// UserPatch applies a partial profile update; nil fields keep prior values.
type UserPatch struct {
	Nickname *string
	Avatar   *string
	Email    *string
	JobTitle *string
	OrgName  *string
	OrgID    *string
	Password *string
}

// DocumentPatch applies a partial metadata update; nil fields keep prior
// values.
type DocumentPatch struct {
	Name       *string
	Path       *string
	Size       *int64
	MimeType   *string
	Version    *int
	IsDeleted  *bool
	ModifiedAt *time.Time
}
