package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const userColumns = `id, username, password, email, nickname, avatar, job_title, org_name, org_id, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Password, &u.Email, &u.Nickname, &u.Avatar,
		&u.JobTitle, &u.OrgName, &u.OrgID, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sys_user (id, username, password, email, nickname, avatar, job_title, org_name, org_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, u.ID, u.Username, u.Password, u.Email, u.Nickname, u.Avatar, u.JobTitle, u.OrgName, u.OrgID)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM sys_user WHERE id=$1`, id)
	return scanUser(row)
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM sys_user WHERE username=$1`, username)
	return scanUser(row)
}

func (s *PostgresStore) UpdateUser(ctx context.Context, id string, patch UserPatch) error {
	sets := []string{"updated_at=NOW()"}
	args := []any{id}
	add := func(col string, v *string) {
		if v != nil {
			args = append(args, *v)
			sets = append(sets, fmt.Sprintf("%s=$%d", col, len(args)))
		}
	}
	add("nickname", patch.Nickname)
	add("avatar", patch.Avatar)
	add("email", patch.Email)
	add("job_title", patch.JobTitle)
	add("org_name", patch.OrgName)
	add("org_id", patch.OrgID)
	add("password", patch.Password)

	res, err := s.db.ExecContext(ctx, `UPDATE sys_user SET `+strings.Join(sets, ", ")+` WHERE id=$1`, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM sys_user ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const docSelect = `
	SELECT d.id, d.name, d.path, d.size, d.extension, d.mime_type, d.version,
	       d.is_deleted, d.created_at, d.updated_at, d.modified_at,
	       COALESCE(d.created_by_id, ''), COALESCE(d.owner_id, ''),
	       c.id, c.username, c.email, c.nickname, c.avatar, c.job_title, c.org_name, c.org_id,
	       o.id, o.username, o.email, o.nickname, o.avatar, o.job_title, o.org_name, o.org_id
	FROM doc_meta d
	LEFT JOIN sys_user c ON c.id = d.created_by_id
	LEFT JOIN sys_user o ON o.id = d.owner_id
`

func scanDocument(row interface{ Scan(...any) error }) (Document, error) {
	var d Document
	var cb, ow [8]sql.NullString
	err := row.Scan(&d.ID, &d.Name, &d.Path, &d.Size, &d.Extension, &d.MimeType, &d.Version,
		&d.IsDeleted, &d.CreatedAt, &d.UpdatedAt, &d.ModifiedAt,
		&d.CreatedByID, &d.OwnerID,
		&cb[0], &cb[1], &cb[2], &cb[3], &cb[4], &cb[5], &cb[6], &cb[7],
		&ow[0], &ow[1], &ow[2], &ow[3], &ow[4], &ow[5], &ow[6], &ow[7])
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("scan document: %w", err)
	}
	d.CreatedBy = joinedUser(cb)
	d.Owner = joinedUser(ow)
	return d, nil
}

func joinedUser(cols [8]sql.NullString) *User {
	if !cols[0].Valid {
		return nil
	}
	return &User{
		ID:       cols[0].String,
		Username: cols[1].String,
		Email:    cols[2].String,
		Nickname: cols[3].String,
		Avatar:   cols[4].String,
		JobTitle: cols[5].String,
		OrgName:  cols[6].String,
		OrgID:    cols[7].String,
	}
}

func (s *PostgresStore) CreateDocument(ctx context.Context, d Document) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO doc_meta (id, name, path, size, extension, mime_type, version, is_deleted, modified_at, created_by_id, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), NULLIF($11, ''))
	`, d.ID, d.Name, d.Path, d.Size, d.Extension, d.MimeType, d.Version, d.IsDeleted, d.ModifiedAt, d.CreatedByID, d.OwnerID)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, id string) (Document, error) {
	row := s.db.QueryRowContext(ctx, docSelect+` WHERE d.id=$1`, id)
	return scanDocument(row)
}

func (s *PostgresStore) GetDocumentByName(ctx context.Context, name string) (Document, error) {
	row := s.db.QueryRowContext(ctx, docSelect+` WHERE d.name=$1 AND NOT d.is_deleted LIMIT 1`, name)
	return scanDocument(row)
}

// ListDocuments returns every live document visible to userID: documents the
// user created or owns, plus documents attributed to the share pseudo-user.
// Ordered by modified_at desc (nulls last), then created_at desc.
func (s *PostgresStore) ListDocuments(ctx context.Context, userID, shareID string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, docSelect+`
		WHERE NOT d.is_deleted
		  AND (d.created_by_id IN ($1, $2) OR d.owner_id IN ($1, $2))
		ORDER BY d.modified_at DESC NULLS LAST, d.created_at DESC
	`, userID, shareID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *PostgresStore) UpdateDocument(ctx context.Context, id string, patch DocumentPatch) error {
	sets := []string{"updated_at=NOW()"}
	args := []any{id}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Path != nil {
		add("path", *patch.Path)
	}
	if patch.Size != nil {
		add("size", *patch.Size)
	}
	if patch.MimeType != nil {
		add("mime_type", *patch.MimeType)
	}
	if patch.Version != nil {
		add("version", *patch.Version)
	}
	if patch.IsDeleted != nil {
		add("is_deleted", *patch.IsDeleted)
	}
	if patch.ModifiedAt != nil {
		add("modified_at", *patch.ModifiedAt)
	}

	res, err := s.db.ExecContext(ctx, `UPDATE doc_meta SET `+strings.Join(sets, ", ")+` WHERE id=$1`, args...)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

const controlColumns = `id, user_id, doc_id, can_edit, can_download, can_print, can_copy, can_comment, can_share,
	watermark_enabled, watermark_text, watermark_type, extensions, created_at, updated_at`

func scanControl(row interface{ Scan(...any) error }) (DocControl, error) {
	var c DocControl
	err := row.Scan(&c.ID, &c.UserID, &c.DocID, &c.CanEdit, &c.CanDownload, &c.CanPrint, &c.CanCopy,
		&c.CanComment, &c.CanShare, &c.WatermarkEnabled, &c.WatermarkText, &c.WatermarkType,
		&c.Extensions, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return DocControl{}, ErrNotFound
	}
	if err != nil {
		return DocControl{}, fmt.Errorf("scan control: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) GetControl(ctx context.Context, userID, docID string) (DocControl, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+controlColumns+` FROM doc_control WHERE user_id=$1 AND doc_id=$2`, userID, docID)
	return scanControl(row)
}

// PutControl writes the full control record. The (user_id, doc_id) unique
// constraint resolves concurrent writers last-write-wins.
func (s *PostgresStore) PutControl(ctx context.Context, c DocControl) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO doc_control (id, user_id, doc_id, can_edit, can_download, can_print, can_copy,
			can_comment, can_share, watermark_enabled, watermark_text, watermark_type, extensions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id, doc_id) DO UPDATE SET
			can_edit=EXCLUDED.can_edit,
			can_download=EXCLUDED.can_download,
			can_print=EXCLUDED.can_print,
			can_copy=EXCLUDED.can_copy,
			can_comment=EXCLUDED.can_comment,
			can_share=EXCLUDED.can_share,
			watermark_enabled=EXCLUDED.watermark_enabled,
			watermark_text=EXCLUDED.watermark_text,
			watermark_type=EXCLUDED.watermark_type,
			extensions=EXCLUDED.extensions,
			updated_at=NOW()
	`, c.ID, c.UserID, c.DocID, c.CanEdit, c.CanDownload, c.CanPrint, c.CanCopy,
		c.CanComment, c.CanShare, c.WatermarkEnabled, c.WatermarkText, c.WatermarkType, c.Extensions)
	if err != nil {
		return fmt.Errorf("put control: %w", err)
	}
	return nil
}
