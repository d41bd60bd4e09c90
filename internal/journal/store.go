package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"curator/internal/config"
)

// ErrNotFound is returned when an upload key or account does not exist.
var ErrNotFound = errors.New("not found")

// Store manages journal persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open initializes or connects to the journal database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.JournalPath())
}

// OpenPath opens the journal at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateUpload records a new pending upload.
func (s *Store) CreateUpload(ctx context.Context, key string, captures []string) (*Upload, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("create upload: key is required")
	}
	if len(captures) == 0 {
		return nil, errors.New("create upload: at least one capture is required")
	}
	capturesJSON, err := json.Marshal(captures)
	if err != nil {
		return nil, fmt.Errorf("marshal captures: %w", err)
	}
	ts := timestamp(s.now())
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO uploads (upload_key, captures_json, num_parts, parts_sent, status, created_at, updated_at)
         VALUES (?, ?, ?, 0, ?, ?, ?)`,
		key,
		string(capturesJSON),
		len(captures),
		StatusPending,
		ts,
		ts,
	)
	if err != nil {
		return nil, fmt.Errorf("insert upload: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches an upload by row identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Upload, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+uploadColumns+` FROM uploads WHERE id = ?`, id)
	upload, err := scanUpload(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("upload %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get upload: %w", err)
	}
	return upload, nil
}

// GetByKey fetches an upload by its upload key.
func (s *Store) GetByKey(ctx context.Context, key string) (*Upload, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+uploadColumns+` FROM uploads WHERE upload_key = ?`, key)
	upload, err := scanUpload(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("upload %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get upload: %w", err)
	}
	return upload, nil
}

// List returns uploads newest first, optionally filtered by status.
// A limit of zero or less returns every row.
func (s *Store) List(ctx context.Context, limit int, statuses ...Status) ([]*Upload, error) {
	query := `SELECT ` + uploadColumns + ` FROM uploads`
	args := make([]any, 0, len(statuses)+1)
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		query += ` WHERE status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	var uploads []*Upload
	for rows.Next() {
		upload, err := scanUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		uploads = append(uploads, upload)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate uploads: %w", err)
	}
	return uploads, nil
}

// RecordPart stores a transferred part, bumps the sent counter and the video id
// reported by the backend. The first recorded part moves the upload to
// uploading, the last one to uploaded.
func (s *Store) RecordPart(ctx context.Context, part Part, videoID int64) (*Upload, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin record part: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	sentAt := part.SentAt
	if sentAt.IsZero() {
		sentAt = s.now()
	}
	if _, err := tx.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO upload_parts (upload_id, part_num, file_name, sha256, raw_bytes, compressed_bytes, sent_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		part.UploadID,
		part.PartNum,
		part.FileName,
		part.SHA256,
		part.RawBytes,
		part.CompressedBytes,
		timestamp(sentAt),
	); err != nil {
		return nil, fmt.Errorf("insert part: %w", err)
	}

	res, err := tx.ExecContext(
		ctx,
		`UPDATE uploads SET
            parts_sent = (SELECT COUNT(1) FROM upload_parts WHERE upload_id = ?),
            video_id = COALESCE(?, video_id),
            status = CASE
                WHEN (SELECT COUNT(1) FROM upload_parts WHERE upload_id = ?) >= num_parts THEN ?
                ELSE ?
            END,
            error_message = NULL,
            updated_at = ?
         WHERE id = ?`,
		part.UploadID,
		nullableInt64(videoID),
		part.UploadID,
		StatusUploaded,
		StatusUploading,
		timestamp(s.now()),
		part.UploadID,
	)
	if err != nil {
		return nil, fmt.Errorf("update upload progress: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("upload %d: %w", part.UploadID, ErrNotFound)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit record part: %w", err)
	}
	return s.GetByID(ctx, part.UploadID)
}

// Parts returns the recorded parts of an upload in part order.
func (s *Store) Parts(ctx context.Context, uploadID int64) ([]*Part, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT upload_id, part_num, file_name, sha256, raw_bytes, compressed_bytes, sent_at
         FROM upload_parts WHERE upload_id = ? ORDER BY part_num`,
		uploadID,
	)
	if err != nil {
		return nil, fmt.Errorf("list parts: %w", err)
	}
	defer rows.Close()

	var parts []*Part
	for rows.Next() {
		part, err := scanPart(rows)
		if err != nil {
			return nil, fmt.Errorf("scan part: %w", err)
		}
		parts = append(parts, part)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate parts: %w", err)
	}
	return parts, nil
}

// MarkSubmitted records that the video metadata was accepted.
func (s *Store) MarkSubmitted(ctx context.Context, id int64) error {
	ts := timestamp(s.now())
	return s.updateStatus(ctx, id, StatusSubmitted, "", ts)
}

// MarkFailed records the failure message on an upload.
func (s *Store) MarkFailed(ctx context.Context, id int64, message string) error {
	return s.updateStatus(ctx, id, StatusFailed, message, "")
}

func (s *Store) updateStatus(ctx context.Context, id int64, status Status, message, submittedAt string) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE uploads SET status = ?, error_message = ?, submitted_at = COALESCE(?, submitted_at), updated_at = ? WHERE id = ?`,
		status,
		nullableString(message),
		nullableString(submittedAt),
		timestamp(s.now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("update upload status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("upload %d: %w", id, ErrNotFound)
	}
	return nil
}

// Remove deletes uploads in the given statuses and returns the number removed.
func (s *Store) Remove(ctx context.Context, statuses ...Status) (int64, error) {
	if len(statuses) == 0 {
		return 0, errors.New("remove uploads: at least one status is required")
	}
	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		placeholders[i] = "?"
		args[i] = status
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM uploads WHERE status IN (`+strings.Join(placeholders, ", ")+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("remove uploads: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// SaveAccount replaces the signed-in account.
func (s *Store) SaveAccount(ctx context.Context, account Account) error {
	signedIn := account.SignedInAt
	if signedIn.IsZero() {
		signedIn = s.now()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO account (id, username, user_id, permission, signed_in_at) VALUES (1, ?, ?, ?, ?)`,
		account.Username,
		account.UserID,
		account.Permission,
		timestamp(signedIn),
	)
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

// Account returns the signed-in account or ErrNotFound.
func (s *Store) Account(ctx context.Context) (*Account, error) {
	var (
		account  Account
		signedIn string
	)
	err := s.db.QueryRowContext(ctx, `SELECT username, user_id, permission, signed_in_at FROM account WHERE id = 1`).
		Scan(&account.Username, &account.UserID, &account.Permission, &signedIn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	account.SignedInAt = parseTime(signedIn)
	return &account, nil
}

// ClearAccount forgets the signed-in account.
func (s *Store) ClearAccount(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM account`); err != nil {
		return fmt.Errorf("clear account: %w", err)
	}
	return nil
}
