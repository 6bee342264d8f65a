// Package storage keeps company profiles in a local SQLite database and
// tracks which versions still need to be mirrored to the document store.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"orcamento/internal/core"
	"orcamento/internal/profiles"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

// StoredProfile is a profile row together with its sync bookkeeping.
type StoredProfile struct {
	UID           string
	Profile       core.CompanyProfile
	Version       int64
	SyncedVersion int64
	UpdatedAt     time.Time
}

// PendingSync names a profile whose latest version is not mirrored yet.
type PendingSync struct {
	UID     string
	Version int64
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between the web handlers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const selectProfile = `SELECT uid, name, address, whatsapp, instagram, logo, version, synced_version, updated_at
FROM company_profiles WHERE uid = ?`

// Get implements profiles.Reader.
func (r *SQLiteRepository) Get(ctx context.Context, uid string) (core.CompanyProfile, error) {
	sp, err := r.GetStored(ctx, uid)
	if err != nil {
		return core.CompanyProfile{}, err
	}
	return sp.Profile, nil
}

// GetStored returns the profile row of uid with its versions.
func (r *SQLiteRepository) GetStored(ctx context.Context, uid string) (StoredProfile, error) {
	var (
		sp      StoredProfile
		updated string
	)
	err := r.db.QueryRowContext(ctx, selectProfile, uid).Scan(
		&sp.UID,
		&sp.Profile.Name,
		&sp.Profile.Address,
		&sp.Profile.WhatsApp,
		&sp.Profile.Instagram,
		&sp.Profile.Logo,
		&sp.Version,
		&sp.SyncedVersion,
		&updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredProfile{}, profiles.ErrNotFound
	}
	if err != nil {
		return StoredProfile{}, fmt.Errorf("get profile %s: %w", uid, err)
	}
	sp.UpdatedAt = parseTimestamp(updated)
	return sp, nil
}

// parseTimestamp accepts both the CURRENT_TIMESTAMP text form and the
// RFC 3339 form the driver produces for TIMESTAMP columns.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Save implements profiles.Writer.
func (r *SQLiteRepository) Save(ctx context.Context, uid string, p core.CompanyProfile) error {
	_, err := r.SaveProfile(ctx, uid, p)
	return err
}

const upsertProfile = `INSERT INTO company_profiles (uid, name, address, whatsapp, instagram, logo, version, updated_at)
VALUES (?, ?, ?, ?, ?, ?, 1, CURRENT_TIMESTAMP)
ON CONFLICT(uid) DO UPDATE SET
    name = excluded.name,
    address = excluded.address,
    whatsapp = excluded.whatsapp,
    instagram = excluded.instagram,
    logo = excluded.logo,
    version = company_profiles.version + 1,
    sync_error = NULL,
    updated_at = CURRENT_TIMESTAMP
RETURNING version`

// SaveProfile writes p and returns the new version number.
func (r *SQLiteRepository) SaveProfile(ctx context.Context, uid string, p core.CompanyProfile) (int64, error) {
	var version int64
	err := r.db.QueryRowContext(ctx, upsertProfile,
		uid, p.Name, p.Address, p.WhatsApp, p.Instagram, p.Logo,
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("save profile %s: %w", uid, err)
	}

	slog.InfoContext(ctx, "Company profile saved to SQLite", "uid", uid, "version", version)
	return version, nil
}

// GetPendingSync lists profiles whose latest version has not been mirrored,
// oldest first.
func (r *SQLiteRepository) GetPendingSync(ctx context.Context, limit int) ([]PendingSync, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT uid, version FROM company_profiles
		 WHERE synced_version < version
		 ORDER BY updated_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending profiles: %w", err)
	}
	defer rows.Close()

	var out []PendingSync
	for rows.Next() {
		var p PendingSync
		if err := rows.Scan(&p.UID, &p.Version); err != nil {
			return nil, fmt.Errorf("scan pending profile: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkSynced records that version of uid reached the document store. Older
// versions never move the marker backwards.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, uid string, version int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE company_profiles
		 SET synced_version = MAX(synced_version, ?), sync_error = NULL
		 WHERE uid = ?`, version, uid)
	if err != nil {
		return fmt.Errorf("mark profile synced: %w", err)
	}
	slog.InfoContext(ctx, "Profile marked as synced", "uid", uid, "version", version)
	return nil
}

// MarkSyncError stores the last mirroring failure of uid.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, uid string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE company_profiles SET sync_error = ? WHERE uid = ?`, msg, uid)
	if err != nil {
		return fmt.Errorf("mark profile sync error: %w", err)
	}
	slog.WarnContext(ctx, "Profile marked with sync error", "uid", uid, "error", msg)
	return nil
}

// SyncError returns the last recorded mirroring failure, empty when none.
func (r *SQLiteRepository) SyncError(ctx context.Context, uid string) (string, error) {
	var msg sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT sync_error FROM company_profiles WHERE uid = ?`, uid).Scan(&msg)
	if errors.Is(err, sql.ErrNoRows) {
		return "", profiles.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get sync error: %w", err)
	}
	return msg.String, nil
}
