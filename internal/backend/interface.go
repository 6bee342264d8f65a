// Package backend assembles the storage and identity collaborators selected
// by configuration.
package backend

import (
	"context"
	"time"

	"orcamento/internal/identity"
	"orcamento/internal/profiles"
	"orcamento/internal/sheets"
)

// Backend bundles the collaborators the web server depends on.
type Backend struct {
	Profiles profiles.Repository
	Identity identity.Provider
	// Archive is nil when no spreadsheet is configured.
	Archive sheets.QuoteWriter
	// Ping reports whether the data store is reachable; nil means always ready.
	Ping func(ctx context.Context) error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type     BackendType
	AuthType AuthType

	// SQLite specific
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Firebase / Firestore specific
	FirebaseProjectID string
	FirebaseAPIKey    string
	CredentialsFile   string

	// Google Sheets export
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Memory identity sessions
	SessionTTL time.Duration
}

// BackendType selects where company profiles live
type BackendType string

const (
	SQLiteBackend    BackendType = "sqlite"
	FirestoreBackend BackendType = "firestore"
	MemoryBackend    BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, FirestoreBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// AuthType selects the identity provider
type AuthType string

const (
	MemoryAuth   AuthType = "memory"
	FirebaseAuth AuthType = "firebase"
)

func (at AuthType) String() string {
	return string(at)
}

func (at AuthType) IsValid() bool {
	return at == MemoryAuth || at == FirebaseAuth
}
