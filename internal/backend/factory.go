package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"orcamento/internal/amqp"
	"orcamento/internal/identity"
	fbidentity "orcamento/internal/identity/firebase"
	memidentity "orcamento/internal/identity/memory"
	"orcamento/internal/profiles"
	fsprofiles "orcamento/internal/profiles/firestore"
	memprofiles "orcamento/internal/profiles/memory"
	"orcamento/internal/services"
	"orcamento/internal/sheets"
	gsheet "orcamento/internal/sheets/google"
	"orcamento/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend. On failure every resource
// opened so far is released.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var cleanups []CleanupFunc
	cleanup := func() error {
		var errs []error
		for i := len(cleanups) - 1; i >= 0; i-- {
			if err := cleanups[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	var b Backend

	repo, ping, closeRepo, err := f.createProfiles(ctx, config)
	if err != nil {
		return nil, err
	}
	b.Profiles, b.Ping = repo, ping
	if closeRepo != nil {
		cleanups = append(cleanups, closeRepo)
	}

	b.Identity, err = f.createIdentity(ctx, config)
	if err != nil {
		cleanup()
		return nil, err
	}

	b.Archive, err = f.createArchive(ctx, config)
	if err != nil {
		cleanup()
		return nil, err
	}

	return &BackendResult{
		Backend: b,
		Cleanup: cleanup,
	}, nil
}

func (f *DefaultFactory) createProfiles(ctx context.Context, config Config) (profiles.Repository, func(context.Context) error, CleanupFunc, error) {
	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case FirestoreBackend:
		repo, err := fsprofiles.Open(ctx, config.FirebaseProjectID, config.CredentialsFile)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to initialize Firestore repository: %w", err)
		}
		f.logger.Info("Initialized Firestore backend", "project_id", config.FirebaseProjectID)
		return repo, nil, repo.Close, nil
	case MemoryBackend:
		f.logger.Info("Initialized memory backend")
		return memprofiles.NewStore(), nil, nil, nil
	default:
		return nil, nil, nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (profiles.Repository, func(context.Context) error, CleanupFunc, error) {
	sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	// AMQP is optional; a nil publisher leaves the sync to the worker's pending pass.
	var publisher services.SyncPublisher
	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without sync", "error", err)
		} else {
			publisher = amqpClient
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", amqpClient != nil)

	closeAll := func() error {
		var errs []error
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				errs = append(errs, fmt.Errorf("amqp: %w", err))
			}
		}
		if err := sqliteRepo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
		return errors.Join(errs...)
	}
	return services.NewProfileStore(sqliteRepo, publisher), sqliteRepo.Ping, closeAll, nil
}

func (f *DefaultFactory) createIdentity(ctx context.Context, config Config) (identity.Provider, error) {
	switch config.AuthType {
	case FirebaseAuth:
		p, err := fbidentity.New(ctx, fbidentity.Config{
			ProjectID:       config.FirebaseProjectID,
			APIKey:          config.FirebaseAPIKey,
			CredentialsFile: config.CredentialsFile,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Firebase auth: %w", err)
		}
		f.logger.Info("Initialized Firebase identity provider", "project_id", config.FirebaseProjectID)
		return p, nil
	case MemoryAuth:
		f.logger.Warn("Using in-memory identity provider, accounts are lost on restart")
		return memidentity.New(config.SessionTTL), nil
	default:
		return nil, fmt.Errorf("unsupported auth type: %s", config.AuthType)
	}
}

func (f *DefaultFactory) createArchive(ctx context.Context, config Config) (sheets.QuoteWriter, error) {
	if config.GoogleSpreadsheetID == "" {
		return nil, nil
	}
	cli, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsFile: config.CredentialsFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.Info("Initialized Google Sheets export", "spreadsheet_id", config.GoogleSpreadsheetID)
	return cli, nil
}
