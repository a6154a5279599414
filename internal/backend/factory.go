package backend

import (
	"context"
	"fmt"

	"tripplan/internal/amqp"
	"tripplan/internal/config"
	"tripplan/internal/events"
	"tripplan/internal/log"
	"tripplan/internal/sheets"
	gsheet "tripplan/internal/sheets/google"
	"tripplan/internal/storage"
	"tripplan/internal/storage/memory"
	"tripplan/internal/storage/postgres"
	"tripplan/internal/worker"
)

// broadcastBuffer is the per-subscriber queue of the in-process bus.
const broadcastBuffer = 256

// Factory opens backends from the application configuration.
type Factory struct {
	cfg    *config.Config
	logger *log.Logger
}

func NewFactory(cfg *config.Config, logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &Factory{cfg: cfg, logger: logger.WithComponent(log.ComponentStorage)}
}

// Open builds the repository, the event bus and, if configured, the
// spreadsheet mirror. On error everything opened so far is closed.
func (f *Factory) Open(ctx context.Context) (_ *Backends, err error) {
	t, err := ParseType(f.cfg.DataBackend)
	if err != nil {
		return nil, err
	}
	b := &Backends{Type: t}
	defer func() {
		if err != nil {
			b.Close()
		}
	}()

	if b.Repo, err = f.OpenRepository(ctx); err != nil {
		return nil, err
	}
	b.onClose(b.Repo.Close)

	if b.Events, err = f.OpenEvents(); err != nil {
		return nil, err
	}
	if c, ok := b.Events.Publisher.(interface{ Close() error }); ok {
		b.onClose(c.Close)
	}

	if b.Mirror, err = f.OpenMirror(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

// OpenRepository connects to the configured store and applies migrations.
func (f *Factory) OpenRepository(ctx context.Context) (storage.Repository, error) {
	switch Type(f.cfg.DataBackend) {
	case Memory:
		f.logger.Warn("Using in-memory storage, data is lost on restart")
		return memory.NewStore(), nil
	case SQLite:
		repo, err := storage.NewSQLiteRepository(f.cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", f.cfg.SQLiteDBPath)
		return repo, nil
	case Postgres:
		repo, err := postgres.Open(ctx, f.cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres repository: %w", err)
		}
		f.logger.Info("Initialized PostgreSQL backend")
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported data backend %q", f.cfg.DataBackend)
	}
}

// Migrate applies pending schema migrations without keeping a connection open.
func (f *Factory) Migrate() error {
	switch Type(f.cfg.DataBackend) {
	case Memory:
		f.logger.Info("Memory backend has no schema", log.FieldOperation, log.OpMigrate)
		return nil
	case SQLite:
		return storage.RunMigrations(f.cfg.SQLiteDBPath)
	case Postgres:
		return postgres.RunMigrations(f.cfg.DatabaseURL)
	default:
		return fmt.Errorf("unsupported data backend %q", f.cfg.DataBackend)
	}
}

// OpenEvents connects to the broker when one is configured and otherwise
// returns an in-process broadcaster that is also the event source.
func (f *Factory) OpenEvents() (Events, error) {
	if !f.cfg.EventsEnabled() {
		b := events.NewBroadcaster(broadcastBuffer)
		return Events{
			Publisher: broadcasterCloser{b},
			Source:    worker.BroadcastConsumer{Broadcaster: b, Logger: f.logger.WithComponent(log.ComponentEvents)},
		}, nil
	}

	client, err := amqp.NewClient(f.cfg.AMQPURL, f.cfg.AMQPExchange, f.cfg.AMQPQueue, f.logger)
	if err != nil {
		return Events{}, fmt.Errorf("connect to broker: %w", err)
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", f.cfg.AMQPExchange,
		"queue", f.cfg.AMQPQueue)
	return Events{Publisher: client, Source: client, Remote: true}, nil
}

// OpenMirror returns nil when no spreadsheet is configured.
func (f *Factory) OpenMirror(ctx context.Context) (sheets.Mirror, error) {
	if f.cfg.GoogleSpreadsheetID == "" {
		return nil, nil
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      f.cfg.GoogleSpreadsheetID,
		SheetName:          f.cfg.GoogleSheetName,
		ServiceAccountJSON: f.cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: f.cfg.GoogleServiceAccountFile,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("initialize google sheets client: %w", err)
	}
	f.logger.Info("Initialized Google Sheets mirror", "spreadsheet_id", f.cfg.GoogleSpreadsheetID)
	return client, nil
}

type broadcasterCloser struct {
	*events.Broadcaster
}

func (b broadcasterCloser) Close() error {
	b.Broadcaster.Close()
	return nil
}
