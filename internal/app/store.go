package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/gradebook-backend/internal/adapter/memory"
	"github.com/heartmarshall/gradebook-backend/internal/adapter/postgres"
	"github.com/heartmarshall/gradebook-backend/internal/adapter/postgres/grade"
	"github.com/heartmarshall/gradebook-backend/internal/adapter/postgres/student"
	"github.com/heartmarshall/gradebook-backend/internal/adapter/postgres/subject"
	"github.com/heartmarshall/gradebook-backend/internal/app/seeder"
	"github.com/heartmarshall/gradebook-backend/internal/config"
	"github.com/heartmarshall/gradebook-backend/internal/domain"
	"github.com/heartmarshall/gradebook-backend/internal/realtime"
	"github.com/heartmarshall/gradebook-backend/internal/service/gradebook"
)

// remoteStore is the backing store selected by configuration.
type remoteStore struct {
	stores gradebook.Stores
	pinger interface{ Ping(ctx context.Context) error }
	close  func()

	// feed and listener are nil for the memory driver, which publishes
	// changes in-process.
	feed     interface{ Connected() bool }
	listener *postgres.Listener
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger, hub *realtime.Hub, clock clockwork.Clock) (*remoteStore, error) {
	if !cfg.Storage.UsesPostgres() {
		return openMemory(ctx, cfg, logger, hub, clock)
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	listener := postgres.NewListener(logger, pool, hub, clock, postgres.ListenerConfig{
		Channel:        cfg.Realtime.Channel,
		Tables:         []string{domain.TableStudents, domain.TableSubjects, domain.TableGrades},
		BackoffInitial: cfg.Realtime.BackoffInitial,
		BackoffMax:     cfg.Realtime.BackoffMax,
	})

	return &remoteStore{
		stores: gradebook.Stores{
			Students: student.New(pool),
			Subjects: subject.New(pool),
			Grades:   grade.New(pool),
		},
		pinger:   pool,
		feed:     listener,
		listener: listener,
		close:    pool.Close,
	}, nil
}

func openMemory(ctx context.Context, cfg *config.Config, logger *slog.Logger, hub *realtime.Hub, clock clockwork.Clock) (*remoteStore, error) {
	db := memory.New(clock, hub)

	if cfg.Storage.SeedDemo {
		seedCfg, err := seeder.LoadConfig("")
		if err != nil {
			return nil, err
		}
		p := seeder.NewPipeline(logger, seeder.Repos{
			Students: db.Students(),
			Subjects: db.Subjects(),
			Grades:   db.Grades(),
		}, *seedCfg)
		if err := p.Run(ctx, nil); err != nil {
			return nil, fmt.Errorf("seed demo data: %w", err)
		}
	}

	return &remoteStore{
		stores: gradebook.Stores{
			Students: db.Students(),
			Subjects: db.Subjects(),
			Grades:   db.Grades(),
		},
		pinger: db,
		close:  func() {},
	}, nil
}
