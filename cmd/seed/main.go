// Command seed fills the PostgreSQL gradebook with deterministic demo data.
// Existing rows are left alone, so it can be re-run safely.
//
// Flags:
//
//	--phase          comma-separated list of phases to run (default: all)
//	--dry-run        generate data without writing to DB
//	--seeder-config  path to seeder YAML config file
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/heartmarshall/gradebook-backend/internal/adapter/postgres"
	"github.com/heartmarshall/gradebook-backend/internal/adapter/postgres/grade"
	"github.com/heartmarshall/gradebook-backend/internal/adapter/postgres/student"
	"github.com/heartmarshall/gradebook-backend/internal/adapter/postgres/subject"
	"github.com/heartmarshall/gradebook-backend/internal/app"
	"github.com/heartmarshall/gradebook-backend/internal/app/seeder"
	"github.com/heartmarshall/gradebook-backend/internal/config"
)

func main() {
	phaseFlag := flag.String("phase", "", "comma-separated phases to run (default: all)")
	dryRunFlag := flag.Bool("dry-run", false, "generate data without writing to DB")
	seederConfigFlag := flag.String("seeder-config", "", "path to seeder YAML config file")
	flag.Parse()

	appCfg, err := config.Load()
	if err != nil {
		log.Fatalf("load app config: %v", err)
	}

	logger := app.NewLogger(appCfg.Log)

	seederCfg, err := seeder.LoadConfig(*seederConfigFlag)
	if err != nil {
		logger.Error("load seeder config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *dryRunFlag {
		seederCfg.DryRun = true
	}

	var phases []string
	if *phaseFlag != "" {
		phases = strings.Split(*phaseFlag, ",")
		for i := range phases {
			phases[i] = strings.TrimSpace(phases[i])
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, appCfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	pipeline := seeder.NewPipeline(logger, seeder.Repos{
		Students: student.New(pool),
		Subjects: subject.New(pool),
		Grades:   grade.New(pool),
	}, *seederCfg)

	// All phases commit together; a failed phase leaves the database untouched.
	txm := postgres.NewTxManager(pool)
	err = txm.RunInTx(ctx, func(ctx context.Context) error {
		if err := pipeline.Run(ctx, phases); err != nil {
			return err
		}
		for phase, r := range pipeline.Results() {
			if r.Err != nil {
				return fmt.Errorf("phase %s: %w", phase, r.Err)
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("pipeline failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if pipeline.HasErrors() {
		logger.Warn("pipeline completed with rejected rows")
		os.Exit(1)
	}

	logger.Info("pipeline completed successfully")
}
