package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/eventine/ticketing-api/internal/api"
	"github.com/eventine/ticketing-api/internal/config"
	"github.com/eventine/ticketing-api/internal/db"
	"github.com/eventine/ticketing-api/internal/logger"
	"github.com/eventine/ticketing-api/internal/service"
)

func Start() error {
	conf, err := config.Load("./cmd/app/config.yml")
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}

	dbURL := os.Getenv("DATABASE_URL")
	var postgresDB *gorm.DB
	if dbURL != "" {
		postgresDB, err = db.OpenPostgresWithURL(dbURL)
	} else {
		postgresDB, err = db.OpenPostgres(conf.Postgres)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database -> %w", err)
	}

	s := api.NewServer(conf, postgresDB)

	go runSweep(s.Purchases, conf.Purchase.SweepInterval)

	addr := ":" + s.Config.API.Port
	zap.L().Info(fmt.Sprintf("starting server at %v", addr))
	if err = s.Router.Run(addr); err != nil {
		return fmt.Errorf("failed to start the server -> %w", err)
	}

	return nil
}

// runSweep periodically closes out purchase intents whose payment never
// settled within the retention window.
func runSweep(purchases *service.PurchaseService, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		swept, err := purchases.SweepExpired(context.Background())
		if err != nil {
			zap.L().Error("sweep failed", zap.Error(err))
			continue
		}

		if swept > 0 {
			zap.L().Info("swept expired purchase intents", zap.Int("count", swept))
		}
	}
}
