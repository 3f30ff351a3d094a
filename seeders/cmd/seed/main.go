package main

import (
	"context"
	"flag"

	"go.uber.org/zap"

	"antares-helpdesk/migrations"
	"antares-helpdesk/pkg/config"
	"antares-helpdesk/pkg/database/postgresql"
	applogger "antares-helpdesk/pkg/logger"
	"antares-helpdesk/seeders"
)

func main() {
	runCategories := flag.Bool("categories", false, "Наполнить справочник категорий")
	runAdmin := flag.Bool("admin", false, "Создать администратора (SEED_ADMIN_EMAIL, SEED_ADMIN_PASSWORD)")
	runAll := flag.Bool("all", false, "Запустить все сидеры")
	flag.Parse()

	cfg := config.New()
	logger := applogger.NewLogger(cfg.Server.LogLevel)
	defer logger.Sync()

	if !*runCategories && !*runAdmin && !*runAll {
		logger.Warn("Не выбран ни один сидер. Флаги: -categories, -admin, -all")
		flag.PrintDefaults()
		return
	}

	ctx := context.Background()
	db, err := postgresql.ConnectDB(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("не удалось подключиться к PostgreSQL", zap.Error(err))
	}
	defer db.Close()

	if err := migrations.Up(ctx, db, logger); err != nil {
		logger.Fatal("не удалось применить миграции", zap.Error(err))
	}

	if *runAll || *runCategories {
		if err := seeders.SeedCategories(ctx, db, logger); err != nil {
			logger.Fatal("Ошибка наполнения категорий", zap.Error(err))
		}
	}
	if *runAll || *runAdmin {
		if err := seeders.SeedAdmin(ctx, db, cfg.Seed, logger); err != nil {
			logger.Fatal("Ошибка создания администратора", zap.Error(err))
		}
	}
	logger.Info("Сидирование завершено")
}
