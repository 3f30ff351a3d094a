package seeders

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"antares-helpdesk/pkg/utils"
)

// SeedCategories создаёт справочник категорий. Повторный запуск ничего не меняет.
func SeedCategories(ctx context.Context, db *pgxpool.Pool, logger *zap.Logger) error {
	logger.Info("Наполнение категорий...")
	for _, c := range defaultCategories {
		tag, err := db.Exec(ctx, `
			INSERT INTO categories (name, code, description, type)
			VALUES ($1, $2, $3, 'ticket')
			ON CONFLICT (code) DO NOTHING`,
			c.Name, utils.GenerateCategoryCode(c.Name), c.Description,
		)
		if err != nil {
			return fmt.Errorf("категория %q: %w", c.Name, err)
		}
		if tag.RowsAffected() > 0 {
			logger.Info("  - категория создана", zap.String("name", c.Name))
		}
	}
	return nil
}
