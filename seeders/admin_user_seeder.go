package seeders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"antares-helpdesk/pkg/config"
	"antares-helpdesk/pkg/utils"
)

// SeedAdmin создаёт подтверждённого пользователя с ролью admin.
// Если пользователь уже есть, ему только выставляется роль.
func SeedAdmin(ctx context.Context, db *pgxpool.Pool, cfg config.SeedConfig, logger *zap.Logger) error {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" || cfg.AdminPassword == "" {
		return errors.New("SEED_ADMIN_EMAIL и SEED_ADMIN_PASSWORD обязательны")
	}

	hash, err := utils.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
		var userID uuid.UUID
		err := tx.QueryRow(ctx, `SELECT id FROM users WHERE LOWER(email) = $1`, email).Scan(&userID)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			userID = uuid.New()
			_, err = tx.Exec(ctx, `
				INSERT INTO users (id, email, password_hash, full_name, email_verified_at)
				VALUES ($1, $2, $3, $4, NOW())`,
				userID, email, hash, cfg.AdminName,
			)
			if err != nil {
				return fmt.Errorf("не удалось создать пользователя: %w", err)
			}
			logger.Info("  - администратор создан", zap.String("email", email))
		case err != nil:
			return fmt.Errorf("ошибка при проверке существования пользователя: %w", err)
		default:
			logger.Info("  - пользователь уже существует, обновляем роль", zap.String("email", email))
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO profiles (id, full_name, email, role)
			VALUES ($1, $2, $3, 'admin')
			ON CONFLICT (id) DO UPDATE
			SET role = 'admin', department = NULL, assigned_category_id = NULL, updated_at = NOW()`,
			userID, cfg.AdminName, email,
		)
		if err != nil {
			return fmt.Errorf("не удалось создать профиль администратора: %w", err)
		}
		return nil
	})
}
