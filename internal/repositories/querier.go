package repositories

import (
	"context"
	"errors"
	"net"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier - общее у *pgxpool.Pool и pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgErrorCode(err) == pgUniqueViolation
}

// IsTransient - сетевые сбои и обрывы соединения, которые имеет смысл повторить.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, pgx.ErrNoRows) || errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}
	// 08xxx - ошибки соединения, 57P01 - администратор завершил сессию
	code := pgErrorCode(err)
	return len(code) == 5 && (code[:2] == "08" || code == "57P01")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern - шаблон "содержит" для ILIKE, метасимволы поиска экранированы.
func containsPattern(search string) string {
	return "%" + likeEscaper.Replace(search) + "%"
}

// iLikeContains - хотя бы одна из колонок содержит search без учёта регистра.
func iLikeContains(search string, columns ...string) sq.Or {
	pattern := containsPattern(search)
	cond := make(sq.Or, 0, len(columns))
	for _, column := range columns {
		cond = append(cond, sq.Expr(column+` ILIKE ? ESCAPE '\'`, pattern))
	}
	return cond
}
