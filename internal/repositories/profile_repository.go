package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"antares-helpdesk/internal/entities"
	apperrors "antares-helpdesk/pkg/errors"
)

const (
	profileTable  = "profiles"
	profileFields = "id, full_name, email, role, department, assigned_category_id, created_at, updated_at"
)

type ProfileFilter struct {
	Role   *entities.Role
	Search string
	Limit  uint64
	Offset uint64
}

type ProfileRepositoryInterface interface {
	// EnsureProfile создаёт профиль с ролью customer, если его ещё нет.
	EnsureProfile(ctx context.Context, user *entities.User) (*entities.Profile, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Profile, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entities.Profile, error)
	List(ctx context.Context, filter ProfileFilter) ([]entities.Profile, uint64, error)
	// ListStaff - все admin и assistant на момент вызова (внутри транзакции записи).
	ListStaff(ctx context.Context, tx pgx.Tx) ([]entities.Profile, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role entities.Role, department null.String, assignedCategoryID *uint64) (*entities.Profile, error)
	// FindAutoAssignCandidate - ассистент категории с наименьшим числом открытых тикетов.
	FindAutoAssignCandidate(ctx context.Context, tx pgx.Tx, categoryID uint64) (*entities.Profile, error)
}

// Пространство advisory-блокировок автоназначения; второй ключ - id категории.
const autoAssignLockSpace int32 = 0x41534e47

type profileRepository struct {
	storage *pgxpool.Pool
}

func NewProfileRepository(storage *pgxpool.Pool) ProfileRepositoryInterface {
	return &profileRepository{storage: storage}
}

func scanProfile(row pgx.Row) (*entities.Profile, error) {
	var p entities.Profile
	err := row.Scan(&p.ID, &p.FullName, &p.Email, &p.Role, &p.Department, &p.AssignedCategoryID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func collectProfiles(rows pgx.Rows) ([]entities.Profile, error) {
	defer rows.Close()
	profiles := make([]entities.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

func (r *profileRepository) EnsureProfile(ctx context.Context, user *entities.User) (*entities.Profile, error) {
	_, err := r.storage.Exec(ctx, `
		INSERT INTO profiles (id, full_name, email, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`,
		user.ID, user.FullName, user.Email, entities.RoleCustomer)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания профиля: %w", err)
	}
	return r.FindByID(ctx, user.ID)
}

func (r *profileRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Profile, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", profileFields, profileTable)
	return scanProfile(r.storage.QueryRow(ctx, query, id))
}

func (r *profileRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entities.Profile, error) {
	out := make(map[uuid.UUID]*entities.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ANY($1)", profileFields, profileTable)
	rows, err := r.storage.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	profiles, err := collectProfiles(rows)
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		out[profiles[i].ID] = &profiles[i]
	}
	return out, nil
}

func (r *profileRepository) List(ctx context.Context, filter ProfileFilter) ([]entities.Profile, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	where := sq.And{}
	if filter.Role != nil {
		where = append(where, sq.Eq{"role": string(*filter.Role)})
	}
	if filter.Search != "" {
		where = append(where, iLikeContains(filter.Search, "full_name", "email"))
	}

	countSQL, countArgs, err := psql.Select("COUNT(*)").From(profileTable).Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entities.Profile{}, 0, nil
	}

	builder := psql.Select(profileFields).From(profileTable).Where(where).OrderBy("full_name", "email")
	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit).Offset(filter.Offset)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	profiles, err := collectProfiles(rows)
	return profiles, total, err
}

func (r *profileRepository) ListStaff(ctx context.Context, tx pgx.Tx) ([]entities.Profile, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE role IN ('admin', 'assistant') ORDER BY created_at, id", profileFields, profileTable)
	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return collectProfiles(rows)
}

func (r *profileRepository) UpdateRole(ctx context.Context, id uuid.UUID, role entities.Role, department null.String, assignedCategoryID *uint64) (*entities.Profile, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET role = $2, department = $3, assigned_category_id = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING %s`, profileTable, profileFields)

	p, err := scanProfile(r.storage.QueryRow(ctx, query, id, role, department, assignedCategoryID))
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return nil, apperrors.NewInvalidInputError("la categoría asignada no existe")
		}
		return nil, err
	}
	return p, nil
}

// FindAutoAssignCandidate: при равной загрузке выигрывает тот, кто раньше создан, затем меньший id.
// Перед подсчётом берётся advisory-блокировка категории до конца транзакции: параллельное
// создание тикета в той же категории ждёт коммита и считает загрузку уже с новым тикетом.
func (r *profileRepository) FindAutoAssignCandidate(ctx context.Context, tx pgx.Tx, categoryID uint64) (*entities.Profile, error) {
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1, $2)", autoAssignLockSpace, int32(categoryID)); err != nil {
		return nil, err
	}
	query := `
		SELECT p.id, p.full_name, p.email, p.role, p.department, p.assigned_category_id, p.created_at, p.updated_at
		FROM profiles p
		WHERE p.role = 'assistant' AND p.assigned_category_id = $1
		ORDER BY (
			SELECT COUNT(*) FROM tickets t
			WHERE t.assigned_to = p.id AND t.status IN ('open', 'pending')
		), p.created_at, p.id
		LIMIT 1`
	return scanProfile(tx.QueryRow(ctx, query, categoryID))
}
