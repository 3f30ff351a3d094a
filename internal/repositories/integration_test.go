package repositories

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"antares-helpdesk/internal/entities"
	"antares-helpdesk/migrations"
	apperrors "antares-helpdesk/pkg/errors"
)

var testPool *pgxpool.Pool

// TestMain подключается к тестовой БД из TEST_DATABASE_URL и применяет миграции.
// Без переменной интеграционные тесты пропускаются.
func TestMain(m *testing.M) {
	if url := os.Getenv("TEST_DATABASE_URL"); url != "" {
		ctx := context.Background()
		pool, err := pgxpool.New(ctx, url)
		if err != nil {
			panic(err)
		}
		if err := migrations.Up(ctx, pool, zap.NewNop()); err != nil {
			panic(err)
		}
		testPool = pool
	}

	code := m.Run()
	if testPool != nil {
		testPool.Close()
	}
	os.Exit(code)
}

func requireDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testPool == nil {
		t.Skip("TEST_DATABASE_URL не задан")
	}
	_, err := testPool.Exec(context.Background(), `
		TRUNCATE notifications, outbox_events, ticket_feedback, ticket_history, attachments, messages,
		         ticket_tags, tags, user_user_tags, user_tags, tickets, profiles, categories, users
		RESTART IDENTITY CASCADE`)
	require.NoError(t, err, "Не удалось очистить таблицы")
	return testPool
}

func seedProfile(t *testing.T, pool *pgxpool.Pool, email string, role entities.Role, categoryID *uint64) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	id := uuid.New()
	_, err := pool.Exec(ctx, "INSERT INTO users (id, email, password_hash, full_name) VALUES ($1, $2, 'x', $2)", id, email)
	require.NoError(t, err)
	_, err = pool.Exec(ctx,
		"INSERT INTO profiles (id, full_name, email, role, assigned_category_id) VALUES ($1, $2, $2, $3, $4)",
		id, email, role, categoryID)
	require.NoError(t, err)
	return id
}

func seedCategory(t *testing.T, pool *pgxpool.Pool, name string) uint64 {
	t.Helper()
	c := &entities.Category{Name: name, Type: entities.CategoryTypeTicket}
	require.NoError(t, NewCategoryRepository(pool).Create(context.Background(), c))
	return c.ID
}

func createTicket(t *testing.T, pool *pgxpool.Pool, ticket *entities.Ticket) {
	t.Helper()
	err := NewTxManager(pool).RunInTransaction(context.Background(), func(tx pgx.Tx) error {
		return NewTicketRepository(pool).Create(context.Background(), tx, ticket)
	})
	require.NoError(t, err)
}

func TestTicketRepository_Integration_VersionCAS(t *testing.T) {
	pool := requireDB(t)
	ctx := context.Background()
	repo := NewTicketRepository(pool)
	tm := NewTxManager(pool)

	owner := seedProfile(t, pool, "cliente@antares.com", entities.RoleCustomer, nil)
	ticket := &entities.Ticket{
		Title: "Printer broken", Description: "La impresora no imprime nada",
		Status: entities.StatusOpen, Priority: entities.PriorityMedium, UserID: owner,
	}
	createTicket(t, pool, ticket)
	require.Equal(t, 1, ticket.Version)

	first := *ticket
	second := *ticket

	first.Status = entities.StatusPending
	require.NoError(t, tm.RunInTransaction(ctx, func(tx pgx.Tx) error { return repo.Update(ctx, tx, &first) }))
	assert.Equal(t, 2, first.Version)

	second.Status = entities.StatusClosed
	err := tm.RunInTransaction(ctx, func(tx pgx.Tx) error { return repo.Update(ctx, tx, &second) })
	assert.ErrorIs(t, err, apperrors.ErrVersionConflict)

	stored, err := repo.FindByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusPending, stored.Status)
}

func TestTicketRepository_Integration_ListEnrichedWithTags(t *testing.T) {
	pool := requireDB(t)
	ctx := context.Background()

	catID := seedCategory(t, pool, "Hardware")
	owner := seedProfile(t, pool, "cliente@antares.com", entities.RoleCustomer, nil)
	agent := seedProfile(t, pool, "agente@antares.com", entities.RoleAssistant, &catID)

	ticket := &entities.Ticket{
		Title: "Printer broken", Description: "La impresora no imprime nada",
		Status: entities.StatusOpen, Priority: entities.PriorityHigh, UserID: owner,
		CategoryID: &catID, AssignedTo: &agent,
	}
	createTicket(t, pool, ticket)

	tags := NewTagRepository(pool)
	tag := &entities.Tag{Name: "urgente", Color: "#ff0000"}
	require.NoError(t, tags.Create(ctx, tag))
	require.NoError(t, NewTxManager(pool).RunInTransaction(ctx, func(tx pgx.Tx) error {
		added, err := tags.AddToTicket(ctx, tx, ticket.ID, tag.ID)
		assert.True(t, added)
		return err
	}))

	list, total, err := NewTicketRepository(pool).List(ctx, entities.TicketFilter{OwnerID: &owner, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, uint64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, "Hardware", list[0].Category.Name)
	assert.Equal(t, "agente@antares.com", list[0].Assignee.FullName)
	require.Len(t, list[0].Tags, 1)
	assert.Equal(t, "urgente", list[0].Tags[0].Name)
}

func TestProfileRepository_Integration_AutoAssignLeastLoaded(t *testing.T) {
	pool := requireDB(t)
	ctx := context.Background()

	catID := seedCategory(t, pool, "Redes")
	owner := seedProfile(t, pool, "cliente@antares.com", entities.RoleCustomer, nil)
	busy := seedProfile(t, pool, "ocupado@antares.com", entities.RoleAssistant, &catID)
	free := seedProfile(t, pool, "libre@antares.com", entities.RoleAssistant, &catID)

	createTicket(t, pool, &entities.Ticket{
		Title: "VPN caída", Description: "No conecta la VPN desde casa",
		Status: entities.StatusOpen, Priority: entities.PriorityMedium, UserID: owner,
		CategoryID: &catID, AssignedTo: &busy,
	})

	var picked *entities.Profile
	err := NewTxManager(pool).RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		picked, err = NewProfileRepository(pool).FindAutoAssignCandidate(ctx, tx, catID)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, free, picked.ID)
}

func TestProfileRepository_Integration_AutoAssignSerializedPerCategory(t *testing.T) {
	pool := requireDB(t)
	ctx := context.Background()
	tm := NewTxManager(pool)
	profiles := NewProfileRepository(pool)
	tickets := NewTicketRepository(pool)

	catID := seedCategory(t, pool, "Redes")
	owner := seedProfile(t, pool, "cliente@antares.com", entities.RoleCustomer, nil)
	first := seedProfile(t, pool, "primero@antares.com", entities.RoleAssistant, &catID)
	second := seedProfile(t, pool, "segundo@antares.com", entities.RoleAssistant, &catID)

	assign := func(tx pgx.Tx) (uuid.UUID, error) {
		p, err := profiles.FindAutoAssignCandidate(ctx, tx, catID)
		if err != nil {
			return uuid.Nil, err
		}
		return p.ID, tickets.Create(ctx, tx, &entities.Ticket{
			Title: "Sin internet", Description: "No hay conexión en la oficina",
			Status: entities.StatusOpen, Priority: entities.PriorityMedium, UserID: owner,
			CategoryID: &catID, AssignedTo: &p.ID,
		})
	}

	secondPick := make(chan uuid.UUID, 1)
	var firstPick uuid.UUID
	err := tm.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		if firstPick, err = assign(tx); err != nil {
			return err
		}
		go func() {
			var picked uuid.UUID
			_ = tm.RunInTransaction(ctx, func(tx pgx.Tx) error {
				var err error
				picked, err = assign(tx)
				return err
			})
			secondPick <- picked
		}()
		// Вторая транзакция ждёт блокировку категории, пока первая не закоммичена
		select {
		case <-secondPick:
			return errors.New("автоназначение не дождалось блокировки категории")
		case <-time.After(300 * time.Millisecond):
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, first, firstPick)
	assert.Equal(t, second, <-secondPick, "второй тикет должен уйти менее загруженному ассистенту")
}

func TestRepositories_Integration_SearchEscapesWildcards(t *testing.T) {
	pool := requireDB(t)
	ctx := context.Background()

	owner := seedProfile(t, pool, "ana_lopez@antares.com", entities.RoleCustomer, nil)
	seedProfile(t, pool, "anaxlopez@antares.com", entities.RoleCustomer, nil)

	profiles, total, err := NewProfileRepository(pool).List(ctx, ProfileFilter{Search: "ana_l", Limit: 10})
	require.NoError(t, err)
	require.Equal(t, uint64(1), total)
	assert.Equal(t, owner, profiles[0].ID)

	for _, title := range []string{"Descuento 100% no aplicado", "Descuento 1000 no aplicado"} {
		createTicket(t, pool, &entities.Ticket{
			Title: title, Description: "La factura no refleja el descuento",
			Status: entities.StatusOpen, Priority: entities.PriorityLow, UserID: owner,
		})
	}
	list, total, err := NewTicketRepository(pool).List(ctx, entities.TicketFilter{Search: "100%", Limit: 10})
	require.NoError(t, err)
	require.Equal(t, uint64(1), total)
	assert.Equal(t, "Descuento 100% no aplicado", list[0].Title)

	_, total, err = NewTicketRepository(pool).List(ctx, entities.TicketFilter{Search: "%", Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestFeedbackRepository_Integration_OnePerTicket(t *testing.T) {
	pool := requireDB(t)
	ctx := context.Background()

	owner := seedProfile(t, pool, "cliente@antares.com", entities.RoleCustomer, nil)
	ticket := &entities.Ticket{
		Title: "Printer broken", Description: "La impresora no imprime nada",
		Status: entities.StatusClosed, Priority: entities.PriorityMedium, UserID: owner,
	}
	createTicket(t, pool, ticket)

	repo := NewFeedbackRepository(pool)
	tm := NewTxManager(pool)
	require.NoError(t, tm.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return repo.Create(ctx, tx, &entities.TicketFeedback{TicketID: ticket.ID, UserID: owner, Rating: 5})
	}))
	err := tm.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return repo.Create(ctx, tx, &entities.TicketFeedback{TicketID: ticket.ID, UserID: owner, Rating: 1})
	})
	assert.ErrorIs(t, err, apperrors.ErrFeedbackExists)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 5.0, stats.Average)
}

func TestOutbox_Integration_IdempotentDispatch(t *testing.T) {
	pool := requireDB(t)
	ctx := context.Background()
	tm := NewTxManager(pool)
	outbox := NewOutboxRepository(pool)
	notifications := NewNotificationRepository(pool)

	admin := seedProfile(t, pool, "admin@antares.com", entities.RoleAdmin, nil)
	drafts := []entities.NotificationDraft{{
		UserID: admin, Type: entities.NotificationTicketCreated,
		Title: "Nuevo ticket creado", Message: "Se ha creado un nuevo ticket: Printer broken",
	}}

	var eventID uint64
	require.NoError(t, tm.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		eventID, err = outbox.Enqueue(ctx, tx, entities.OutboxNotificationsBatch, nil,
			entities.NotificationBatch{Reason: "ticket_created", Drafts: drafts})
		return err
	}))

	for attempt := 0; attempt < 2; attempt++ {
		require.NoError(t, tm.RunInTransaction(ctx, func(tx pgx.Tx) error {
			inserted, err := notifications.InsertBatch(ctx, tx, eventID, drafts)
			if attempt == 0 {
				assert.Len(t, inserted, 1)
			} else {
				assert.Empty(t, inserted)
			}
			return err
		}))
	}

	count, err := notifications.CountUnread(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, tm.RunInTransaction(ctx, func(tx pgx.Tx) error {
		claimed, err := outbox.ClaimBatch(ctx, tx, 10)
		require.Len(t, claimed, 1)
		if err != nil {
			return err
		}
		return outbox.MarkProcessed(ctx, tx, claimed[0].ID)
	}))
	require.NoError(t, tm.RunInTransaction(ctx, func(tx pgx.Tx) error {
		claimed, err := outbox.ClaimBatch(ctx, tx, 10)
		assert.Empty(t, claimed)
		return err
	}))
}

func TestBuildFeedbackStats(t *testing.T) {
	stats := BuildFeedbackStats(map[int]int{5: 2, 4: 1})
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 4.7, stats.Average)
	assert.Equal(t, 0, stats.Distribution[1])
	assert.Len(t, stats.Distribution, 5)

	empty := BuildFeedbackStats(nil)
	assert.Equal(t, 0, empty.Total)
	assert.Equal(t, 0.0, empty.Average)
}
