package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"antares-helpdesk/internal/dto"
	"antares-helpdesk/internal/entities"
	apperrors "antares-helpdesk/pkg/errors"
	"antares-helpdesk/pkg/utils"
)

// PrinterBrokenSuite - сквозной сценарий: клиент создаёт тикет, ассистент
// отвечает и закрывает его, клиент оставляет оценку.
type PrinterBrokenSuite struct {
	suite.Suite
	h *harness

	customer  *entities.Profile
	assistant *entities.Profile
	admin     *entities.Profile
	hardware  *entities.Category
}

func TestPrinterBrokenSuite(t *testing.T) {
	suite.Run(t, new(PrinterBrokenSuite))
}

func (s *PrinterBrokenSuite) SetupTest() {
	s.h = newHarness(s.T())
	s.hardware = s.h.db.addCategory("Hardware")
	s.customer = s.h.db.addProfile(entities.RoleCustomer, "carla")
	s.admin = s.h.db.addProfile(entities.RoleAdmin, "admin")
	s.assistant = s.h.db.addProfile(entities.RoleAssistant, "andres")
	s.assistant.AssignedCategoryID = &s.hardware.ID
}

func (s *PrinterBrokenSuite) TestFullLifecycle() {
	h := s.h
	customerCtx := actorCtx(s.customer)
	assistantCtx := actorCtx(s.assistant)

	created, err := h.ticketSvc.Create(customerCtx, dto.CreateTicketDTO{
		Title:       "Printer broken",
		Description: "The office printer does not print anything",
		Priority:    "high",
		CategoryID:  &s.hardware.ID,
	})
	s.Require().NoError(err)
	s.Equal(entities.StatusOpen, created.Status)
	s.Require().NotNil(created.AssignedTo, "тикет должен назначиться ассистенту категории")
	s.Equal(s.assistant.ID, *created.AssignedTo)
	s.Equal([]entities.HistoryAction{entities.HistoryCreated}, h.db.historyActions(created.ID))

	// Одно событие outbox адресовано всем сотрудникам на момент создания
	s.Equal(1, h.dispatch(s.T()))
	s.Len(h.notificationsFor(s.admin), 1)
	s.Len(h.notificationsFor(s.assistant), 1)
	s.Empty(h.notificationsFor(s.customer))

	_, err = h.messageSvc.Create(assistantCtx, created.ID, dto.CreateMessageDTO{Body: "Reinicie la impresora, por favor"})
	s.Require().NoError(err)
	_, err = h.messageSvc.Create(customerCtx, created.ID, dto.CreateMessageDTO{Body: "Ya lo hice y sigue igual"})
	s.Require().NoError(err)
	h.dispatch(s.T())

	s.Len(h.notificationsFor(s.customer), 1)
	s.Equal("Nuevo mensaje en tu ticket", h.notificationsFor(s.customer)[0].Title)
	s.Len(h.notificationsFor(s.assistant), 2)

	closed, err := h.ticketSvc.UpdateStatus(assistantCtx, created.ID, dto.UpdateTicketStatusDTO{Status: "closed"})
	s.Require().NoError(err)
	s.Equal(entities.StatusClosed, closed.Status)
	s.Equal(created.Version+1, closed.Version)
	h.dispatch(s.T())

	customerNotes := h.notificationsFor(s.customer)
	s.Require().Len(customerNotes, 2)
	s.Equal("Ticket cerrado", customerNotes[1].Title)
	s.Equal(`El estado de tu ticket "Printer broken" ha cambiado a cerrado`, customerNotes[1].Message)

	_, err = h.messageSvc.Create(customerCtx, created.ID, dto.CreateMessageDTO{Body: "¿Hola?"})
	s.ErrorIs(err, apperrors.ErrTicketClosed)
	messages, err := h.messageSvc.List(customerCtx, created.ID)
	s.Require().NoError(err)
	s.Len(messages, 2, "чтение закрытого тикета разрешено")

	_, err = h.feedbackSvc.Create(assistantCtx, created.ID, dto.CreateFeedbackDTO{Rating: 5})
	s.ErrorIs(err, apperrors.ErrForbidden)

	fb, err := h.feedbackSvc.Create(customerCtx, created.ID, dto.CreateFeedbackDTO{Rating: 5})
	s.Require().NoError(err)
	s.Equal(s.customer.ID, fb.UserID)

	_, err = h.feedbackSvc.Create(customerCtx, created.ID, dto.CreateFeedbackDTO{Rating: 4})
	s.ErrorIs(err, apperrors.ErrFeedbackExists)

	stats, err := h.feedbackSvc.Stats(assistantCtx)
	s.Require().NoError(err)
	s.Equal(1, stats.Total)
	s.Equal(5.0, stats.Average)

	history, err := h.historySvc.List(assistantCtx, created.ID)
	s.Require().NoError(err)
	s.Equal(entities.HistoryStatusChanged, history[0].Action)
}

func (s *PrinterBrokenSuite) TestCustomerCannotManageTickets() {
	ctx := actorCtx(s.customer)
	created, err := s.h.ticketSvc.Create(ctx, dto.CreateTicketDTO{
		Title:       "Printer broken",
		Description: "The office printer does not print anything",
	})
	s.Require().NoError(err)
	s.Equal(entities.PriorityMedium, created.Priority)
	s.Nil(created.AssignedTo)

	_, err = s.h.ticketSvc.UpdateStatus(ctx, created.ID, dto.UpdateTicketStatusDTO{Status: "closed"})
	s.ErrorIs(err, apperrors.ErrForbidden)
	s.ErrorIs(s.h.ticketSvc.Delete(ctx, created.ID), apperrors.ErrForbidden)
	s.ErrorIs(s.h.ticketSvc.Delete(actorCtx(s.assistant), created.ID), apperrors.ErrForbidden)
	s.NoError(s.h.ticketSvc.Delete(actorCtx(s.admin), created.ID))
}

func TestTicketCreate_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := actorCtx(h.db.addProfile(entities.RoleCustomer, "carla"))

	cases := []struct {
		name    string
		payload dto.CreateTicketDTO
	}{
		{"short title after trim", dto.CreateTicketDTO{Title: "  abc   ", Description: "descripción suficiente"}},
		{"short description", dto.CreateTicketDTO{Title: "Printer broken", Description: "corta"}},
		{"unknown priority", dto.CreateTicketDTO{Title: "Printer broken", Description: "descripción suficiente", Priority: "urgent"}},
		{"unknown category", dto.CreateTicketDTO{Title: "Printer broken", Description: "descripción suficiente", CategoryID: utils.ToPtr(uint64(999))}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.ticketSvc.Create(ctx, tc.payload)
			var inputErr *apperrors.InvalidInputError
			assert.ErrorAs(t, err, &inputErr)
		})
	}
	assert.Zero(t, h.tx.calls, "невалидный тикет не должен открывать транзакцию")
}

func TestTicketCreate_NoStaffNoOutboxEvent(t *testing.T) {
	h := newHarness(t)
	ctx := actorCtx(h.db.addProfile(entities.RoleCustomer, "carla"))

	_, err := h.ticketSvc.Create(ctx, dto.CreateTicketDTO{Title: "Printer broken", Description: "No imprime nada"})
	require.NoError(t, err)
	assert.Empty(t, h.db.outbox)
}

func TestTicketCreate_AutoAssignLeastLoaded(t *testing.T) {
	h := newHarness(t)
	cat := h.db.addCategory("Redes")
	busy := h.db.addProfile(entities.RoleAssistant, "busy")
	busy.AssignedCategoryID = &cat.ID
	idle := h.db.addProfile(entities.RoleAssistant, "idle")
	idle.AssignedCategoryID = &cat.ID
	ctx := actorCtx(h.db.addProfile(entities.RoleCustomer, "carla"))

	first, err := h.ticketSvc.Create(ctx, dto.CreateTicketDTO{Title: "Sin internet", Description: "No hay conexión en la oficina", CategoryID: &cat.ID})
	require.NoError(t, err)
	require.NotNil(t, first.AssignedTo)
	assert.Equal(t, busy.ID, *first.AssignedTo, "при равной нагрузке - самый ранний профиль")

	second, err := h.ticketSvc.Create(ctx, dto.CreateTicketDTO{Title: "Wifi lento", Description: "La red inalámbrica va muy lenta", CategoryID: &cat.ID})
	require.NoError(t, err)
	require.NotNil(t, second.AssignedTo)
	assert.Equal(t, idle.ID, *second.AssignedTo)
}

func TestTicketUpdate_VersionConflict(t *testing.T) {
	h := newHarness(t)
	customer := h.db.addProfile(entities.RoleCustomer, "carla")
	staffCtx := actorCtx(h.db.addProfile(entities.RoleAssistant, "andres"))

	created, err := h.ticketSvc.Create(actorCtx(customer), dto.CreateTicketDTO{Title: "Printer broken", Description: "No imprime nada"})
	require.NoError(t, err)
	stale := created.Version

	_, err = h.ticketSvc.Update(staffCtx, created.ID, dto.UpdateTicketDTO{Priority: utils.ToPtr("high"), Version: &stale})
	require.NoError(t, err)

	_, err = h.ticketSvc.Update(staffCtx, created.ID, dto.UpdateTicketDTO{Priority: utils.ToPtr("low"), Version: &stale})
	assert.ErrorIs(t, err, apperrors.ErrVersionConflict)
	assert.Equal(t, entities.PriorityHigh, h.db.ticket(created.ID).Priority)
}

func TestTicketUpdate_HistoryPerChangedField(t *testing.T) {
	h := newHarness(t)
	customer := h.db.addProfile(entities.RoleCustomer, "carla")
	assistant := h.db.addProfile(entities.RoleAssistant, "andres")
	cat := h.db.addCategory("Software")
	staffCtx := actorCtx(assistant)

	created, err := h.ticketSvc.Create(actorCtx(customer), dto.CreateTicketDTO{Title: "Printer broken", Description: "No imprime nada"})
	require.NoError(t, err)

	_, err = h.ticketSvc.Update(staffCtx, created.ID, dto.UpdateTicketDTO{
		Status:     utils.ToPtr("pending"),
		Priority:   utils.ToPtr("medium"),
		AssignedTo: dto.Some(assistant.ID),
		CategoryID: dto.Some(cat.ID),
	})
	require.NoError(t, err)

	assert.Equal(t, []entities.HistoryAction{
		entities.HistoryCreated,
		entities.HistoryStatusChanged,
		entities.HistoryCategoryChanged,
		entities.HistoryAssigned,
	}, h.db.historyActions(created.ID), "неизменённый приоритет не пишет историю")

	drafts := h.db.pendingDrafts()
	var statusDrafts, assignDrafts int
	for _, d := range drafts {
		switch d.Type {
		case entities.NotificationTicketStatusChange:
			statusDrafts++
		case entities.NotificationTicketAssigned:
			assignDrafts++
		}
	}
	assert.Equal(t, 2, statusDrafts)
	assert.Equal(t, 2, assignDrafts)

	// Явный null снимает исполнителя
	_, err = h.ticketSvc.Update(staffCtx, created.ID, dto.UpdateTicketDTO{AssignedTo: dto.Null[uuid.UUID]()})
	require.NoError(t, err)
	assert.Nil(t, h.db.ticket(created.ID).AssignedTo)
}

func TestTicketAssign_OnlyStaff(t *testing.T) {
	h := newHarness(t)
	customer := h.db.addProfile(entities.RoleCustomer, "carla")
	other := h.db.addProfile(entities.RoleEmployee, "eva")
	staffCtx := actorCtx(h.db.addProfile(entities.RoleAdmin, "admin"))

	created, err := h.ticketSvc.Create(actorCtx(customer), dto.CreateTicketDTO{Title: "Printer broken", Description: "No imprime nada"})
	require.NoError(t, err)

	_, err = h.ticketSvc.Assign(staffCtx, created.ID, dto.AssignTicketDTO{AssignedTo: &other.ID})
	var inputErr *apperrors.InvalidInputError
	assert.ErrorAs(t, err, &inputErr)
}

func TestTicketList_Scopes(t *testing.T) {
	h := newHarness(t)
	carla := h.db.addProfile(entities.RoleCustomer, "carla")
	eva := h.db.addProfile(entities.RoleEmployee, "eva")
	staffCtx := actorCtx(h.db.addProfile(entities.RoleAssistant, "andres"))

	for _, p := range []*entities.Profile{carla, carla, eva} {
		_, err := h.ticketSvc.Create(actorCtx(p), dto.CreateTicketDTO{Title: "Printer broken", Description: "No imprime nada"})
		require.NoError(t, err)
	}

	mine, total, err := h.ticketSvc.List(actorCtx(carla), entities.ScopeMine, dto.TicketListQuery{}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
	assert.Greater(t, mine[0].ID, mine[1].ID, "новые сверху")

	// Без явной области клиент всё равно видит только своё
	list, _, err := h.ticketSvc.List(actorCtx(eva), "", dto.TicketListQuery{}, 20, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, _, err = h.ticketSvc.List(actorCtx(eva), entities.ScopeAll, dto.TicketListQuery{}, 20, 0)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	all, _, err := h.ticketSvc.List(staffCtx, entities.ScopeAll, dto.TicketListQuery{}, 20, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	closed, _, err := h.ticketSvc.List(staffCtx, entities.ScopeClosed, dto.TicketListQuery{}, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, closed)

	_, _, err = h.ticketSvc.List(staffCtx, "archived", dto.TicketListQuery{}, 20, 0)
	var inputErr *apperrors.InvalidInputError
	assert.ErrorAs(t, err, &inputErr)

	_, err = h.ticketSvc.Get(actorCtx(eva), mine[0].ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestTicketService_RequiresActor(t *testing.T) {
	h := newHarness(t)
	_, err := h.ticketSvc.Create(context.Background(), dto.CreateTicketDTO{})
	assert.ErrorIs(t, err, apperrors.ErrActorNotFoundInContext)
}
