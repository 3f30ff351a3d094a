package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"antares-helpdesk/internal/dto"
	"antares-helpdesk/internal/entities"
	apperrors "antares-helpdesk/pkg/errors"
)

func TestExportTickets_RoundTrip(t *testing.T) {
	h := newHarness(t)
	cat := h.db.addCategory("Impresoras")
	carla := h.db.addProfile(entities.RoleCustomer, "carla")
	staff := h.db.addProfile(entities.RoleAdmin, "admin")
	ctx := actorCtx(carla)

	first, err := h.ticketSvc.Create(ctx, dto.CreateTicketDTO{Title: "Printer broken", Description: "No imprime nada", Priority: "high", CategoryID: &cat.ID})
	require.NoError(t, err)
	second, err := h.ticketSvc.Create(ctx, dto.CreateTicketDTO{Title: "Monitor roto", Description: "La pantalla parpadea", Priority: "low"})
	require.NoError(t, err)
	_, err = h.ticketSvc.UpdateStatus(actorCtx(staff), second.ID, dto.UpdateTicketStatusDTO{Status: "pending"})
	require.NoError(t, err)

	svc := NewExportService(h.tickets, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC) }

	wb, err := svc.ExportTickets(ctx, entities.ScopeMine)
	require.NoError(t, err)
	assert.Equal(t, "tickets_mine_2024-05-02.xlsx", wb.FileName)

	f, err := excelize.OpenReader(wb.Content)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Tickets")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{
		"ID", "Título", "Descripción", "Estado", "Prioridad", "Categoría",
		"Creado_Por", "Email_Creador", "Asignado_A", "Fecha_Creación", "Fecha_Actualización",
	}, rows[0])

	// Новые сверху
	assert.Equal(t, []string{"Monitor roto", "Pendiente", "Baja", "Sin categoría", "carla", "carla@antares.com", "Sin asignar"},
		[]string{rows[1][1], rows[1][3], rows[1][4], rows[1][5], rows[1][6], rows[1][7], rows[1][8]})
	assert.Equal(t, []string{"Printer broken", "Abierto", "Alta", "Impresoras"},
		[]string{rows[2][1], rows[2][3], rows[2][4], rows[2][5]})
	assert.Equal(t, first.CreatedAt.Format("02/01/2006 15:04"), rows[2][9])

	width, err := f.GetColWidth("Tickets", "C")
	require.NoError(t, err)
	assert.Equal(t, 50.0, width)
}

func TestExportTickets_CustomerLimitedToMine(t *testing.T) {
	h := newHarness(t)
	ctx := actorCtx(h.db.addProfile(entities.RoleCustomer, "carla"))
	svc := NewExportService(h.tickets, zap.NewNop())

	for _, scope := range []entities.TicketScope{entities.ScopeAll, entities.ScopeOpen, entities.ScopeClosed} {
		_, err := svc.ExportTickets(ctx, scope)
		assert.ErrorIs(t, err, apperrors.ErrForbidden, scope)
	}

	wb, err := svc.ExportTickets(ctx, "")
	require.NoError(t, err)
	f, err := excelize.OpenReader(wb.Content)
	require.NoError(t, err)
	rows, err := f.GetRows("Tickets")
	require.NoError(t, err)
	assert.Len(t, rows, 1, "только заголовок")
}

func TestExportTicket_SingleSheet(t *testing.T) {
	h := newHarness(t)
	carla := h.db.addProfile(entities.RoleCustomer, "carla")
	other := h.db.addProfile(entities.RoleCustomer, "otro")
	created, err := h.ticketSvc.Create(actorCtx(carla), dto.CreateTicketDTO{Title: "Printer broken", Description: "No imprime nada", Priority: "high"})
	require.NoError(t, err)

	svc := NewExportService(h.tickets, zap.NewNop())
	_, err = svc.ExportTicket(actorCtx(other), created.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	wb, err := svc.ExportTicket(actorCtx(carla), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "ticket_1_2024-03-15.xlsx", wb.FileName)

	f, err := excelize.OpenReader(wb.Content)
	require.NoError(t, err)
	rows, err := f.GetRows("Ticket")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Título del Ticket", rows[0][3])
	assert.Equal(t, []string{"carla", "15/03/2024", "10:30", "Printer broken", "Sin categoría", "No imprime nada", "Urgente"}, rows[1][:7])
}
