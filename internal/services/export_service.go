package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"antares-helpdesk/internal/authz"
	"antares-helpdesk/internal/dto"
	"antares-helpdesk/internal/entities"
	"antares-helpdesk/internal/repositories"
	apperrors "antares-helpdesk/pkg/errors"
	"antares-helpdesk/pkg/utils"
)

const (
	ticketsSheet      = "Tickets"
	singleTicketSheet = "Ticket"

	exportDateTimeFmt = "02/01/2006 15:04"
	exportDateFmt     = "02/01/2006"
	exportTimeFmt     = "15:04"
	fileDateFmt       = "2006-01-02"

	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	ticketsHeaders = []interface{}{
		"ID", "Título", "Descripción", "Estado", "Prioridad", "Categoría",
		"Creado_Por", "Email_Creador", "Asignado_A", "Fecha_Creación", "Fecha_Actualización",
	}
	ticketsWidths = []float64{8, 30, 50, 12, 12, 20, 25, 30, 15, 20, 20}

	singleTicketHeaders = []interface{}{
		"Nombre", "Fecha", "Hora", "Título del Ticket", "Categoría", "Descripción", "Prioridad",
	}
	singleTicketWidths = []float64{25, 12, 10, 40, 20, 60, 12}

	exportStatusLabels = map[entities.TicketStatus]string{
		entities.StatusOpen:    "Abierto",
		entities.StatusPending: "Pendiente",
		entities.StatusClosed:  "Cerrado",
	}
	exportPriorityLabels = map[entities.TicketPriority]string{
		entities.PriorityHigh:   "Alta",
		entities.PriorityMedium: "Media",
		entities.PriorityLow:    "Baja",
	}
	singleTicketPriorityLabels = map[entities.TicketPriority]string{
		entities.PriorityHigh:   "Urgente",
		entities.PriorityMedium: "Medio",
		entities.PriorityLow:    "Bajo",
	}
)

// Workbook - готовый к отдаче xlsx.
type Workbook struct {
	FileName string
	Content  *bytes.Buffer
}

type ExportServiceInterface interface {
	ExportTickets(ctx context.Context, scope entities.TicketScope) (*Workbook, error)
	ExportTicket(ctx context.Context, id uint64) (*Workbook, error)
}

type ExportService struct {
	ticketRepo repositories.TicketRepositoryInterface
	logger     *zap.Logger
	now        func() time.Time
}

func NewExportService(ticketRepo repositories.TicketRepositoryInterface, logger *zap.Logger) *ExportService {
	return &ExportService{ticketRepo: ticketRepo, logger: logger, now: time.Now}
}

// ExportTickets - клиенту доступен только scope=mine, остальные области требуют scope:all.
func (s *ExportService) ExportTickets(ctx context.Context, scope entities.TicketScope) (*Workbook, error) {
	actor, err := utils.GetActorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(authz.TicketsExport, authz.Context{Actor: actor}) {
		return nil, apperrors.ErrForbidden
	}
	if scope == "" {
		scope = entities.ScopeMine
	}
	if !scope.Valid() {
		return nil, apperrors.NewInvalidInputError("ámbito no válido: %s", scope)
	}
	if scope != entities.ScopeMine && !authz.CanDo(authz.ScopeAll, authz.Context{Actor: actor}) {
		return nil, apperrors.ErrForbidden
	}

	filter, err := buildTicketFilter(actor, scope, dto.TicketListQuery{})
	if err != nil {
		return nil, err
	}
	tickets, _, err := s.ticketRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	content, err := buildTicketsWorkbook(tickets)
	if err != nil {
		s.logger.Error("Не удалось сформировать выгрузку тикетов", zap.Error(err))
		return nil, err
	}
	s.logger.Info("Выгрузка тикетов сформирована", zap.String("scope", string(scope)), zap.Int("rows", len(tickets)))
	return &Workbook{
		FileName: fmt.Sprintf("tickets_%s_%s.xlsx", scope, s.now().Format(fileDateFmt)),
		Content:  content,
	}, nil
}

func (s *ExportService) ExportTicket(ctx context.Context, id uint64) (*Workbook, error) {
	actor, err := utils.GetActorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	ticket, err := s.ticketRepo.GetDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(authz.TicketsExport, authz.Context{Actor: actor, Target: ticket}) {
		return nil, apperrors.ErrForbidden
	}

	content, err := buildSingleTicketWorkbook(ticket)
	if err != nil {
		s.logger.Error("Не удалось сформировать выгрузку тикета", zap.Uint64("ticketID", id), zap.Error(err))
		return nil, err
	}
	return &Workbook{
		FileName: fmt.Sprintf("ticket_%d_%s.xlsx", ticket.ID, ticket.CreatedAt.Format(fileDateFmt)),
		Content:  content,
	}, nil
}

func buildTicketsWorkbook(tickets []entities.TicketDetails) (*bytes.Buffer, error) {
	rows := make([][]interface{}, 0, len(tickets))
	for i := range tickets {
		rows = append(rows, ticketRow(&tickets[i]))
	}
	return writeSheet(ticketsSheet, ticketsHeaders, ticketsWidths, rows)
}

func buildSingleTicketWorkbook(t *entities.TicketDetails) (*bytes.Buffer, error) {
	priority, ok := singleTicketPriorityLabels[t.Priority]
	if !ok {
		priority = "Medio"
	}
	row := []interface{}{
		creatorName(t),
		t.CreatedAt.Format(exportDateFmt),
		t.CreatedAt.Format(exportTimeFmt),
		t.Title,
		categoryName(t),
		t.Description,
		priority,
	}
	return writeSheet(singleTicketSheet, singleTicketHeaders, singleTicketWidths, [][]interface{}{row})
}

func ticketRow(t *entities.TicketDetails) []interface{} {
	assigned := "Sin asignar"
	if t.AssignedTo != nil {
		assigned = "Asignado"
	}
	var updatedAt string
	if !t.UpdatedAt.IsZero() {
		updatedAt = t.UpdatedAt.Format(exportDateTimeFmt)
	}
	return []interface{}{
		t.ID,
		t.Title,
		t.Description,
		labelOr(exportStatusLabels[t.Status], string(t.Status)),
		labelOr(exportPriorityLabels[t.Priority], string(t.Priority)),
		categoryName(t),
		creatorName(t),
		t.Owner.Email,
		assigned,
		t.CreatedAt.Format(exportDateTimeFmt),
		updatedAt,
	}
}

func labelOr(label, fallback string) string {
	if label != "" {
		return label
	}
	return fallback
}

func categoryName(t *entities.TicketDetails) string {
	if t.Category != nil && t.Category.Name != "" {
		return t.Category.Name
	}
	return "Sin categoría"
}

func creatorName(t *entities.TicketDetails) string {
	if t.Owner.FullName != "" {
		return t.Owner.FullName
	}
	if t.Owner.Email != "" {
		return t.Owner.Email
	}
	return "Usuario desconocido"
}

func writeSheet(sheet string, headers []interface{}, widths []float64, rows [][]interface{}) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return nil, err
	}

	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return nil, err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", style); err != nil {
		return nil, err
	}

	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return nil, err
		}
	}

	for i := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return nil, err
		}
	}

	return f.WriteToBuffer()
}
