package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"antares-helpdesk/internal/authz"
	"antares-helpdesk/internal/entities"
	"antares-helpdesk/internal/repositories"
	apperrors "antares-helpdesk/pkg/errors"
	"antares-helpdesk/pkg/utils"
)

// memDB - общее in-memory хранилище для фейковых репозиториев.
type memDB struct {
	mu  sync.Mutex
	seq uint64
	now time.Time

	users         map[uuid.UUID]*entities.User
	profiles      map[uuid.UUID]*entities.Profile
	categories    map[uint64]*entities.Category
	tickets       map[uint64]*entities.Ticket
	messages      []entities.Message
	history       []entities.TicketHistory
	outbox        []entities.OutboxEvent
	notifications []entities.Notification
	feedback      map[uint64]*entities.TicketFeedback
	tags          map[uint64]*entities.Tag
	ticketTags    map[uint64]map[uint64]bool
	attachments   map[uint64]*entities.Attachment
}

func newMemDB() *memDB {
	return &memDB{
		now:         time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
		users:       make(map[uuid.UUID]*entities.User),
		profiles:    make(map[uuid.UUID]*entities.Profile),
		categories:  make(map[uint64]*entities.Category),
		tickets:     make(map[uint64]*entities.Ticket),
		feedback:    make(map[uint64]*entities.TicketFeedback),
		tags:        make(map[uint64]*entities.Tag),
		ticketTags:  make(map[uint64]map[uint64]bool),
		attachments: make(map[uint64]*entities.Attachment),
	}
}

func (db *memDB) nextID() uint64 {
	db.seq++
	return db.seq
}

func (db *memDB) tick() time.Time {
	db.now = db.now.Add(time.Second)
	return db.now
}

func (db *memDB) addProfile(role entities.Role, name string) *entities.Profile {
	db.mu.Lock()
	defer db.mu.Unlock()
	p := &entities.Profile{ID: uuid.New(), FullName: name, Email: name + "@antares.com", Role: role}
	p.CreatedAt = db.tick()
	db.profiles[p.ID] = p
	return p
}

func (db *memDB) addCategory(name string) *entities.Category {
	db.mu.Lock()
	defer db.mu.Unlock()
	c := &entities.Category{ID: db.nextID(), Name: name, Type: entities.CategoryTypeTicket}
	db.categories[c.ID] = c
	return c
}

func (db *memDB) ticket(id uint64) entities.Ticket {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.tickets[id]
}

// pendingDrafts - все черновики уведомлений из необработанных событий outbox.
func (db *memDB) pendingDrafts() []entities.NotificationDraft {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []entities.NotificationDraft
	for _, e := range db.outbox {
		if e.ProcessedAt != nil {
			continue
		}
		var batch entities.NotificationBatch
		_ = json.Unmarshal(e.Payload, &batch)
		out = append(out, batch.Drafts...)
	}
	return out
}

func (db *memDB) historyActions(ticketID uint64) []entities.HistoryAction {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []entities.HistoryAction
	for _, h := range db.history {
		if h.TicketID == ticketID {
			out = append(out, h.Action)
		}
	}
	return out
}

func actorCtx(p *entities.Profile) context.Context {
	return utils.WithActor(context.Background(), authz.NewActor(p))
}

type fakeTxManager struct {
	calls int
	// beforeTx срабатывает один раз перед следующей транзакцией:
	// так имитируется параллельная запись между чтением и транзакцией.
	beforeTx func()
}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	m.calls++
	if hook := m.beforeTx; hook != nil {
		m.beforeTx = nil
		hook()
	}
	return fn(nil)
}

// --- profiles ---

type fakeProfileRepo struct{ db *memDB }

func (r *fakeProfileRepo) EnsureProfile(ctx context.Context, user *entities.User) (*entities.Profile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if p, ok := r.db.profiles[user.ID]; ok {
		cp := *p
		return &cp, nil
	}
	p := &entities.Profile{ID: user.ID, FullName: user.FullName, Email: user.Email, Role: entities.RoleCustomer}
	r.db.profiles[p.ID] = p
	cp := *p
	return &cp, nil
}

func (r *fakeProfileRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Profile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.profiles[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProfileRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entities.Profile, error) {
	out := make(map[uuid.UUID]*entities.Profile, len(ids))
	for _, id := range ids {
		if p, err := r.FindByID(ctx, id); err == nil {
			out[id] = p
		}
	}
	return out, nil
}

func (r *fakeProfileRepo) List(ctx context.Context, filter repositories.ProfileFilter) ([]entities.Profile, uint64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []entities.Profile
	for _, p := range r.db.profiles {
		if filter.Role != nil && p.Role != *filter.Role {
			continue
		}
		out = append(out, *p)
	}
	return out, uint64(len(out)), nil
}

func (r *fakeProfileRepo) ListStaff(ctx context.Context, tx pgx.Tx) ([]entities.Profile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []entities.Profile
	for _, p := range r.db.profiles {
		if p.Role.IsStaff() {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeProfileRepo) UpdateRole(ctx context.Context, id uuid.UUID, role entities.Role, department null.String, assignedCategoryID *uint64) (*entities.Profile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.profiles[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	p.Role = role
	p.Department = department
	p.AssignedCategoryID = assignedCategoryID
	cp := *p
	return &cp, nil
}

func (r *fakeProfileRepo) FindAutoAssignCandidate(ctx context.Context, tx pgx.Tx, categoryID uint64) (*entities.Profile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var best *entities.Profile
	bestLoad := -1
	for _, p := range r.db.profiles {
		if p.Role != entities.RoleAssistant || p.AssignedCategoryID == nil || *p.AssignedCategoryID != categoryID {
			continue
		}
		load := 0
		for _, t := range r.db.tickets {
			if t.IsAssignedTo(p.ID) && !t.IsClosed() {
				load++
			}
		}
		if best == nil || load < bestLoad || (load == bestLoad && p.CreatedAt.Before(best.CreatedAt)) {
			best, bestLoad = p, load
		}
	}
	if best == nil {
		return nil, apperrors.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

// --- categories ---

type fakeCategoryRepo struct{ db *memDB }

func (r *fakeCategoryRepo) List(ctx context.Context, categoryType *entities.CategoryType) ([]entities.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []entities.Category
	for _, c := range r.db.categories {
		if categoryType == nil || c.Type == *categoryType {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeCategoryRepo) FindByID(ctx context.Context, id uint64) (*entities.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.categories[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCategoryRepo) Create(ctx context.Context, category *entities.Category) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range r.db.categories {
		if category.Code.Valid && c.Code.Valid && c.Code.String == category.Code.String {
			return apperrors.ErrConflict
		}
	}
	category.ID = r.db.nextID()
	cp := *category
	r.db.categories[category.ID] = &cp
	return nil
}

func (r *fakeCategoryRepo) Update(ctx context.Context, category *entities.Category) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.categories[category.ID]; !ok {
		return apperrors.ErrNotFound
	}
	cp := *category
	r.db.categories[category.ID] = &cp
	return nil
}

func (r *fakeCategoryRepo) Delete(ctx context.Context, id uint64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.categories[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.db.categories, id)
	return nil
}

// --- tickets ---

type fakeTicketRepo struct{ db *memDB }

func (r *fakeTicketRepo) Create(ctx context.Context, tx pgx.Tx, ticket *entities.Ticket) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	ticket.ID = r.db.nextID()
	ticket.Version = 1
	ticket.CreatedAt = r.db.tick()
	ticket.UpdatedAt = ticket.CreatedAt
	cp := *ticket
	r.db.tickets[ticket.ID] = &cp
	return nil
}

func (r *fakeTicketRepo) FindByID(ctx context.Context, id uint64) (*entities.Ticket, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.tickets[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTicketRepo) detailsLocked(t *entities.Ticket) entities.TicketDetails {
	d := entities.TicketDetails{Ticket: *t, Tags: []entities.Tag{}}
	if owner, ok := r.db.profiles[t.UserID]; ok {
		d.Owner = owner.Summary()
	} else {
		d.Owner = entities.ProfileSummary{ID: t.UserID}
	}
	if t.AssignedTo != nil {
		if a, ok := r.db.profiles[*t.AssignedTo]; ok {
			s := a.Summary()
			d.Assignee = &s
		}
	}
	if t.CategoryID != nil {
		if c, ok := r.db.categories[*t.CategoryID]; ok {
			d.Category = &entities.CategorySummary{ID: c.ID, Name: c.Name}
		}
	}
	for tagID := range r.db.ticketTags[t.ID] {
		if tag, ok := r.db.tags[tagID]; ok {
			d.Tags = append(d.Tags, *tag)
		}
	}
	return d
}

func (r *fakeTicketRepo) GetDetails(ctx context.Context, id uint64) (*entities.TicketDetails, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.tickets[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	d := r.detailsLocked(t)
	return &d, nil
}

func (r *fakeTicketRepo) List(ctx context.Context, filter entities.TicketFilter) ([]entities.TicketDetails, uint64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []entities.TicketDetails
	for _, t := range r.db.tickets {
		if filter.OwnerID != nil && t.UserID != *filter.OwnerID {
			continue
		}
		if filter.AssignedTo != nil && !t.IsAssignedTo(*filter.AssignedTo) {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, st := range filter.Statuses {
				match = match || t.Status == st
			}
			if !match {
				continue
			}
		}
		if filter.Priority != nil && t.Priority != *filter.Priority {
			continue
		}
		if filter.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *filter.CategoryID) {
			continue
		}
		if filter.TagID != nil && !r.db.ticketTags[t.ID][*filter.TagID] {
			continue
		}
		out = append(out, r.detailsLocked(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, uint64(len(out)), nil
}

func (r *fakeTicketRepo) Update(ctx context.Context, tx pgx.Tx, ticket *entities.Ticket) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored, ok := r.db.tickets[ticket.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if stored.Version != ticket.Version {
		return apperrors.ErrVersionConflict
	}
	stored.Status = ticket.Status
	stored.Priority = ticket.Priority
	stored.CategoryID = ticket.CategoryID
	stored.AssignedTo = ticket.AssignedTo
	stored.Version++
	stored.UpdatedAt = r.db.tick()
	*ticket = *stored
	return nil
}

func (r *fakeTicketRepo) LockStatus(ctx context.Context, tx pgx.Tx, id uint64) (entities.TicketStatus, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.tickets[id]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return t.Status, nil
}

func (r *fakeTicketRepo) Delete(ctx context.Context, id uint64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.tickets[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.db.tickets, id)
	return nil
}

// --- messages ---

type fakeMessageRepo struct{ db *memDB }

func (r *fakeMessageRepo) Create(ctx context.Context, tx pgx.Tx, message *entities.Message) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	message.ID = r.db.nextID()
	message.CreatedAt = r.db.tick()
	r.db.messages = append(r.db.messages, *message)
	return nil
}

func (r *fakeMessageRepo) FindByID(ctx context.Context, id uint64) (*entities.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, m := range r.db.messages {
		if m.ID == id {
			cp := m
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeMessageRepo) ListByTicket(ctx context.Context, ticketID uint64) ([]entities.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []entities.Message
	for _, m := range r.db.messages {
		if m.TicketID == ticketID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) Delete(ctx context.Context, id uint64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i, m := range r.db.messages {
		if m.ID == id {
			r.db.messages = append(r.db.messages[:i], r.db.messages[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

// --- history ---

type fakeHistoryRepo struct{ db *memDB }

func (r *fakeHistoryRepo) Create(ctx context.Context, tx pgx.Tx, entry *entities.TicketHistory) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	entry.ID = r.db.nextID()
	entry.CreatedAt = r.db.tick()
	r.db.history = append(r.db.history, *entry)
	return nil
}

func (r *fakeHistoryRepo) ListByTicket(ctx context.Context, ticketID uint64) ([]entities.TicketHistory, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []entities.TicketHistory
	for i := len(r.db.history) - 1; i >= 0; i-- {
		if r.db.history[i].TicketID == ticketID {
			out = append(out, r.db.history[i])
		}
	}
	return out, nil
}

// --- outbox ---

type fakeOutboxRepo struct {
	db *memDB

	failed []uint64
	parked []uint64
}

func (r *fakeOutboxRepo) Enqueue(ctx context.Context, tx pgx.Tx, eventType string, ticketID *uint64, payload interface{}) (uint64, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	e := entities.OutboxEvent{ID: r.db.nextID(), EventType: eventType, TicketID: ticketID, Payload: raw, CreatedAt: r.db.now}
	r.db.outbox = append(r.db.outbox, e)
	return e.ID, nil
}

func (r *fakeOutboxRepo) ClaimBatch(ctx context.Context, tx pgx.Tx, limit uint64) ([]entities.OutboxEvent, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []entities.OutboxEvent
	for _, e := range r.db.outbox {
		if e.ProcessedAt == nil && !e.AvailableAt.After(r.db.now) && uint64(len(out)) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeOutboxRepo) update(id uint64, fn func(e *entities.OutboxEvent)) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range r.db.outbox {
		if r.db.outbox[i].ID == id {
			fn(&r.db.outbox[i])
		}
	}
}

func (r *fakeOutboxRepo) MarkProcessed(ctx context.Context, tx pgx.Tx, id uint64) error {
	now := r.db.now
	r.update(id, func(e *entities.OutboxEvent) { e.ProcessedAt = &now })
	return nil
}

func (r *fakeOutboxRepo) MarkFailed(ctx context.Context, id uint64, lastError string, retryAt time.Time) error {
	r.failed = append(r.failed, id)
	r.update(id, func(e *entities.OutboxEvent) {
		e.Attempts++
		e.AvailableAt = retryAt
		e.LastError = null.StringFrom(lastError)
	})
	return nil
}

func (r *fakeOutboxRepo) Park(ctx context.Context, id uint64, lastError string) error {
	r.parked = append(r.parked, id)
	now := r.db.now
	r.update(id, func(e *entities.OutboxEvent) {
		e.Attempts++
		e.ProcessedAt = &now
		e.LastError = null.StringFrom(lastError)
	})
	return nil
}

// --- notifications ---

type fakeNotificationRepo struct {
	db *memDB

	insertErr error
}

func (r *fakeNotificationRepo) InsertBatch(ctx context.Context, tx pgx.Tx, outboxEventID uint64, drafts []entities.NotificationDraft) ([]entities.Notification, error) {
	if r.insertErr != nil {
		return nil, r.insertErr
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var inserted []entities.Notification
	for _, d := range drafts {
		n := entities.Notification{
			ID: r.db.nextID(), UserID: d.UserID, TicketID: d.TicketID,
			Type: d.Type, Title: d.Title, Message: d.Message, CreatedAt: r.db.now,
		}
		r.db.notifications = append(r.db.notifications, n)
		inserted = append(inserted, n)
	}
	return inserted, nil
}

func (r *fakeNotificationRepo) FindByID(ctx context.Context, id uint64) (*entities.Notification, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, n := range r.db.notifications {
		if n.ID == id {
			cp := n
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeNotificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit uint64, unreadOnly bool) ([]entities.Notification, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []entities.Notification
	for i := len(r.db.notifications) - 1; i >= 0 && uint64(len(out)) < limit; i-- {
		n := r.db.notifications[i]
		if n.UserID == userID && (!unreadOnly || !n.Read) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var count int64
	for _, n := range r.db.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, id uint64, userID uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range r.db.notifications {
		n := &r.db.notifications[i]
		if n.ID == id && n.UserID == userID && !n.Read {
			n.Read = true
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeNotificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var count int64
	for i := range r.db.notifications {
		n := &r.db.notifications[i]
		if n.UserID == userID && !n.Read {
			n.Read = true
			count++
		}
	}
	return count, nil
}

// --- feedback ---

type fakeFeedbackRepo struct{ db *memDB }

func (r *fakeFeedbackRepo) Create(ctx context.Context, tx pgx.Tx, fb *entities.TicketFeedback) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.feedback[fb.TicketID]; ok {
		return apperrors.ErrFeedbackExists
	}
	fb.ID = r.db.nextID()
	fb.CreatedAt = r.db.tick()
	cp := *fb
	r.db.feedback[fb.TicketID] = &cp
	return nil
}

func (r *fakeFeedbackRepo) FindByTicket(ctx context.Context, ticketID uint64) (*entities.TicketFeedback, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	fb, ok := r.db.feedback[ticketID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *fb
	return &cp, nil
}

func (r *fakeFeedbackRepo) List(ctx context.Context, limit, offset uint64) ([]entities.TicketFeedback, uint64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []entities.TicketFeedback
	for _, fb := range r.db.feedback {
		out = append(out, *fb)
	}
	return out, uint64(len(out)), nil
}

func (r *fakeFeedbackRepo) Stats(ctx context.Context) (*entities.FeedbackStats, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	counts := make(map[int]int)
	for _, fb := range r.db.feedback {
		counts[fb.Rating]++
	}
	return repositories.BuildFeedbackStats(counts), nil
}

// --- tags ---

type fakeTagRepo struct{ db *memDB }

func (r *fakeTagRepo) List(ctx context.Context) ([]entities.Tag, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []entities.Tag
	for _, t := range r.db.tags {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeTagRepo) FindByID(ctx context.Context, id uint64) (*entities.Tag, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.tags[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTagRepo) Create(ctx context.Context, tag *entities.Tag) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	tag.ID = r.db.nextID()
	cp := *tag
	r.db.tags[tag.ID] = &cp
	return nil
}

func (r *fakeTagRepo) Update(ctx context.Context, tag *entities.Tag) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.tags[tag.ID]; !ok {
		return apperrors.ErrNotFound
	}
	cp := *tag
	r.db.tags[tag.ID] = &cp
	return nil
}

func (r *fakeTagRepo) Delete(ctx context.Context, id uint64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.tags, id)
	return nil
}

func (r *fakeTagRepo) ListByTicket(ctx context.Context, ticketID uint64) ([]entities.Tag, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []entities.Tag
	for id := range r.db.ticketTags[ticketID] {
		out = append(out, *r.db.tags[id])
	}
	return out, nil
}

func (r *fakeTagRepo) AddToTicket(ctx context.Context, tx pgx.Tx, ticketID, tagID uint64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.ticketTags[ticketID] == nil {
		r.db.ticketTags[ticketID] = make(map[uint64]bool)
	}
	if r.db.ticketTags[ticketID][tagID] {
		return false, nil
	}
	r.db.ticketTags[ticketID][tagID] = true
	return true, nil
}

func (r *fakeTagRepo) RemoveFromTicket(ctx context.Context, tx pgx.Tx, ticketID, tagID uint64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if !r.db.ticketTags[ticketID][tagID] {
		return false, nil
	}
	delete(r.db.ticketTags[ticketID], tagID)
	return true, nil
}

// --- users ---

type fakeUserRepo struct{ db *memDB }

func (r *fakeUserRepo) Create(ctx context.Context, user *entities.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == user.Email {
			return apperrors.ErrEmailTaken
		}
	}
	cp := *user
	r.db.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	now := r.db.now
	u.EmailVerifiedAt = &now
	return nil
}

// --- cache ---

type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
	ttl  map[string]time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string), ttl: make(map[string]time.Duration)}
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch v := value.(type) {
	case string:
		c.data[key] = v
	case int:
		c.data[key] = strconv.Itoa(v)
	default:
		raw, _ := json.Marshal(v)
		c.data[key] = string(raw)
	}
	c.ttl[key] = expiration
	return nil
}

func (c *fakeCache) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	c.mu.Lock()
	_, exists := c.data[key]
	c.mu.Unlock()
	if exists {
		return false, nil
	}
	return true, c.Set(ctx, key, value, expiration)
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", repositories.ErrCacheMiss
	}
	return v, nil
}

func (c *fakeCache) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
		delete(c.ttl, k)
	}
	return nil
}

func (c *fakeCache) Incr(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, _ := strconv.ParseInt(c.data[key], 10, 64)
	n++
	c.data[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (c *fakeCache) Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[key]; !ok {
		return false, nil
	}
	c.ttl[key] = expiration
	return true, nil
}

func (c *fakeCache) TTL(ctx context.Context, key string) (time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttl[key], nil
}

func (c *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

var errStoreDown = errors.New("store down")
