package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"antares-helpdesk/internal/entities"
	"antares-helpdesk/pkg/config"
	"antares-helpdesk/pkg/eventbus"
	"antares-helpdesk/pkg/service"
)

// harness собирает сервисы поверх одного memDB.
type harness struct {
	db *memDB

	tx            *fakeTxManager
	tickets       *fakeTicketRepo
	profiles      *fakeProfileRepo
	categories    *fakeCategoryRepo
	messages      *fakeMessageRepo
	history       *fakeHistoryRepo
	outbox        *fakeOutboxRepo
	notifications *fakeNotificationRepo
	feedback      *fakeFeedbackRepo
	attachments   *fakeAttachmentRepo
	storage       *recordingStorage
	tags          *fakeTagRepo
	cache         *fakeCache
	bus           *eventbus.Bus

	ticketSvc       *TicketService
	messageSvc      *MessageService
	attachmentSvc   *AttachmentService
	feedbackSvc     *FeedbackService
	notificationSvc *NotificationService
	tagSvc          *TagService
	historySvc      *TicketHistoryService
	dispatcher      *OutboxDispatcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zap.NewNop()
	db := newMemDB()

	h := &harness{
		db:            db,
		tx:            &fakeTxManager{},
		tickets:       &fakeTicketRepo{db: db},
		profiles:      &fakeProfileRepo{db: db},
		categories:    &fakeCategoryRepo{db: db},
		messages:      &fakeMessageRepo{db: db},
		history:       &fakeHistoryRepo{db: db},
		outbox:        &fakeOutboxRepo{db: db},
		notifications: &fakeNotificationRepo{db: db},
		feedback:      &fakeFeedbackRepo{db: db},
		attachments:   &fakeAttachmentRepo{db: db},
		storage:       newRecordingStorage(t),
		tags:          &fakeTagRepo{db: db},
		cache:         newFakeCache(),
		bus:           eventbus.New(logger),
	}

	files := NewStoredFiles(h.attachments, h.messages, h.storage, logger)
	h.ticketSvc = NewTicketService(h.tx, h.tickets, h.profiles, h.categories, h.history, h.outbox, files, logger)
	h.messageSvc = NewMessageService(h.tx, h.messages, h.tickets, h.outbox, files, logger)
	h.attachmentSvc = NewAttachmentService(h.tx, h.attachments, h.tickets, h.messages, h.history, h.storage,
		service.NewJWTService("test-secret", time.Hour, time.Hour, logger),
		config.StorageConfig{SignedURLTTL: 5 * time.Minute, PublicURL: "http://helpdesk.test"}, logger)
	h.feedbackSvc = NewFeedbackService(h.tx, h.feedback, h.tickets, logger)
	h.notificationSvc = NewNotificationService(h.tx, h.notifications, h.outbox, h.profiles, h.tickets, h.cache, time.Minute, logger)
	h.tagSvc = NewTagService(h.tx, h.tags, h.tickets, h.history, logger)
	h.historySvc = NewTicketHistoryService(h.history, h.tickets, logger)
	h.dispatcher = NewOutboxDispatcher(h.tx, h.outbox, h.notifications, h.bus, config.DispatcherConfig{
		PollInterval: time.Second,
		BatchSize:    50,
		MaxAttempts:  3,
		RetryBackoff: time.Minute,
	}, logger)
	h.dispatcher.now = func() time.Time { return db.now }
	return h
}

// dispatch обрабатывает весь накопившийся outbox.
func (h *harness) dispatch(t *testing.T) int {
	t.Helper()
	n, err := h.dispatcher.ProcessBatch(context.Background())
	require.NoError(t, err)
	h.bus.Wait()
	return n
}

func (h *harness) notificationsFor(p *entities.Profile) []entities.Notification {
	h.db.mu.Lock()
	defer h.db.mu.Unlock()
	var out []entities.Notification
	for _, n := range h.db.notifications {
		if n.UserID == p.ID {
			out = append(out, n)
		}
	}
	return out
}
