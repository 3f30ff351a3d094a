package authz

import (
	"sort"

	"antares-helpdesk/internal/entities"
)

// --- СПИСОК ВСЕХ ПЕРМИШЕНОВ В СИСТЕМЕ ---

const (
	// Тикеты
	TicketsCreate = "tickets:create"
	TicketsView   = "tickets:view"
	TicketsUpdate = "tickets:update"
	TicketsDelete = "tickets:delete"
	TicketsExport = "tickets:export"

	// Подресурсы тикета
	MessagesCreate    = "messages:create"
	MessagesDelete    = "messages:delete"
	AttachmentsCreate = "attachments:create"
	AttachmentsDelete = "attachments:delete"
	TicketTagsManage  = "ticket_tags:manage"
	HistoryView       = "history:view"

	// Отзывы
	FeedbackCreate = "feedback:create"
	FeedbackView   = "feedback:view"
	FeedbackList   = "feedback:list"
	FeedbackStats  = "feedback:stats"

	// Справочники
	CategoriesView   = "categories:view"
	CategoriesManage = "categories:manage"
	TagsView         = "tags:view"
	TagsManage       = "tags:manage"
	UserTagsView     = "user_tags:view"
	UserTagsManage   = "user_tags:manage"

	// Пользователи
	UsersView       = "users:view"
	UsersRoleUpdate = "users:role:update"

	// Уведомления
	NotificationsView = "notifications:view"
	NotificationsSend = "notifications:send"

	// Модификаторы области (Scopes)
	ScopeOwn = "scope:own"
	ScopeAll = "scope:all"
)

var ownerPermissions = []string{
	TicketsCreate, TicketsView, TicketsExport,
	MessagesCreate, AttachmentsCreate, HistoryView,
	FeedbackCreate, FeedbackView, CategoriesView, TagsView, NotificationsView,
	ScopeOwn,
}

var staffPermissions = []string{
	TicketsCreate, TicketsView, TicketsUpdate, TicketsExport,
	MessagesCreate, MessagesDelete, AttachmentsCreate, AttachmentsDelete,
	TicketTagsManage, HistoryView,
	FeedbackCreate, FeedbackView, FeedbackList, FeedbackStats,
	CategoriesView, TagsView, TagsManage, UserTagsView,
	UsersView, NotificationsView,
	ScopeOwn, ScopeAll,
}

var adminOnlyPermissions = []string{
	TicketsDelete, CategoriesManage, UserTagsManage, UsersRoleUpdate, NotificationsSend,
}

var rolePermissions = map[entities.Role]map[string]bool{
	entities.RoleCustomer:  toSet(ownerPermissions),
	entities.RoleEmployee:  toSet(ownerPermissions),
	entities.RoleAssistant: toSet(staffPermissions),
	entities.RoleAdmin:     toSet(append(append([]string{}, staffPermissions...), adminOnlyPermissions...)),
}

// PermissionsFor возвращает набор прав роли. Неизвестная роль прав не имеет.
func PermissionsFor(role entities.Role) map[string]bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return map[string]bool{}
	}
	return perms
}

// PermissionList - права роли отсортированным списком, для ответа клиенту.
func PermissionList(role entities.Role) []string {
	perms := PermissionsFor(role)
	out := make([]string, 0, len(perms))
	for p := range perms {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func toSet(list []string) map[string]bool {
	out := make(map[string]bool, len(list))
	for _, p := range list {
		out[p] = true
	}
	return out
}
