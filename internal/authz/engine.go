package authz

import (
	"strings"

	"github.com/google/uuid"

	"antares-helpdesk/internal/entities"
)

// Actor - аутентифицированный субъект запроса.
type Actor struct {
	UserID             uuid.UUID
	Email              string
	FullName           string
	Role               entities.Role
	AssignedCategoryID *uint64
	Permissions        map[string]bool
}

func NewActor(p *entities.Profile) *Actor {
	return &Actor{
		UserID:             p.ID,
		Email:              p.Email,
		FullName:           p.DisplayName(),
		Role:               p.Role,
		AssignedCategoryID: p.AssignedCategoryID,
		Permissions:        PermissionsFor(p.Role),
	}
}

func (a *Actor) IsStaff() bool { return a != nil && a.Role.IsStaff() }

type Context struct {
	Actor             *Actor
	Target            interface{}
	CurrentPermission string
}

func (c *Context) HasPermission(permission string) bool {
	if c.Actor == nil || c.Actor.Permissions == nil {
		return false
	}
	return c.Actor.Permissions[permission]
}

func getAction(permission string) string {
	parts := strings.Split(permission, ":")
	return parts[len(parts)-1]
}

func isReadAction(permission string) bool {
	switch getAction(permission) {
	case "view", "create", "export":
		return true
	}
	return false
}

// canAccessTicket - тикет и все его подресурсы (сообщения, вложения, история, теги)
func canAccessTicket(ctx Context, target *entities.Ticket) bool {
	actor := ctx.Actor

	// Отзыв оставляет только автор тикета, даже если он сотрудник
	if ctx.CurrentPermission == FeedbackCreate {
		return target.IsOwnedBy(actor.UserID)
	}

	if ctx.HasPermission(ScopeAll) {
		return true
	}

	// Владелец только читает и дописывает: сообщения, вложения, экспорт
	if ctx.HasPermission(ScopeOwn) && isReadAction(ctx.CurrentPermission) {
		return target.IsOwnedBy(actor.UserID)
	}
	return false
}

func canAccessNotification(ctx Context, target *entities.Notification) bool {
	return target.UserID == ctx.Actor.UserID
}

// canAccessProfile - свой профиль видит каждый, чужие только сотрудники
func canAccessProfile(ctx Context, target *entities.Profile) bool {
	if ctx.CurrentPermission == UsersRoleUpdate {
		return true
	}
	if target.ID == ctx.Actor.UserID {
		return true
	}
	return ctx.HasPermission(ScopeAll)
}

func canAccessFeedback(ctx Context, target *entities.TicketFeedback) bool {
	if ctx.CurrentPermission != FeedbackCreate && ctx.HasPermission(ScopeAll) {
		return true
	}
	return target.UserID == ctx.Actor.UserID
}

// CanDo - единая точка проверки: сначала RBAC по роли, затем ABAC по цели.
func CanDo(permission string, ctx Context) bool {
	if ctx.Actor == nil {
		return false
	}
	ctx.CurrentPermission = permission

	// Есть ли право вообще (RBAC). Свои профиль и уведомления доступны без отдельного права.
	if !ctx.HasPermission(permission) {
		switch t := ctx.Target.(type) {
		case *entities.Profile:
			return permission == UsersView && t.ID == ctx.Actor.UserID
		default:
			return false
		}
	}

	// Без цели - разрешено (например создание)
	if ctx.Target == nil {
		return true
	}

	switch target := ctx.Target.(type) {
	case *entities.Ticket:
		return canAccessTicket(ctx, target)
	case *entities.TicketDetails:
		return canAccessTicket(ctx, &target.Ticket)
	case *entities.Notification:
		return canAccessNotification(ctx, target)
	case *entities.Profile:
		return canAccessProfile(ctx, target)
	case *entities.TicketFeedback:
		return canAccessFeedback(ctx, target)
	}

	return false
}

// CanRead - может ли субъект видеть сущность.
func CanRead(actor *Actor, entity interface{}) bool {
	return CanDo(readPermission(entity), Context{Actor: actor, Target: entity})
}

// CanWrite - может ли субъект изменять сущность.
func CanWrite(actor *Actor, entity interface{}) bool {
	return CanDo(writePermission(entity), Context{Actor: actor, Target: entity})
}

func readPermission(entity interface{}) string {
	switch entity.(type) {
	case *entities.Notification:
		return NotificationsView
	case *entities.Profile:
		return UsersView
	case *entities.TicketFeedback:
		return FeedbackView
	}
	return TicketsView
}

func writePermission(entity interface{}) string {
	switch entity.(type) {
	case *entities.Notification:
		return NotificationsView
	case *entities.Profile:
		return UsersRoleUpdate
	case *entities.TicketFeedback:
		return FeedbackCreate
	}
	return TicketsUpdate
}
