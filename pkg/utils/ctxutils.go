package utils

import (
	"context"

	"github.com/google/uuid"

	"antares-helpdesk/internal/authz"
	"antares-helpdesk/pkg/contextkeys"
	apperrors "antares-helpdesk/pkg/errors"
)

func GetUserIDFromCtx(ctx context.Context) (uuid.UUID, error) {
	userID, ok := ctx.Value(contextkeys.UserIDKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, apperrors.ErrActorNotFoundInContext
	}
	return userID, nil
}

// GetActorFromCtx достаёт субъекта, которого положил AuthMiddleware.
func GetActorFromCtx(ctx context.Context) (*authz.Actor, error) {
	actor, ok := ctx.Value(contextkeys.ActorKey).(*authz.Actor)
	if !ok || actor == nil {
		return nil, apperrors.ErrActorNotFoundInContext
	}
	return actor, nil
}

func WithActor(ctx context.Context, actor *authz.Actor) context.Context {
	ctx = context.WithValue(ctx, contextkeys.UserIDKey, actor.UserID)
	return context.WithValue(ctx, contextkeys.ActorKey, actor)
}
