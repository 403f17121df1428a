package auth

import (
	"context"

	"github.com/phu-boop/ev-dealer-platform/internal/model"
)

type UserContext struct {
	UserID   string
	Role     string
	DealerID string
}

type userKey struct{}

func WithUser(ctx context.Context, u UserContext) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

func UserFrom(ctx context.Context) (UserContext, bool) {
	u, ok := ctx.Value(userKey{}).(UserContext)
	return u, ok
}

// GetDealerID returns the dealer of the signed-in user, "" for staff.
func GetDealerID(ctx context.Context) string {
	if u, ok := UserFrom(ctx); ok {
		return u.DealerID
	}
	return ""
}

// ActorFrom derives the actor from the user's role. Unknown roles are
// treated as staff.
func ActorFrom(ctx context.Context) model.Actor {
	u, ok := UserFrom(ctx)
	if !ok {
		return model.ActorStaff
	}
	if a, err := model.ParseActor(u.Role); err == nil {
		return a
	}
	return model.ActorStaff
}
