package httpapi

import (
	"context"
	"fmt"

	"github.com/riskibarqy/gym-league/internal/domain/user"
	"github.com/riskibarqy/gym-league/internal/usecase"
)

// callerKey carries the caller verified by RequireAuth.
type callerKey struct{}

func withCaller(ctx context.Context, caller user.Principal) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// requireCaller fails with ErrUnauthorized when the route was mounted without RequireAuth.
func requireCaller(ctx context.Context) (user.Principal, error) {
	caller, ok := ctx.Value(callerKey{}).(user.Principal)
	if !ok || caller.UserID == "" {
		return user.Principal{}, fmt.Errorf("%w: no verified caller on request", usecase.ErrUnauthorized)
	}
	return caller, nil
}
