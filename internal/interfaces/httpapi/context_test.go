package httpapi

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/gym-league/internal/domain/user"
	"github.com/riskibarqy/gym-league/internal/usecase"
)

func TestRequireCaller(t *testing.T) {
	if _, err := requireCaller(context.Background()); !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized without a caller, got %v", err)
	}
	if _, err := requireCaller(withCaller(context.Background(), user.Principal{})); !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for an anonymous caller, got %v", err)
	}

	ctx := withCaller(context.Background(), user.Principal{UserID: "staff-1", OrganizationIDs: []string{"gym-1"}})
	caller, err := requireCaller(ctx)
	if err != nil {
		t.Fatalf("require caller: %v", err)
	}
	if caller.UserID != "staff-1" || !caller.IsStaffOf("gym-1") {
		t.Fatalf("unexpected caller: %+v", caller)
	}
}
