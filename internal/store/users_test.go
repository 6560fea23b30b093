package store

import (
	"context"
	"errors"
	"testing"

	"github.com/promoraffle/promoraffle/internal/db"
	"github.com/promoraffle/promoraffle/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "clerk", "hash123", model.RoleOperator)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Username != "clerk" || user.Role != model.RoleOperator {
		t.Errorf("unexpected user: %+v", user)
	}

	got, err := GetUser(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Username != "clerk" {
		t.Errorf("expected username 'clerk', got %q", got.Username)
	}
}

func TestCreateUserRejectsDuplicateAndBadRole(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateUser(ctx, database, "alice", "hash", model.RoleViewer); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := CreateUser(ctx, database, "alice", "hash", model.RoleViewer); !errors.Is(err, model.ErrExists) {
		t.Errorf("expected ErrExists, got %v", err)
	}
	if _, err := CreateUser(ctx, database, "bob", "hash", "superuser"); !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestGetActiveUserByUsername(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "alice", "hash", model.RoleAdmin)

	got, err := GetActiveUserByUsername(ctx, database, "alice")
	if err != nil {
		t.Fatalf("GetActiveUserByUsername: %v", err)
	}
	if got == nil || got.ID != user.ID {
		t.Fatalf("expected alice, got %+v", got)
	}

	if err := DeleteUser(ctx, database, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	got, _ = GetActiveUserByUsername(ctx, database, "alice")
	if got != nil {
		t.Error("deleted user must not be returned")
	}

	// The name is free again after a soft delete.
	if _, err := CreateUser(ctx, database, "alice", "hash", model.RoleViewer); err != nil {
		t.Errorf("recreating deleted username: %v", err)
	}
}

func TestListUsersAndCountAdmins(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "a", "hash", model.RoleAdmin)
	CreateUser(ctx, database, "b", "hash", model.RoleViewer)

	users, err := ListUsers(ctx, database)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("expected 2 users, got %d", len(users))
	}

	n, err := CountAdmins(ctx, database)
	if err != nil {
		t.Fatalf("CountAdmins: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 admin, got %d", n)
	}
}

func TestUpdateUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "pwuser", "oldhash", model.RoleViewer)

	if err := UpdateUserPassword(ctx, database, user.ID, "newhash"); err != nil {
		t.Fatalf("UpdateUserPassword: %v", err)
	}
	if err := UpdateUserRole(ctx, database, user.ID, model.RoleOperator); err != nil {
		t.Fatalf("UpdateUserRole: %v", err)
	}

	got, _ := GetUser(ctx, database, user.ID)
	if got.PasswordHash != "newhash" || got.Role != model.RoleOperator {
		t.Errorf("unexpected user after update: %+v", got)
	}

	if err := UpdateUserRole(ctx, database, 999, model.RoleViewer); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
