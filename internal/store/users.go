package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/promoraffle/promoraffle/internal/db"
	"github.com/promoraffle/promoraffle/internal/model"
)

const userColumns = `id, username, password_hash, role, created_at, deleted_at`

func scanUser(s scanner) (*model.User, error) {
	u := &model.User{}
	if err := s.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.DeletedAt); err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser creates a back-office account. The password must already be hashed.
func CreateUser(ctx context.Context, database *sql.DB, username, passwordHash, role string) (*model.User, error) {
	if !model.ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", model.ErrValidation, role)
	}

	result, err := database.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)`,
		username, passwordHash, role,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("user %s: %w", username, model.ErrExists)
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}
	return GetUser(ctx, database, id)
}

// GetUser returns a user by ID, deleted or not.
func GetUser(ctx context.Context, database *sql.DB, id int64) (*model.User, error) {
	u, err := scanUser(database.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetActiveUserByUsername returns the live account with that username.
func GetActiveUserByUsername(ctx context.Context, database *sql.DB, username string) (*model.User, error) {
	u, err := scanUser(database.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? AND deleted_at IS NULL`, username,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	return u, nil
}

// ListUsers returns all live accounts.
func ListUsers(ctx context.Context, database *sql.DB) ([]model.User, error) {
	rows, err := database.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE deleted_at IS NULL ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// CountAdmins returns the number of live admin accounts.
func CountAdmins(ctx context.Context, database *sql.DB) (int, error) {
	var n int
	err := database.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role = ? AND deleted_at IS NULL`, model.RoleAdmin,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting admins: %w", err)
	}
	return n, nil
}

// UpdateUserRole changes the role of a live account.
func UpdateUserRole(ctx context.Context, database *sql.DB, id int64, role string) error {
	if !model.ValidRole(role) {
		return fmt.Errorf("%w: unknown role %q", model.ErrValidation, role)
	}
	return execOne(ctx, database, "updating user role",
		`UPDATE users SET role = ? WHERE id = ? AND deleted_at IS NULL`, role, id)
}

// UpdateUserPassword replaces the password hash of a live account.
func UpdateUserPassword(ctx context.Context, database *sql.DB, id int64, passwordHash string) error {
	return execOne(ctx, database, "updating user password",
		`UPDATE users SET password_hash = ? WHERE id = ? AND deleted_at IS NULL`, passwordHash, id)
}

// DeleteUser soft-deletes an account. The username becomes free again.
func DeleteUser(ctx context.Context, database *sql.DB, id int64) error {
	return execOne(ctx, database, "deleting user",
		`UPDATE users SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`, id)
}

// execOne runs a statement that must touch exactly one row.
func execOne(ctx context.Context, q querier, action, query string, args ...any) error {
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", action, model.ErrNotFound)
	}
	return nil
}
