package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for registry operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// UpsertUser inserts the user or replaces its display name and group.
	UpsertUser(ctx context.Context, user *User) error

	// GetUserGroup returns the user's group identifier, or "" if the user is unknown.
	GetUserGroup(ctx context.Context, userID int64) (string, error)

	// GetUsersByGroup returns every user registered under groupID.
	GetUsersByGroup(ctx context.Context, groupID string) ([]User, error)

	// CountUsers returns the number of registered users.
	CountUsers(ctx context.Context) (int, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// UpsertUser inserts or replaces a registry entry in a single statement.
func (s *sqlxStore) UpsertUser(ctx context.Context, user *User) error {
	if user == nil {
		return fmt.Errorf("cannot save nil user")
	}
	if user.UserID == 0 {
		return fmt.Errorf("user must have a non-zero user_id")
	}
	if user.GroupID == "" {
		return fmt.Errorf("user must have a non-empty group_id")
	}

	now := time.Now().UTC()
	user.UpdatedAt = now
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}

	query := `
        INSERT INTO users (user_id, display_name, group_id, created_at, updated_at)
        VALUES (:user_id, :display_name, :group_id, :created_at, :updated_at)
        ON CONFLICT (user_id) DO UPDATE SET
            display_name = excluded.display_name,
            group_id     = excluded.group_id,
            updated_at   = excluded.updated_at;
    `

	result, err := s.db.NamedExecContext(ctx, query, user)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving user", "user_id", user.UserID, "group_id", user.GroupID, "error", err)
		return fmt.Errorf("failed to save user %d: %w", user.UserID, err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected != 1 {
		s.logger.WarnContext(ctx, "Unexpected number of rows affected when saving user",
			"user_id", user.UserID, "affected", affected)
	}

	s.logger.DebugContext(ctx, "User saved successfully", "user_id", user.UserID, "group_id", user.GroupID)
	return nil
}

// GetUserGroup retrieves only the group column for a user.
func (s *sqlxStore) GetUserGroup(ctx context.Context, userID int64) (string, error) {
	if userID == 0 {
		return "", fmt.Errorf("user_id cannot be zero")
	}

	var groupID string
	err := s.db.GetContext(ctx, &groupID, `SELECT group_id FROM users WHERE user_id = ?`, userID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", nil

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching user group", "user_id", userID, "error", err)
		return "", err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting user group", "user_id", userID, "error", err)
		return "", fmt.Errorf("failed to get group for user %d: %w", userID, err)
	}

	return groupID, nil
}

// GetUsersByGroup lists group members ordered by user ID.
func (s *sqlxStore) GetUsersByGroup(ctx context.Context, groupID string) ([]User, error) {
	if groupID == "" {
		return nil, fmt.Errorf("group_id cannot be empty")
	}

	var users []User
	query := `
        SELECT user_id, display_name, group_id, created_at, updated_at
        FROM users
        WHERE group_id = ?
        ORDER BY user_id;
    `

	if err := s.db.SelectContext(ctx, &users, query, groupID); err != nil {
		s.logger.ErrorContext(ctx, "Error listing group members", "group_id", groupID, "error", err)
		return nil, fmt.Errorf("failed to list members of group %s: %w", groupID, err)
	}

	s.logger.DebugContext(ctx, "Listed group members", "group_id", groupID, "count", len(users))
	return users, nil
}

// CountUsers returns the number of rows in the registry.
func (s *sqlxStore) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}
