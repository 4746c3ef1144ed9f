package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/isdelr/eventhub-be/internal/models"
	"github.com/isdelr/eventhub-be/internal/store"
)

const userColumns = "id, name, email, password_hash, is_guest, created_at"

// scanUser is a helper to scan a user from a row or rows object.
func scanUser(scanner interface{ Scan(...interface{}) error }) (models.User, error) {
	var user models.User
	var passwordHash sql.NullString
	var createdMS int64
	err := scanner.Scan(&user.ID, &user.Name, &user.Email, &passwordHash, &user.IsGuest, &createdMS)
	if err != nil {
		return models.User{}, err
	}
	user.PasswordHash = passwordHash.String
	user.CreatedAt = fromMillis(createdMS)
	return user, nil
}

// CreateUser inserts a new user. A duplicate email yields store.ErrConflict.
func (s *Store) CreateUser(ctx context.Context, user models.User) error {
	var passwordHash sql.NullString
	if user.PasswordHash != "" {
		passwordHash = sql.NullString{String: user.PasswordHash, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users(id, name, email, password_hash, is_guest, created_at) VALUES(?, ?, ?, ?, ?, ?)",
		user.ID, user.Name, user.Email, passwordHash, user.IsGuest, toMillis(user.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("email %s already registered: %w", user.Email, store.ErrConflict)
		}
		return err
	}
	return nil
}

// GetUserByID retrieves a single user by their ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, fmt.Errorf("user with ID %s: %w", id, store.ErrNotFound)
		}
		return models.User{}, err
	}
	return user, nil
}

// GetUserByEmail retrieves a single user by their email, including the password hash.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, fmt.Errorf("user with email %s: %w", email, store.ErrNotFound)
		}
		return models.User{}, err
	}
	return user, nil
}

// ListGuestsCreatedBefore returns guest accounts older than the given instant.
func (s *Store) ListGuestsCreatedBefore(ctx context.Context, before time.Time) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE is_guest = 1 AND created_at < ? ORDER BY created_at", toMillis(before))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// DeleteUser removes a user; their attendance rows go with them.
func (s *Store) DeleteUser(ctx context.Context, id string) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, "SELECT event_id FROM event_attendees WHERE user_id = ? ORDER BY rowid", id)
	if err != nil {
		return nil, err
	}
	var eventIDs []string
	for rows.Next() {
		var eventID string
		if err := rows.Scan(&eventID); err != nil {
			rows.Close()
			return nil, err
		}
		eventIDs = append(eventIDs, eventID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("user with ID %s: %w", id, store.ErrNotFound)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return eventIDs, nil
}

// CountUsers returns the number of user accounts.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}
