package user

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Store defines the interface for user data operations.
type Store interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]User, error)
	CountUsers(ctx context.Context) (int, error)
	SetAvatar(ctx context.Context, id int64, path string) error
	Subscribe(ctx context.Context, userID, authorID int64) error
	Unsubscribe(ctx context.Context, userID, authorID int64) error
	IsSubscribed(ctx context.Context, userID, authorID int64) (bool, error)
	Subscriptions(ctx context.Context, userID int64) ([]User, error)
}

// PostgresStore implements Store for PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates the store and its tables. Construct this before
// the recipe store: recipes reference users.
func NewPostgresStore(db *sqlx.DB) (*PostgresStore, error) {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		username TEXT NOT NULL UNIQUE,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		avatar_path TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS subscriptions (
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		author_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		PRIMARY KEY (user_id, author_id),
		CHECK (user_id <> author_id)
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create user tables: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

const userColumns = "id, email, username, first_name, last_name, password_hash, avatar_path"

// CreateUser inserts an account. On success u.ID is filled in.
func (s *PostgresStore) CreateUser(ctx context.Context, u *User) error {
	err := s.db.QueryRowContext(ctx,
		"INSERT INTO users (email, username, first_name, last_name, password_hash) VALUES ($1, $2, $3, $4, $5) RETURNING id",
		u.Email, u.Username, u.FirstName, u.LastName, u.PasswordHash,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser returns a user by id, or nil when it does not exist.
func (s *PostgresStore) GetUser(ctx context.Context, id int64) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// GetUserByEmail returns a user by email, or nil when it does not exist.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, "SELECT "+userColumns+" FROM users WHERE email = $1", email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

// ListUsers returns users ordered by id.
func (s *PostgresStore) ListUsers(ctx context.Context, limit, offset int) ([]User, error) {
	query := "SELECT " + userColumns + " FROM users ORDER BY id"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}
	var users []User
	if err := s.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// CountUsers returns the total number of accounts.
func (s *PostgresStore) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT count(*) FROM users"); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// SetAvatar stores the avatar path; an empty path clears it.
func (s *PostgresStore) SetAvatar(ctx context.Context, id int64, path string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET avatar_path = $2 WHERE id = $1", id, path)
	if err != nil {
		return fmt.Errorf("failed to set avatar: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Subscribe adds a follow edge from user to author.
func (s *PostgresStore) Subscribe(ctx context.Context, userID, authorID int64) error {
	if userID == authorID {
		return ErrSelfSubscription
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO subscriptions (user_id, author_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		userID, authorID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAlreadySubscribed
	}
	return nil
}

// Unsubscribe removes a follow edge.
func (s *PostgresStore) Unsubscribe(ctx context.Context, userID, authorID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM subscriptions WHERE user_id = $1 AND author_id = $2", userID, authorID)
	if err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotSubscribed
	}
	return nil
}

// IsSubscribed reports whether user follows author.
func (s *PostgresStore) IsSubscribed(ctx context.Context, userID, authorID int64) (bool, error) {
	var subscribed bool
	err := s.db.GetContext(ctx, &subscribed,
		"SELECT EXISTS(SELECT 1 FROM subscriptions WHERE user_id = $1 AND author_id = $2)", userID, authorID)
	if err != nil {
		return false, fmt.Errorf("failed to check subscription: %w", err)
	}
	return subscribed, nil
}

// Subscriptions returns the authors a user follows, ordered by id.
func (s *PostgresStore) Subscriptions(ctx context.Context, userID int64) ([]User, error) {
	var authors []User
	err := s.db.SelectContext(ctx, &authors,
		"SELECT u.id, u.email, u.username, u.first_name, u.last_name, u.password_hash, u.avatar_path FROM users u JOIN subscriptions s ON s.author_id = u.id WHERE s.user_id = $1 ORDER BY u.id",
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return authors, nil
}

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23503"
	}
	return false
}
