package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/adlane/eventhub/internal/apperror"
	"github.com/adlane/eventhub/internal/model"
	"github.com/adlane/eventhub/internal/repository"
)

// UserRepo implements repository.UserRepository on the shared pool.
type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

var _ repository.UserRepository = (*UserRepo)(nil)

const userColumns = `id, username, email, password, google_id, avatar, created_at`

// Create inserts a new user and fills in ID and CreatedAt.
//
// Uniqueness conflicts are translated to the repository sentinel errors so
// the service layer can distinguish a retryable username collision from an
// email collision. The translation relies on the UNIQUE constraints in the
// schema; there is deliberately no SELECT-before-INSERT here, because the
// constraint is the only check that holds under concurrent registrations.
func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	user.CreatedAt = time.Now()

	res, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO users (username, email, password, google_id, avatar, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.Username,
		user.Email,
		nullIfEmpty(user.PasswordHash),
		nullIfEmpty(user.GoogleID),
		nullIfEmpty(user.Avatar),
		user.CreatedAt,
	)
	if err != nil {
		if column, ok := uniqueViolation(err); ok {
			switch column {
			case "users.username":
				return fmt.Errorf("sqlite: inserting user: %w", repository.ErrDuplicateUsername)
			case "users.email":
				return fmt.Errorf("sqlite: inserting user: %w", repository.ErrDuplicateEmail)
			}
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	user.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new user id: %w", err)
	}
	return nil
}

// GetByID retrieves a user by internal id.
// Returns apperror.ErrNotFound when no row matches.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getUser(ctx, `WHERE id = ?`, id)
}

// GetByEmail retrieves a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getUser(ctx, `WHERE email = ?`, email)
}

// GetByGoogleID retrieves a user by their linked OAuth identifier.
func (r *UserRepo) GetByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	return r.getUser(ctx, `WHERE google_id = ?`, googleID)
}

func (r *UserRepo) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var (
		u        model.User
		password sql.NullString
		googleID sql.NullString
		avatar   sql.NullString
	)

	err := r.db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users `+where, arg,
	).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&password,
		&googleID,
		&avatar,
		&u.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", fmt.Sprint(arg))
		}
		return nil, fmt.Errorf("sqlite: getting user: %w", err)
	}

	u.PasswordHash = password.String
	u.GoogleID = googleID.String
	u.Avatar = avatar.String
	return &u, nil
}

// AttachGoogleID links an OAuth identifier to an existing account.
// The existing password hash is left untouched.
func (r *UserRepo) AttachGoogleID(ctx context.Context, userID int64, googleID string) error {
	res, err := r.db.conn.ExecContext(ctx,
		`UPDATE users SET google_id = ? WHERE id = ?`,
		googleID, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: attaching google id to user %d: %w", userID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("user", strconv.FormatInt(userID, 10))
	}
	return nil
}

// nullIfEmpty maps "" to SQL NULL so optional columns stay NULL instead of
// storing empty strings (the google_id UNIQUE constraint requires this:
// two empty strings would collide, two NULLs do not).
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
