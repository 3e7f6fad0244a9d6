// internal/auth/users.go
//
// User accounts: signup validation, bcrypt password hashing, lookups.
// Account creation and the starting credit balance are written in one
// transaction so a user never exists without an opened credit account.

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/bogglefinder/internal/credits"
)

var (
	ErrUsernameTaken      = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
)

// ValidationError is returned for signup input that breaks the username or password rules.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// User matches the users table shape.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	ReferralCode string    `json:"referralCode"`
}

// Users is the account store.
type Users struct {
	db     *sql.DB
	ledger *credits.Ledger
}

// NewUsers returns a Users store. The ledger opens each new account's balance.
func NewUsers(db *sql.DB, ledger *credits.Ledger) *Users {
	return &Users{db: db, ledger: ledger}
}

// Create validates input, hashes the password and inserts the user together
// with their starting credits. referral may be empty.
func (u *Users) Create(ctx context.Context, username, password, referral string) (*User, error) {
	username = normalizeUsername(username)
	if err := validateSignup(username, password); err != nil {
		return nil, err
	}
	referral = strings.ToUpper(strings.TrimSpace(referral))

	h, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: h,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}

	// Referral codes are random; retry the rare collision with a fresh one.
	for attempt := 0; attempt < 3; attempt++ {
		user.ReferralCode = credits.NewReferralCode()
		err = u.insert(ctx, user, referral)
		if !isUniqueViolation(err, "users.referral_code") {
			break
		}
	}
	if err != nil {
		if isUniqueViolation(err, "users.username") {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return user, nil
}

func (u *Users) insert(ctx context.Context, user *User, referral string) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at, referral_code) VALUES (?,?,?,?,?)`,
		user.ID, user.Username, user.PasswordHash, user.CreatedAt.Format(time.RFC3339), user.ReferralCode,
	); err != nil {
		return err
	}
	if _, err := u.ledger.OpenAccount(ctx, tx, user.ID, referral); err != nil {
		return err
	}
	return tx.Commit()
}

// Authenticate returns the user if the password matches.
func (u *Users) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := u.FindByUsername(ctx, normalizeUsername(username))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !checkPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// FindByUsername loads a user by case-insensitive username.
func (u *Users) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := u.db.QueryRowContext(ctx, `SELECT id, username, password_hash, created_at, referral_code
	                                  FROM users WHERE lower(username)=lower(?)`, username)
	return scanUser(row)
}

// FindByID loads a user by id.
func (u *Users) FindByID(ctx context.Context, id string) (*User, error) {
	row := u.db.QueryRowContext(ctx, `SELECT id, username, password_hash, created_at, referral_code
	                                  FROM users WHERE id=?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var created string
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created, &u.ReferralCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &u, nil
}

func isUniqueViolation(err error, column string) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique && strings.Contains(se.Error(), column)
}

// normalizeUsername trims whitespace.
func normalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

// validateSignup enforces basic username/password rules.
func validateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return &ValidationError{"username must be 3-24 chars"}
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return &ValidationError{"username: letters, numbers, underscore only"}
		}
	}
	if len(p) < 8 || len(p) > 100 {
		return &ValidationError{"password must be 8-100 chars"}
	}
	return nil
}

func hashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func checkPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
