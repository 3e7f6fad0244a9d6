// Package credits is the per-user credit balance that gates board solving.
//
// Every solve costs exactly one credit. New accounts start with a small
// balance; signing up with another user's referral code adds a bonus for
// both sides. Operators top up balances with Grant.
package credits

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	ErrInsufficientCredits = errors.New("credits: insufficient credits")
	ErrNotFound            = errors.New("credits: account not found")
	ErrUnknownReferral     = errors.New("credits: unknown referral code")
	ErrInvalidAmount       = errors.New("credits: amount must be positive")
)

// Event reasons recorded in credit_events.
const (
	ReasonSignup   = "signup"
	ReasonReferral = "referral"
	ReasonSolve    = "solve"
	ReasonGrant    = "grant"
	ReasonRefund   = "refund"
)

// Policy sets the signup balance and the referral bonus.
type Policy struct {
	Starting      int
	ReferralBonus int
}

// DefaultPolicy: one free solve, two more for both sides of a referral.
var DefaultPolicy = Policy{Starting: 1, ReferralBonus: 2}

// Balance is a user's current credit state.
type Balance struct {
	Tokens     int `json:"tokens"`
	TokensUsed int `json:"tokensUsed"`
}

// Event is one credit_events row.
type Event struct {
	Delta     int    `json:"delta"`
	Reason    string `json:"reason"`
	CreatedAt string `json:"createdAt"`
}

// Ledger reads and writes balances in the users table.
type Ledger struct {
	db     *sql.DB
	policy Policy
}

// NewLedger returns a Ledger over db.
func NewLedger(db *sql.DB, p Policy) *Ledger { return &Ledger{db: db, policy: p} }

// DB exposes the underlying handle so callers can share a transaction with OpenAccount.
func (l *Ledger) DB() *sql.DB { return l.db }

// Balance returns the user's tokens and lifetime usage.
func (l *Ledger) Balance(ctx context.Context, userID string) (Balance, error) {
	var b Balance
	err := l.db.QueryRowContext(ctx,
		`SELECT tokens, tokens_used FROM users WHERE id=?`, userID,
	).Scan(&b.Tokens, &b.TokensUsed)
	if errors.Is(err, sql.ErrNoRows) {
		return Balance{}, ErrNotFound
	}
	return b, err
}

// Consume takes exactly one credit. The check and the decrement are a single
// statement, so concurrent solves can never drive the balance below zero.
func (l *Ledger) Consume(ctx context.Context, userID string) (Balance, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return Balance{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
        UPDATE users SET tokens = tokens - 1, tokens_used = tokens_used + 1, updated_at = ?
        WHERE id = ? AND tokens > 0`, now(), userID)
	if err != nil {
		return Balance{}, fmt.Errorf("consume: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Balance{}, fmt.Errorf("consume: %w", err)
	}
	if n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id=?`, userID).Scan(&exists)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return Balance{}, ErrNotFound
		case err != nil:
			return Balance{}, fmt.Errorf("consume: lookup user: %w", err)
		}
		return Balance{}, ErrInsufficientCredits
	}
	if err := recordEvent(ctx, tx, userID, -1, ReasonSolve); err != nil {
		return Balance{}, err
	}

	var b Balance
	if err := tx.QueryRowContext(ctx,
		`SELECT tokens, tokens_used FROM users WHERE id=?`, userID,
	).Scan(&b.Tokens, &b.TokensUsed); err != nil {
		return Balance{}, err
	}
	if err := tx.Commit(); err != nil {
		return Balance{}, err
	}
	return b, nil
}

// Refund gives back the credit taken by Consume when the solve it paid for
// could not be delivered.
func (l *Ledger) Refund(ctx context.Context, userID string) (Balance, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return Balance{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := addTokens(ctx, tx, userID, 1, ReasonRefund); err != nil {
		return Balance{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET tokens_used = MAX(tokens_used - 1, 0) WHERE id = ?`, userID); err != nil {
		return Balance{}, fmt.Errorf("refund: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Balance{}, err
	}
	log.Info().Str("user", userID).Msg("credit refunded")
	return l.Balance(ctx, userID)
}

// Grant adds amount credits to the user.
func (l *Ledger) Grant(ctx context.Context, userID string, amount int) (Balance, error) {
	if amount <= 0 {
		return Balance{}, ErrInvalidAmount
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return Balance{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := addTokens(ctx, tx, userID, amount, ReasonGrant); err != nil {
		return Balance{}, err
	}
	if err := tx.Commit(); err != nil {
		return Balance{}, err
	}
	log.Info().Str("user", userID).Int("amount", amount).Msg("credits granted")
	return l.Balance(ctx, userID)
}

// OpenAccount sets the starting balance of a freshly inserted user inside the
// caller's transaction. A non-empty referral code must belong to another
// user; its owner receives the referral bonus as well.
// It returns the new user's starting balance.
func (l *Ledger) OpenAccount(ctx context.Context, tx *sql.Tx, userID, referral string) (int, error) {
	if err := addTokens(ctx, tx, userID, l.policy.Starting, ReasonSignup); err != nil {
		return 0, err
	}
	start := l.policy.Starting
	if referral == "" {
		return start, nil
	}

	var referrer string
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM users WHERE referral_code=? AND id<>?`, referral, userID,
	).Scan(&referrer)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUnknownReferral
	}
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET used_referral_code=? WHERE id=?`, referral, userID); err != nil {
		return 0, err
	}
	if err := addTokens(ctx, tx, userID, l.policy.ReferralBonus, ReasonReferral); err != nil {
		return 0, err
	}
	if err := addTokens(ctx, tx, referrer, l.policy.ReferralBonus, ReasonReferral); err != nil {
		return 0, err
	}
	return start + l.policy.ReferralBonus, nil
}

// History returns the user's most recent credit events, newest first.
func (l *Ledger) History(ctx context.Context, userID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx, `
        SELECT delta, reason, created_at FROM credit_events
        WHERE user_id=? ORDER BY id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Event, 0, limit)
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Delta, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func addTokens(ctx context.Context, tx *sql.Tx, userID string, amount int, reason string) error {
	if amount == 0 {
		return nil
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE users SET tokens = tokens + ?, updated_at = ? WHERE id = ?`, amount, now(), userID)
	if err != nil {
		return fmt.Errorf("add tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("add tokens: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return recordEvent(ctx, tx, userID, amount, reason)
}

func recordEvent(ctx context.Context, tx *sql.Tx, userID string, delta int, reason string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO credit_events (user_id, delta, reason, created_at) VALUES (?,?,?,?)`,
		userID, delta, reason, now())
	return err
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

const referralAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ReferralCodeLength is the length of generated referral codes.
const ReferralCodeLength = 6

// NewReferralCode returns a random code of ReferralCodeLength characters from A-Z0-9.
func NewReferralCode() string {
	b := make([]byte, ReferralCodeLength)
	max := big.NewInt(int64(len(referralAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		b[i] = referralAlphabet[n.Int64()]
	}
	return string(b)
}
