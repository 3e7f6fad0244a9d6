package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/robalobadob/bogglefinder/internal/auth"
	"github.com/robalobadob/bogglefinder/internal/credits"
	"github.com/robalobadob/bogglefinder/internal/database"
)

// accounts is the database-backed part of the app.
type accounts struct {
	db     *sql.DB
	ledger *credits.Ledger
	users  *auth.Users
}

func openAccounts(ctx context.Context) (*accounts, error) {
	db, err := database.OpenAndMigrate(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.DBPath, err)
	}
	ledger := credits.NewLedger(db, credits.Policy{
		Starting:      cfg.StartingCredits,
		ReferralBonus: cfg.ReferralBonus,
	})
	return &accounts{db: db, ledger: ledger, users: auth.NewUsers(db, ledger)}, nil
}

func (a *accounts) Close() error { return a.db.Close() }
