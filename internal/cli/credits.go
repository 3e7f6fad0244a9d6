package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/robalobadob/bogglefinder/internal/auth"
)

var creditsCmd = &cobra.Command{
	Use:   "credits",
	Short: "Inspect and top up user credits",
}

var creditsGrantCmd = &cobra.Command{
	Use:   "grant USERNAME AMOUNT",
	Short: "Add credits to a user",
	Args:  cobra.ExactArgs(2),
	RunE:  runCreditsGrant,
}

var creditsShowCmd = &cobra.Command{
	Use:   "show USERNAME",
	Short: "Show a user's balance and recent credit events",
	Args:  cobra.ExactArgs(1),
	RunE:  runCreditsShow,
}

func init() {
	creditsCmd.AddCommand(creditsGrantCmd)
	creditsCmd.AddCommand(creditsShowCmd)
}

func runCreditsGrant(cmd *cobra.Command, args []string) error {
	amount, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("amount %q: %w", args[1], err)
	}

	acc, err := openAccounts(cmd.Context())
	if err != nil {
		return err
	}
	defer acc.Close()

	u, err := findUser(cmd, acc, args[0])
	if err != nil {
		return err
	}
	b, err := acc.ledger.Grant(cmd.Context(), u.ID, amount)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d credits (%d used)\n", u.Username, b.Tokens, b.TokensUsed)
	return nil
}

func runCreditsShow(cmd *cobra.Command, args []string) error {
	acc, err := openAccounts(cmd.Context())
	if err != nil {
		return err
	}
	defer acc.Close()

	u, err := findUser(cmd, acc, args[0])
	if err != nil {
		return err
	}
	b, err := acc.ledger.Balance(cmd.Context(), u.ID)
	if err != nil {
		return err
	}
	events, err := acc.ledger.History(cmd.Context(), u.ID, 20)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (referral code %s): %d credits (%d used)\n", u.Username, u.ReferralCode, b.Tokens, b.TokensUsed)
	for _, e := range events {
		fmt.Fprintf(out, "  %s  %+d  %s\n", e.CreatedAt, e.Delta, e.Reason)
	}
	return nil
}

func findUser(cmd *cobra.Command, acc *accounts, username string) (*auth.User, error) {
	u, err := acc.users.FindByUsername(cmd.Context(), username)
	if errors.Is(err, auth.ErrUserNotFound) {
		return nil, fmt.Errorf("no user named %q", username)
	}
	return u, err
}
