// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citeref/internal/billing"
)

var creditsCmd = &cobra.Command{
	Use:   "credits <user-id>",
	Short: "Inspect or adjust a user's chat credits",
	Long: `Credits opens the SQLite credit ledger and prints the user's account.
--grant adds credits, --custom-key stores the user's own Gemini key (their
chats are then not metered), and --token prints a bearer token for the user
signed with the configured JWT secret.`,
	Args: cobra.ExactArgs(1),
	RunE: runCredits,
}

func init() {
	creditsCmd.Flags().Int("grant", 0, "add this many credits")
	creditsCmd.Flags().String("custom-key", "", `store the user's own Gemini key ("none" clears it)`)
	creditsCmd.Flags().String("token", "", "print a signed token for this tier (free or pro)")

	rootCmd.AddCommand(creditsCmd)
}

func runCredits(cmd *cobra.Command, args []string) error {
	userID := args[0]
	grant, _ := cmd.Flags().GetInt("grant")
	customKey, _ := cmd.Flags().GetString("custom-key")
	tier, _ := cmd.Flags().GetString("token")
	ctx := cmd.Context()

	ledger, err := billing.OpenLedger(cfg.Auth)
	if err != nil {
		return err
	}
	defer ledger.Close()

	switch tier {
	case "", billing.TierFree, billing.TierPro:
	default:
		return fmt.Errorf("unknown tier %q (want free or pro)", tier)
	}

	_, err = ledger.Account(ctx, userID)
	if errors.Is(err, billing.ErrUnknownUser) || (err == nil && tier != "") {
		_, err = ledger.Ensure(ctx, userID, tier != billing.TierPro)
	}
	if err != nil {
		return err
	}
	if grant > 0 {
		if _, err := ledger.Grant(ctx, userID, grant); err != nil {
			return err
		}
	}
	if customKey != "" {
		if customKey == "none" {
			customKey = ""
		}
		if err := ledger.SetCustomKey(ctx, userID, customKey); err != nil {
			return err
		}
	}

	acct, err := ledger.Account(ctx, userID)
	if err != nil {
		return err
	}
	tierName := billing.TierPro
	if acct.FreeTier {
		tierName = billing.TierFree
	}
	fmt.Printf("user:       %s\n", acct.UserID)
	fmt.Printf("tier:       %s\n", tierName)
	fmt.Printf("credits:    %d\n", acct.Credits)
	fmt.Printf("custom key: %t\n", acct.CustomKey != "")
	fmt.Printf("created:    %s\n", acct.CreatedAt.Format("2006-01-02"))

	if tier != "" {
		if cfg.Auth.JWTSecret == "" {
			return fmt.Errorf("--token needs auth.jwt_secret or JWT_SECRET")
		}
		tok, err := billing.SignToken(cfg.Auth.JWTSecret, userID, tier)
		if err != nil {
			return fmt.Errorf("signing token: %w", err)
		}
		fmt.Printf("token:      %s\n", tok)
	}
	return nil
}
