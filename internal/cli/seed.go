package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hookpipe/hookpipe/internal/models"
	"github.com/hookpipe/hookpipe/internal/repository"
	"github.com/hookpipe/hookpipe/pkg/output"
)

var (
	seedDatabaseURL  string
	seedAccounts     int
	seedDestinations int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed accounts and destinations",
	Long:  "Generate fake accounts with webhook destinations directly in the database",
	Example: `  # One account with two destinations
  hpctl seed

  # Ten accounts with three destinations each
  hpctl seed --accounts 10 --destinations 3`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedDatabaseURL, "database-url", "", "postgres connection string (default: profile database_url)")
	seedCmd.Flags().IntVar(&seedAccounts, "accounts", 1, "number of accounts to create")
	seedCmd.Flags().IntVar(&seedDestinations, "destinations", 2, "number of destinations per account")

	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	databaseURL := seedDatabaseURL
	if databaseURL == "" {
		profile, err := currentProfile()
		if err != nil {
			return err
		}
		databaseURL = profile.DatabaseURL
	}
	if databaseURL == "" {
		return fmt.Errorf("database URL is required (use --database-url or 'hpctl config set --database-url')")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	repo, err := repository.NewPostgresRepository(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer repo.Close()

	table := output.NewTable([]string{"ACCOUNT", "TOKEN", "DESTINATIONS"})

	for i := 0; i < seedAccounts; i++ {
		now := time.Now()
		account := &models.Account{
			ID:          uuid.New().String(),
			Name:        gofakeit.Company(),
			Website:     "https://" + gofakeit.DomainName(),
			SecretToken: newSecretToken(),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := repo.CreateAccount(ctx, account); err != nil {
			return fmt.Errorf("create account %q: %w", account.Name, err)
		}

		urls := make([]string, 0, seedDestinations)
		for j := 0; j < seedDestinations; j++ {
			dest := &models.Destination{
				ID:         uuid.New().String(),
				AccountID:  account.ID,
				URL:        gofakeit.URL(),
				HTTPMethod: "POST",
				Headers: map[string]string{
					"content-type": "application/json",
				},
				CreatedAt: now,
			}
			if err := repo.CreateDestination(ctx, dest); err != nil {
				return fmt.Errorf("create destination for %q: %w", account.Name, err)
			}
			urls = append(urls, dest.URL)
		}

		table.AddRow([]string{account.Name, account.SecretToken, strings.Join(urls, ", ")})
	}

	table.Render()
	output.Success("Created %d accounts with %d destinations each", seedAccounts, seedDestinations)
	return nil
}

func newSecretToken() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
