package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/hookpipe/hookpipe/internal/models"
	"github.com/hookpipe/hookpipe/pkg/output"
)

var (
	logsServerURL string
	logsAccountID string
	logsLimit     int
	logsOffset    int
	logsJSON      bool
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "List delivery records",
	Long:  "Fetch the delivery records created for an account's events",
	Example: `  hpctl logs --account-id ACCOUNT_ID
  hpctl logs --account-id ACCOUNT_ID --limit 20 --json`,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().StringVar(&logsServerURL, "server", "", "hookpipe server URL (default: profile server_url)")
	logsCmd.Flags().StringVar(&logsAccountID, "account-id", "", "account to list records for")
	logsCmd.Flags().IntVar(&logsLimit, "limit", 100, "maximum records to return")
	logsCmd.Flags().IntVar(&logsOffset, "offset", 0, "records to skip")
	logsCmd.Flags().BoolVar(&logsJSON, "json", false, "print raw JSON")

	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	if logsAccountID == "" {
		return fmt.Errorf("--account-id is required")
	}

	profile, err := currentProfile()
	if err != nil {
		return err
	}
	serverURL := logsServerURL
	if serverURL == "" {
		serverURL = profile.ServerURL
	}

	query := url.Values{}
	query.Set("account_id", logsAccountID)
	query.Set("limit", strconv.Itoa(logsLimit))
	query.Set("offset", strconv.Itoa(logsOffset))

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, serverURL+"/logs?"+query.Encode(), nil)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch logs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody models.IngestResponse
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil && errBody.Message != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, errBody.Message)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	var logs []*models.DeliveryLog
	if err := json.NewDecoder(resp.Body).Decode(&logs); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if logsJSON {
		return output.JSON(logs)
	}

	if len(logs) == 0 {
		output.Info("No delivery records for account %s", logsAccountID)
		return nil
	}

	table := output.NewTable([]string{"ID", "EVENT", "DESTINATION", "STATUS", "RECEIVED"})
	for _, rec := range logs {
		table.AddRow([]string{
			rec.ID,
			rec.EventID,
			rec.DestinationID,
			rec.Status,
			rec.ReceivedAt.Format(time.RFC3339),
		})
	}
	table.Render()
	return nil
}
