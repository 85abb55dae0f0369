package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hookpipe/hookpipe/internal/models"
	"github.com/hookpipe/hookpipe/pkg/output"
)

var (
	sendServerURL string
	sendToken     string
	sendEventID   string
	sendData      string
	sendFake      bool
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a test event",
	Long:  "Send a webhook event to the ingestion endpoint",
	Example: `  # Send a literal payload
  hpctl send --token YOUR_TOKEN --data '{"order_id":42}'

  # Send a generated payload
  hpctl send --token YOUR_TOKEN --fake`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendServerURL, "server", "", "hookpipe server URL (default: profile server_url)")
	sendCmd.Flags().StringVar(&sendToken, "token", "", "account secret token")
	sendCmd.Flags().StringVar(&sendEventID, "event-id", "", "event id (default: random)")
	sendCmd.Flags().StringVar(&sendData, "data", "", "JSON payload to send")
	sendCmd.Flags().BoolVar(&sendFake, "fake", false, "generate a random payload")

	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	profile, err := currentProfile()
	if err != nil {
		return err
	}

	serverURL := sendServerURL
	if serverURL == "" {
		serverURL = profile.ServerURL
	}
	token := sendToken
	if token == "" {
		token = profile.Token
	}
	if token == "" {
		return fmt.Errorf("token is required (use --token or 'hpctl config set --token')")
	}

	if sendData == "" && !sendFake {
		return fmt.Errorf("either --data or --fake is required")
	}

	payload := []byte(sendData)
	if sendFake {
		fake := map[string]interface{}{
			"event":    gofakeit.VerbAction(),
			"user":     gofakeit.Username(),
			"order_id": gofakeit.Number(1, 99999),
			"amount":   gofakeit.Price(1, 500),
		}
		payload, _ = json.Marshal(fake)
	}
	if !json.Valid(payload) {
		return fmt.Errorf("payload is not valid JSON")
	}

	eventID := sendEventID
	if eventID == "" {
		eventID = uuid.New().String()
	}

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, serverURL+"/server/incoming_data", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("cl-x-token", token)
	req.Header.Set("cl-x-event-id", eventID)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send event: %w", err)
	}
	defer resp.Body.Close()

	var body models.IngestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}

	if !body.Success {
		output.Error("Server rejected event (%d): %s", resp.StatusCode, body.Message)
		return fmt.Errorf("event rejected: %s", body.Message)
	}

	output.Success("%s (event id: %s)", body.Message, eventID)
	return nil
}
