package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gridpulse-systems/gridpulse-relay/internal/cli/client"
	"github.com/gridpulse-systems/gridpulse-relay/pkg/output"
)

var (
	probeOrigin   string
	probeOrigins  []string
	probeEndpoint string
	probeTarget   string
	probePayload  string
	probeJSONOut  bool
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Diagnostic probes",
	Long:  "Issue one-off HTTP probes against the relay or the downstream backend",
}

var probeRelayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Probe the relay end to end",
	Long: `Run the full relay diagnostic: health check, CORS preflight, and a
forwarded POST with a sample meter reading. Each step prints its
status so relay, CORS, and backend problems can be told apart.`,
	RunE: runProbeRelay,
}

var probeCorsCmd = &cobra.Command{
	Use:   "cors",
	Short: "Check which origins the relay grants",
	Long:  "Preflight the relay from each given origin and report which receive the allow-origin grant",
	RunE:  runProbeCors,
}

var probeBackendCmd = &cobra.Command{
	Use:   "backend",
	Short: "POST directly at the backend, bypassing the relay",
	Long:  "Send the payload straight to the downstream function endpoint to tell backend failures apart from relay failures",
	RunE:  runProbeBackend,
}

func init() {
	probeCmd.PersistentFlags().String("relay-url", "", "relay base URL (default from profile)")
	probeCmd.PersistentFlags().StringVar(&probeEndpoint, "endpoint", "insert-meter-reading", "proxy endpoint name")

	probeRelayCmd.Flags().StringVar(&probeOrigin, "origin", "http://localhost:3000", "Origin header to present")
	probeRelayCmd.Flags().StringVar(&probeTarget, "target", "", "downstream target_url to forward to (required)")
	probeRelayCmd.Flags().StringVar(&probePayload, "payload", "", "JSON payload to pass through (default: sample reading)")

	probeCorsCmd.Flags().StringSliceVar(&probeOrigins, "origins", nil, "origins to preflight (required)")
	probeCorsCmd.Flags().BoolVar(&probeJSONOut, "json", false, "emit results as JSON instead of a table")

	probeBackendCmd.Flags().String("backend-url", "", "backend function URL (default from profile)")
	probeBackendCmd.Flags().StringVar(&probePayload, "payload", "", "JSON payload to post (default: sample reading)")

	probeCmd.AddCommand(probeRelayCmd)
	probeCmd.AddCommand(probeCorsCmd)
	probeCmd.AddCommand(probeBackendCmd)
	rootCmd.AddCommand(probeCmd)
}

// samplePayload is the reading used when --payload is not given.
func samplePayload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":      "00000000-0000-0000-0000-000000000001",
		"meter_number": "MTR-00000001",
		"kwh_consumed": 10.5,
		"cost_per_kwh": 0.25,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	}
}

func parsePayload() (map[string]interface{}, error) {
	if probePayload == "" {
		return samplePayload(), nil
	}
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(probePayload), &payload); err != nil {
		return nil, fmt.Errorf("invalid --payload JSON: %w", err)
	}
	return payload, nil
}

func runProbeRelay(cmd *cobra.Command, args []string) error {
	if probeTarget == "" {
		return fmt.Errorf("--target is required")
	}

	payload, err := parsePayload()
	if err != nil {
		return err
	}

	relayURL := resolveRelayURL(cmd)
	relay := client.NewRelayClient(relayURL)

	output.Info("Probing relay at %s", relayURL)

	// Step 1: liveness
	if err := relay.Health(); err != nil {
		output.Error("Health check failed: %v", err)
		return fmt.Errorf("relay unreachable: %w", err)
	}
	output.Success("Relay is healthy")

	// Step 2: preflight, as the browser would before the POST
	preflight, err := relay.Preflight(probeEndpoint, probeOrigin)
	if err != nil {
		output.Error("Preflight failed: %v", err)
		return err
	}
	if preflight.Granted(probeOrigin) {
		output.Success("Preflight granted for %s (methods: %s)", probeOrigin, preflight.AllowMethods)
	} else {
		output.Warn("Preflight NOT granted for %s: browser requests from this origin will be blocked", probeOrigin)
	}

	// Step 3: forward a reading through the relay
	result, err := relay.Forward(probeEndpoint, probeOrigin, probeTarget, payload)
	if err != nil {
		output.Error("Forward failed: %v", err)
		return err
	}

	if result.Status >= 200 && result.Status < 300 {
		output.Success("Forward returned %d", result.Status)
	} else {
		output.Warn("Forward returned %d", result.Status)
	}
	if result.RequestID != "" {
		output.Info("Request ID: %s", result.RequestID)
	}
	if result.AllowOrigin != "" {
		output.Info("Allow-Origin: %s", result.AllowOrigin)
	}
	fmt.Println(strings.TrimSpace(string(result.Body)))
	return nil
}

type corsProbeResult struct {
	Origin  string `json:"origin"`
	Status  int    `json:"status,omitempty"`
	Granted bool   `json:"granted"`
	Error   string `json:"error,omitempty"`
}

func runProbeCors(cmd *cobra.Command, args []string) error {
	if len(probeOrigins) == 0 {
		return fmt.Errorf("--origins is required")
	}

	relayURL := resolveRelayURL(cmd)
	relay := client.NewRelayClient(relayURL)

	results := make([]corsProbeResult, 0, len(probeOrigins))
	denied := 0
	for _, origin := range probeOrigins {
		preflight, err := relay.Preflight(probeEndpoint, origin)
		if err != nil {
			results = append(results, corsProbeResult{Origin: origin, Error: err.Error()})
			denied++
			continue
		}

		granted := preflight.Granted(origin)
		if !granted {
			denied++
		}
		results = append(results, corsProbeResult{Origin: origin, Status: preflight.Status, Granted: granted})
	}

	if probeJSONOut {
		return output.JSON(results)
	}

	output.Info("Preflighting %s", relayURL)

	table := output.NewTable([]string{"ORIGIN", "STATUS", "GRANTED"})
	for _, r := range results {
		switch {
		case r.Error != "":
			table.AddRow([]string{r.Origin, "error", r.Error})
		case r.Granted:
			table.AddRow([]string{r.Origin, fmt.Sprintf("%d", r.Status), "yes"})
		default:
			table.AddRow([]string{r.Origin, fmt.Sprintf("%d", r.Status), "no"})
		}
	}
	table.Render()

	if denied > 0 {
		output.Warn("%d of %d origins not granted", denied, len(probeOrigins))
	} else {
		output.Success("All %d origins granted", len(probeOrigins))
	}
	return nil
}

func runProbeBackend(cmd *cobra.Command, args []string) error {
	backendURL := resolveBackendURL(cmd)
	if backendURL == "" {
		return fmt.Errorf("--backend-url is required (or set backend_url in the profile)")
	}

	payload, err := parsePayload()
	if err != nil {
		return err
	}

	output.Info("Posting directly at %s", backendURL)

	backend := client.NewBackendClient()
	result, err := backend.Post(backendURL, payload)
	if err != nil {
		output.Error("Backend unreachable: %v", err)
		return err
	}

	if result.Status >= 200 && result.Status < 300 {
		output.Success("Backend returned %d", result.Status)
	} else {
		output.Warn("Backend returned %d: the problem is in the backend, not the relay", result.Status)
	}
	fmt.Println(strings.TrimSpace(string(result.Body)))
	return nil
}
