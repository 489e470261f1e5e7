package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gridpulse-systems/gridpulse-relay/internal/cli/client"
	"github.com/gridpulse-systems/gridpulse-relay/internal/seed"
	"github.com/gridpulse-systems/gridpulse-relay/pkg/output"
)

var (
	seedUserID     string
	seedMeter      string
	seedFullName   string
	seedAddress    string
	seedCostPerKwh float64
	seedCount      int
	seedSpread     time.Duration
	seedTarget     string
	seedOrigin     string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed test data",
	Long:  "Insert user profiles into Postgres and push synthetic meter readings through the relay",
}

var seedProfileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Insert a user-profile row",
	Long: `Insert one user-profile row (user id, meter number, tariff) into
Postgres. Unset fields are filled with synthetic data.`,
	RunE: runSeedProfile,
}

var seedReadingsCmd = &cobra.Command{
	Use:   "readings",
	Short: "Send synthetic meter readings through the relay",
	Long: `Generate synthetic meter readings and forward each one through the
relay, exercising the same path the web application uses.`,
	RunE: runSeedReadings,
}

func init() {
	seedProfileCmd.Flags().String("database-url", "", "Postgres connection string (default from profile)")
	seedProfileCmd.Flags().StringVar(&seedUserID, "user-id", "", "user UUID (default: generated)")
	seedProfileCmd.Flags().StringVar(&seedMeter, "meter", "", "meter number (default: generated)")
	seedProfileCmd.Flags().StringVar(&seedFullName, "name", "", "full name (default: generated)")
	seedProfileCmd.Flags().StringVar(&seedAddress, "address", "", "address (default: generated)")
	seedProfileCmd.Flags().Float64Var(&seedCostPerKwh, "cost-per-kwh", 0, "tariff (default: generated)")

	seedReadingsCmd.Flags().String("relay-url", "", "relay base URL (default from profile)")
	seedReadingsCmd.Flags().StringVar(&seedTarget, "target", "", "downstream target_url for the envelope (required)")
	seedReadingsCmd.Flags().StringVar(&seedOrigin, "origin", "http://localhost:3000", "Origin header to present")
	seedReadingsCmd.Flags().StringVar(&seedUserID, "user-id", "", "user UUID (default: generated)")
	seedReadingsCmd.Flags().StringVar(&seedMeter, "meter", "", "meter number (default: generated)")
	seedReadingsCmd.Flags().Float64Var(&seedCostPerKwh, "cost-per-kwh", 0, "tariff (default: generated)")
	seedReadingsCmd.Flags().IntVar(&seedCount, "count", 24, "number of readings to send")
	seedReadingsCmd.Flags().DurationVar(&seedSpread, "spread", 24*time.Hour, "time window to spread readings over")

	seedCmd.AddCommand(seedProfileCmd)
	seedCmd.AddCommand(seedReadingsCmd)
	rootCmd.AddCommand(seedCmd)
}

func runSeedProfile(cmd *cobra.Command, args []string) error {
	databaseURL := resolveDatabaseURL(cmd)
	if databaseURL == "" {
		return fmt.Errorf("--database-url is required (or set database_url in the profile)")
	}

	ctx := context.Background()
	store, err := seed.NewProfileStore(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer store.Close()

	profile := &seed.Profile{
		UserID:      seedUserID,
		MeterNumber: seedMeter,
		FullName:    seedFullName,
		Address:     seedAddress,
		CostPerKwh:  seedCostPerKwh,
	}
	seed.FakeProfile(profile)

	if err := store.CreateProfile(ctx, profile); err != nil {
		if errors.Is(err, seed.ErrProfileExists) {
			output.Warn("Meter %s already has a profile", profile.MeterNumber)
			return nil
		}
		return err
	}

	output.Success("Profile created")
	table := output.NewTable([]string{"FIELD", "VALUE"})
	table.AddRow([]string{"user_id", profile.UserID})
	table.AddRow([]string{"meter_number", profile.MeterNumber})
	table.AddRow([]string{"full_name", profile.FullName})
	table.AddRow([]string{"cost_per_kwh", fmt.Sprintf("%.4f", profile.CostPerKwh)})
	table.Render()
	return nil
}

func runSeedReadings(cmd *cobra.Command, args []string) error {
	if seedTarget == "" {
		return fmt.Errorf("--target is required")
	}
	if seedCount <= 0 {
		return fmt.Errorf("--count must be positive")
	}

	relayURL := resolveRelayURL(cmd)
	relay := client.NewRelayClient(relayURL)

	gen := seed.NewReadingGenerator(seedUserID, seedMeter, seedCostPerKwh)
	readings := gen.Generate(seedCount, seedSpread)

	output.Info("Sending %d readings for meter %s through %s", len(readings), gen.MeterNumber, relayURL)

	sent, failed := 0, 0
	for _, reading := range readings {
		payload := map[string]interface{}{
			"user_id":      reading.UserID,
			"meter_number": reading.MeterNumber,
			"kwh_consumed": reading.KwhConsumed,
			"cost_per_kwh": reading.CostPerKwh,
			"timestamp":    reading.Timestamp,
		}

		result, err := relay.Forward("insert-meter-reading", seedOrigin, seedTarget, payload)
		if err != nil {
			output.Error("Forward failed: %v", err)
			failed++
			continue
		}
		if result.Status >= 200 && result.Status < 300 {
			sent++
		} else {
			output.Warn("Reading rejected with %d: %s", result.Status, string(result.Body))
			failed++
		}
	}

	if failed > 0 {
		output.Warn("Sent %d readings, %d failed", sent, failed)
		return fmt.Errorf("%d of %d readings failed", failed, len(readings))
	}
	output.Success("Sent %d readings", sent)
	return nil
}
