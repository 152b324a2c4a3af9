package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/stride-labs/stride/internal/daemon"
)

func init() {
	forgiveCmd.Flags().StringVar(&forgiveAsOf, "as-of", "", "Run the pass as of this time (RFC 3339, default now)")
	rootCmd.AddCommand(forgiveCmd)
}

var forgiveAsOf string

var forgiveCmd = &cobra.Command{
	Use:   "forgive",
	Short: "Run the daily forgiveness pass now",
	Long: `Scans every opted-in user with forgiveness tokens remaining and protects
at most one at-risk habit per user by inserting a forgiveness completion.
The daemon runs this automatically once a day; this command triggers it
manually, which is useful after downtime.`,
	Args: cobra.NoArgs,
	RunE: runForgive,
}

func runForgive(cmd *cobra.Command, args []string) error {
	asOf := time.Now()
	if forgiveAsOf != "" {
		t, err := time.Parse(time.RFC3339, forgiveAsOf)
		if err != nil {
			return fmt.Errorf("invalid --as-of: %w", err)
		}
		asOf = t
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	summary, err := d.Pass.RunDailyPass(context.Background(), asOf)
	if err != nil {
		return err
	}

	fmt.Printf("Scanned %d users: %d habits protected, %d tokens spent, %d notifications sent\n",
		summary.UsersScanned, summary.HabitsProtected, summary.TokensUsed, summary.NotificationsSent)
	if summary.Failures > 0 {
		fmt.Printf("%d users skipped due to errors (see logs)\n", summary.Failures)
	}
	return nil
}
