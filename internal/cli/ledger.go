package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/stride-labs/stride/internal/daemon"
)

func init() {
	ledgerCmd.Flags().IntVar(&ledgerLimit, "limit", 20, "Number of entries to show")
	rootCmd.AddCommand(ledgerCmd)
}

var ledgerLimit int

var ledgerCmd = &cobra.Command{
	Use:   "ledger <user-id>",
	Short: "Show a user's recent XP ledger entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runLedger,
}

func runLedger(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	entries, err := d.DB.LedgerEntries(id, ledgerLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No XP history yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tAMOUNT\tSOURCE\tDESCRIPTION")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%+d\t%s\t%s\n",
			e.CreatedAt.Format("2006-01-02 15:04"), e.Amount, e.Source, e.Description)
	}
	return w.Flush()
}
