package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/stride-labs/stride/internal/daemon"
	"github.com/stride-labs/stride/internal/domain"
)

func init() {
	statsCmd.Flags().BoolVar(&statsRecalc, "recalculate", false, "Recompute stats from history before showing")
	rootCmd.AddCommand(statsCmd)
}

var statsRecalc bool

var statsCmd = &cobra.Command{
	Use:   "stats <habit-id>",
	Short: "Show a habit's streak and consistency stats",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid habit id: %w", err)
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	var habit *domain.Habit
	if statsRecalc {
		habit, err = d.Commits.Recalculate(context.Background(), id)
	} else {
		habit, err = d.DB.GetHabit(id)
	}
	if err != nil {
		return err
	}

	cadence := string(habit.Schedule.Cadence)
	if habit.Schedule.Cadence == domain.CadenceCustom {
		cadence = fmt.Sprintf("custom (%s)", habit.Schedule.DayNames())
	}

	fmt.Printf("%s [%s]\n", habit.Name, cadence)
	fmt.Printf("  current streak:   %d\n", habit.CurrentStreak)
	fmt.Printf("  longest streak:   %d\n", habit.LongestStreak)
	fmt.Printf("  completions:      %d\n", habit.TotalCompletions)
	fmt.Printf("  consistency:      %d%% (30-day window)\n", habit.ConsistencyRate)
	fmt.Printf("  active:           %v\n", habit.Active)
	return nil
}
