package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/stride-labs/stride/internal/app/completion"
	"github.com/stride-labs/stride/internal/daemon"
)

func init() {
	completeCmd.Flags().StringVar(&completeUser, "user", "", "Owning user id (required)")
	completeCmd.Flags().IntVar(&completeDifficulty, "difficulty", 0, "Optional difficulty 1-5")
	completeCmd.Flags().StringVar(&completeTz, "tz", "", "Device timezone (defaults to the user's stored zone)")
	_ = completeCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(completeCmd)
}

var (
	completeUser       string
	completeDifficulty int
	completeTz         string
)

var completeCmd = &cobra.Command{
	Use:   "complete <habit-id>",
	Short: "Record a completion for a habit",
	Args:  cobra.ExactArgs(1),
	RunE:  runComplete,
}

func runComplete(cmd *cobra.Command, args []string) error {
	habitID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid habit id: %w", err)
	}
	userID, err := uuid.Parse(completeUser)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	result, err := d.Commits.Record(context.Background(), habitID, userID,
		time.Time{}, completeTz, completion.RecordOptions{
			Difficulty:     completeDifficulty,
			DeviceTimezone: completeTz,
		})
	if err != nil {
		return err
	}

	fmt.Printf("Done! +%d XP — streak %d (best %d), consistency %d%%\n",
		result.XPAwarded, result.CurrentStreak, result.LongestStreak, result.ConsistencyRate)
	if result.LeveledUp {
		fmt.Printf("Level up! You are now level %d.\n", result.NewLevel)
	}
	return nil
}
