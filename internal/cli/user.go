package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/stride-labs/stride/internal/app/gamification"
	"github.com/stride-labs/stride/internal/daemon"
	"github.com/stride-labs/stride/internal/domain"
)

func init() {
	userCreateCmd.Flags().StringVar(&userTimezone, "tz", "UTC", "IANA timezone, e.g. America/Chicago")
	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userShowCmd)
	rootCmd.AddCommand(userCmd)
}

var userTimezone string

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserCreate,
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	now := time.Now()
	user := domain.User{
		ID:                uuid.New(),
		Name:              args[0],
		Timezone:          userTimezone,
		Level:             1,
		ForgivenessTokens: domain.MaxForgivenessTokens,
		ForgivenessOptIn:  true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := d.DB.InsertUser(user); err != nil {
		return err
	}

	fmt.Printf("Created user %s (%s, %s)\n", user.Name, user.ID, user.Timezone)
	return nil
}

var userShowCmd = &cobra.Command{
	Use:   "show <user-id>",
	Short: "Show a user's level, XP, and habit snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserShow,
}

func runUserShow(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	user, err := d.DB.GetUser(id)
	if err != nil {
		return err
	}

	fmt.Printf("%s — level %d (%d XP, %d to next, %.0f%% through level)\n",
		user.Name, user.Level, user.TotalXP,
		gamification.XPToNextLevel(user.TotalXP),
		gamification.ProgressPct(user.TotalXP))
	fmt.Printf("Forgiveness tokens: %d (opted %s)\n",
		user.ForgivenessTokens, optLabel(user.ForgivenessOptIn))

	habits, err := d.DB.ListHabitsByUser(id)
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HABIT\tCADENCE\tSTREAK\tBEST\tCONSISTENCY\tACTIVE")
	for _, h := range habits {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d%%\t%v\n",
			h.Name, h.Schedule.Cadence, h.CurrentStreak, h.LongestStreak,
			h.ConsistencyRate, h.Active)
	}
	return w.Flush()
}

func optLabel(in bool) string {
	if in {
		return "in"
	}
	return "out"
}
