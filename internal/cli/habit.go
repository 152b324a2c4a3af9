package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/stride-labs/stride/internal/daemon"
	"github.com/stride-labs/stride/internal/domain"
)

func init() {
	habitCreateCmd.Flags().StringVar(&habitUser, "user", "", "Owning user id (required)")
	habitCreateCmd.Flags().StringVar(&habitCadence, "cadence", "daily", "daily, weekly, or custom")
	habitCreateCmd.Flags().StringVar(&habitDays, "days", "", "Custom weekdays, e.g. mon,wed,fri")
	habitCreateCmd.Flags().StringVar(&habitCategory, "category", "", "Habit category")
	_ = habitCreateCmd.MarkFlagRequired("user")

	habitListCmd.Flags().StringVar(&habitUser, "user", "", "Owning user id (required)")
	_ = habitListCmd.MarkFlagRequired("user")

	habitCmd.AddCommand(habitCreateCmd)
	habitCmd.AddCommand(habitListCmd)
	habitCmd.AddCommand(habitArchiveCmd)
	rootCmd.AddCommand(habitCmd)
}

var (
	habitUser     string
	habitCadence  string
	habitDays     string
	habitCategory string
)

var habitCmd = &cobra.Command{
	Use:   "habit",
	Short: "Manage habits",
}

var habitCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a habit",
	Args:  cobra.ExactArgs(1),
	RunE:  runHabitCreate,
}

func runHabitCreate(cmd *cobra.Command, args []string) error {
	userID, err := uuid.Parse(habitUser)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	sched := domain.Schedule{Cadence: domain.Cadence(habitCadence)}
	if !sched.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidCadence, habitCadence)
	}
	if sched.Cadence == domain.CadenceCustom {
		sched.DaysOfWeek, err = parseDays(habitDays)
		if err != nil {
			return err
		}
		if len(sched.DaysOfWeek) == 0 {
			return domain.ErrEmptySchedule
		}
		sched.TimesPerWeek = len(sched.DaysOfWeek)
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	if _, err := d.DB.GetUser(userID); err != nil {
		return err
	}

	now := time.Now()
	habit := domain.Habit{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      args[0],
		Category:  habitCategory,
		Schedule:  sched,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := d.DB.InsertHabit(habit); err != nil {
		return err
	}

	fmt.Printf("Created habit %q (%s, %s)\n", habit.Name, habit.ID, habit.Schedule.Cadence)
	return nil
}

var habitListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List a user's habits",
	RunE:    runHabitList,
}

func runHabitList(cmd *cobra.Command, args []string) error {
	userID, err := uuid.Parse(habitUser)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	habits, err := d.DB.ListHabitsByUser(userID)
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		fmt.Println("No habits yet. Run 'stride habit create' to get started.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCADENCE\tSTREAK\tBEST\tCONSISTENCY")
	for _, h := range habits {
		cadence := string(h.Schedule.Cadence)
		if h.Schedule.Cadence == domain.CadenceCustom {
			cadence = fmt.Sprintf("custom (%s)", h.Schedule.DayNames())
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d%%\n",
			h.ID, h.Name, cadence, h.CurrentStreak, h.LongestStreak, h.ConsistencyRate)
	}
	return w.Flush()
}

var habitArchiveCmd = &cobra.Command{
	Use:   "archive <habit-id>",
	Short: "Soft-pause a habit (history is kept)",
	Args:  cobra.ExactArgs(1),
	RunE:  runHabitArchive,
}

func runHabitArchive(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid habit id: %w", err)
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.DB.SetHabitActive(id, false); err != nil {
		return err
	}
	fmt.Println("Archived.")
	return nil
}

// parseDays parses "mon,wed,fri" (or numeric "1,3,5") into weekdays.
func parseDays(s string) ([]time.Weekday, error) {
	if s == "" {
		return nil, nil
	}
	names := map[string]time.Weekday{
		"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday,
		"wed": time.Wednesday, "thu": time.Thursday, "fri": time.Friday,
		"sat": time.Saturday,
	}
	var days []time.Weekday
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if d, ok := names[part]; ok {
			days = append(days, d)
			continue
		}
		if len(part) == 1 && part[0] >= '0' && part[0] <= '6' {
			days = append(days, time.Weekday(part[0]-'0'))
			continue
		}
		return nil, fmt.Errorf("unknown weekday %q", part)
	}
	return days, nil
}
