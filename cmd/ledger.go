package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cppla/nailgrow/config"
	"github.com/cppla/nailgrow/ledger"
)

var clearConfirmed bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current streak and credits",
	RunE: withLedger(func(ctx context.Context, out io.Writer, l *ledger.Ledger, _ []string) error {
		st, err := l.Status(ctx)
		if err != nil {
			return err
		}
		printStatus(out, st, l)
		return nil
	}),
}

var checkinCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Record today's check-in",
	RunE: withLedger(func(ctx context.Context, out io.Writer, l *ledger.Ledger, _ []string) error {
		res, err := l.CheckIn(ctx)
		if errors.Is(err, ledger.ErrAlreadyCheckedIn) {
			fmt.Fprintf(out, "Already checked in today. Streak: %d day(s)\n", res.NewStreak)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Checked in! Streak: %d day(s), total check-ins: %d, credits: %d\n",
			res.NewStreak, res.NewTotalCheckins, res.NewCreditBalance)
		return nil
	}),
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the current streak after a slip-up",
	RunE: withLedger(func(ctx context.Context, out io.Writer, l *ledger.Ledger, _ []string) error {
		if err := l.ResetStreak(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "Streak reset. Tomorrow is a new day.")
		return nil
	}),
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Erase all progress",
	RunE: withLedger(func(ctx context.Context, out io.Writer, l *ledger.Ledger, _ []string) error {
		if !clearConfirmed {
			return errors.New("refusing to erase progress without --yes")
		}
		if err := l.ClearAll(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "All progress erased.")
		return nil
	}),
}

var creditsCmd = &cobra.Command{
	Use:   "credits",
	Short: "Show or change the credit balance",
	RunE: withLedger(func(ctx context.Context, out io.Writer, l *ledger.Ledger, _ []string) error {
		credits, err := l.Credits(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Credits: %d\n", credits)
		return nil
	}),
}

var creditsGrantCmd = &cobra.Command{
	Use:   "grant <amount>",
	Short: "Add credits",
	Args:  cobra.ExactArgs(1),
	RunE: withLedger(func(ctx context.Context, out io.Writer, l *ledger.Ledger, args []string) error {
		amount, err := parseAmount(args[0])
		if err != nil {
			return err
		}
		balance, err := l.GrantCredits(ctx, amount)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Credits: %d\n", balance)
		return nil
	}),
}

var creditsSpendCmd = &cobra.Command{
	Use:   "spend <amount>",
	Short: "Spend credits",
	Args:  cobra.ExactArgs(1),
	RunE: withLedger(func(ctx context.Context, out io.Writer, l *ledger.Ledger, args []string) error {
		amount, err := parseAmount(args[0])
		if err != nil {
			return err
		}
		res, err := l.SpendCredits(ctx, amount)
		if errors.Is(err, ledger.ErrInsufficientCredits) {
			return fmt.Errorf("not enough credits: have %d, need %d", res.NewBalance, amount)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Credits: %d\n", res.NewBalance)
		return nil
	}),
}

func init() {
	clearCmd.Flags().BoolVar(&clearConfirmed, "yes", false, "confirm erasing all progress")
	creditsCmd.AddCommand(creditsGrantCmd, creditsSpendCmd)
	rootCmd.AddCommand(statusCmd, checkinCmd, resetCmd, clearCmd, creditsCmd)
}

// withLedger opens the configured storage for the duration of one command.
func withLedger(run func(ctx context.Context, out io.Writer, l *ledger.Ledger, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := newApp(ctx, config.Get())
		if err != nil {
			return err
		}
		defer a.close()
		return run(ctx, cmd.OutOrStdout(), a.ledger, args)
	}
}

func parseAmount(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("amount must be a positive integer, got %q", s)
	}
	return n, nil
}

func printStatus(out io.Writer, st ledger.Status, l *ledger.Ledger) {
	fmt.Fprintf(out, "Current streak: %d day(s)\n", st.CurrentStreak)
	fmt.Fprintf(out, "Longest streak: %d day(s)\n", st.LongestStreak)
	fmt.Fprintf(out, "Total check-ins: %d\n", st.TotalCheckins)
	fmt.Fprintf(out, "Credits: %d\n", st.Credits)
	if st.LastCheckinAt != nil {
		fmt.Fprintf(out, "Last check-in: %s\n", ledger.DateKey(*st.LastCheckinAt, l.Location()))
	} else {
		fmt.Fprintln(out, "Last check-in: never")
	}
	if st.HasCheckedInToday {
		fmt.Fprintln(out, "Checked in today: yes")
	} else {
		fmt.Fprintln(out, "Checked in today: no")
	}
	if st.StreakBroken {
		fmt.Fprintf(out, "Streak broken after %d day(s) without a check-in.\n", st.DaysMissed)
	}
}
