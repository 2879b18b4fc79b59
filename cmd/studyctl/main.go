package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"studytracker-backend/internal/config"
	"studytracker-backend/internal/database"
	"studytracker-backend/internal/logger"
	"studytracker-backend/internal/models"
	"studytracker-backend/internal/repository"
	"studytracker-backend/internal/services"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(24)
	boxStyle   = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1)
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, errStyle.Render(err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var driver string

	root := &cobra.Command{
		Use:           "studyctl",
		Short:         "Administer the study session store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&driver, "store", "", "override STORE_DRIVER (postgres, sqlite, memory)")

	root.AddCommand(newMigrateCmd(&driver))
	root.AddCommand(newReindexCmd(&driver))
	root.AddCommand(newStatsCmd(&driver))
	root.AddCommand(newVerifyCmd(&driver))
	return root
}

type app struct {
	store   repository.SessionStore
	tracker *services.Tracker
	log     *logger.Logger
	close   func()
}

func loadApp(ctx context.Context, driver string) (*app, error) {
	cfg := config.Load()
	if driver != "" {
		cfg.StoreDriver = driver
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, err
	}
	store, closeStore, err := database.OpenSessionStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	tracker := services.NewTracker(store, services.Policy{
		StreakGraceDays: cfg.StreakGraceDays,
		RecentWindow:    cfg.RecentSessionWindow,
		NeverStudied:    cfg.NeverStudiedDays,
		Location:        cfg.Location(),
	}, nil, log)
	tracker.SetChallengeDays(cfg.ChallengeDays)

	return &app{store: store, tracker: tracker, log: log, close: func() {
		closeStore()
		log.Sync()
	}}, nil
}

func newMigrateCmd(driver *string) *cobra.Command {
	var (
		from  string
		table string
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy sessions from a legacy SQLite file into the configured store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx, *driver)
			if err != nil {
				return err
			}
			defer a.close()

			src, err := database.NewSQLiteDB(from)
			if err != nil {
				return err
			}
			defer src.Close()

			sessions, rejects, err := repository.ReadLegacySessions(ctx, src, table)
			if err != nil {
				return err
			}
			return migrate(ctx, cmd.OutOrStdout(), a.tracker, a.store, sessions, rejects)
		},
	}
	cmd.Flags().StringVar(&from, "from", "study_sessions.db", "legacy SQLite database file")
	cmd.Flags().StringVar(&table, "table", "sessions", "legacy table name")
	return cmd
}

// migrate upserts every legacy session, so running it twice is harmless, then renumbers.
func migrate(ctx context.Context, out io.Writer, tracker *services.Tracker, store repository.SessionStore, sessions []models.StudySession, rejects []error) error {
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Migrating %d sessions", len(sessions))))

	migrated, failed := 0, len(rejects)
	for _, err := range rejects {
		fmt.Fprintln(out, errStyle.Render("  skipped: "+err.Error()))
	}
	for i := range sessions {
		s := sessions[i]
		if _, err := store.Upsert(ctx, &s); err != nil {
			failed++
			fmt.Fprintln(out, errStyle.Render(fmt.Sprintf("  failed %s: %v", s.ID, err)))
			continue
		}
		migrated++
		fmt.Fprintf(out, "  - migrated day %d: %s\n", s.Day, s.Topic)
	}

	report, err := tracker.Reindex(ctx)
	if err != nil && !errors.Is(err, services.ErrWriteRejected) {
		return err
	}

	fmt.Fprintln(out, boxStyle.Render(fmt.Sprintf("%s %d\n%s %d\n%s %d",
		labelStyle.Render("migrated"), migrated,
		labelStyle.Render("failed"), failed,
		labelStyle.Render("renumbered"), len(report.Updated))))
	if failed > 0 || len(report.Failed) > 0 {
		return fmt.Errorf("migration finished with %d failed records and %d stale day numbers", failed, len(report.Failed))
	}
	return nil
}

func newReindexCmd(driver *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Renumber every session by date and creation time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd.Context(), *driver)
			if err != nil {
				return err
			}
			defer a.close()

			report, err := a.tracker.Reindex(cmd.Context())
			out := cmd.OutOrStdout()
			if partial, ok := services.IsPartialReindex(err); ok {
				for _, f := range partial.Failed {
					fmt.Fprintln(out, errStyle.Render(fmt.Sprintf("  %s (day %d): %s", f.SessionID, f.Day, f.Message)))
				}
				return err
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(out, okStyle.Render(fmt.Sprintf("reindex completed: %d of %d sessions renumbered", len(report.Updated), report.Total)))
			return nil
		},
	}
}

func newStatsCmd(driver *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the dashboard metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd.Context(), *driver)
			if err != nil {
				return err
			}
			defer a.close()

			d, err := a.tracker.Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderStats(d))
			return nil
		},
	}
}

func renderStats(d *services.Dashboard) string {
	since := fmt.Sprint(d.DaysSinceLastStudy)
	if d.TotalSessions == 0 {
		since = "never"
	}
	rows := []struct{ label, value string }{
		{"sessions", fmt.Sprintf("%d/%d (%.0f%%)", d.TotalSessions, d.ChallengeDays, d.ProgressPercent)},
		{"streak", fmt.Sprintf("%d days", d.Streak)},
		{"days since last study", since},
		{"total studied", d.TotalStudiedTime},
		{"status", string(d.Accountability.Level)},
	}
	body := titleStyle.Render("Study tracker")
	for _, r := range rows {
		body += "\n" + labelStyle.Render(r.label) + r.value
	}
	return boxStyle.Render(body)
}

func newVerifyCmd(driver *string) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-reordering",
		Short: "Insert three dated sessions out of order, check their day numbers, then remove them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd.Context(), *driver)
			if err != nil {
				return err
			}
			defer a.close()
			return verifyReordering(cmd.Context(), cmd.OutOrStdout(), a.tracker)
		},
	}
}

func verifyReordering(ctx context.Context, out io.Writer, tracker *services.Tracker) error {
	fmt.Fprintln(out, titleStyle.Render("Reordering verification"))

	dates := []models.Date{models.NewDate(2025, 1, 1), models.NewDate(2025, 1, 3), models.NewDate(2025, 1, 2)}
	ids := make([]string, 0, len(dates))
	defer func() {
		for _, id := range ids {
			if err := tracker.RemoveSession(ctx, id); err != nil {
				fmt.Fprintln(out, errStyle.Render(fmt.Sprintf("cleanup of %s failed: %v", id, err)))
			}
		}
	}()

	for i, d := range dates {
		s, err := tracker.RecordSession(ctx, models.SessionPayload{
			Date:     d,
			Topic:    fmt.Sprintf("Test Session %d", i+1),
			Category: "Mixed",
			Duration: "1 hora",
			DailyWin: fmt.Sprintf("Win %d", i+1),
		})
		if err != nil {
			return fmt.Errorf("add session dated %s: %w", d, err)
		}
		ids = append(ids, s.ID)
		fmt.Fprintf(out, "  added %s\n", d)
	}

	days := make([]int, len(ids))
	for i, id := range ids {
		s, err := tracker.GetSession(ctx, id)
		if err != nil {
			return err
		}
		days[i] = s.Day
	}

	// ids[0]=01-01, ids[1]=01-03, ids[2]=01-02
	if days[0] < days[2] && days[2] < days[1] {
		fmt.Fprintln(out, okStyle.Render("order is correct"))
		return nil
	}
	return fmt.Errorf("order is incorrect: 01-01=%d 01-02=%d 01-03=%d", days[0], days[2], days[1])
}
