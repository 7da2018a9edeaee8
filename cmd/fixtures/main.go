package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/araddon/dateparse"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/derekprior/fixtures/internal/config"
	"github.com/derekprior/fixtures/internal/excel"
	"github.com/derekprior/fixtures/internal/fixture"
	"github.com/derekprior/fixtures/internal/format"
	"github.com/derekprior/fixtures/internal/playoff"
	"github.com/derekprior/fixtures/internal/results"
	"github.com/derekprior/fixtures/internal/schedule"
	"github.com/derekprior/fixtures/internal/standings"
	"github.com/derekprior/fixtures/internal/status"
	"github.com/derekprior/fixtures/internal/validator"
)

func resolveConfigPath(configFlag string) (string, error) {
	path := config.Path(configFlag)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("no config file found. Either create %s in the current directory, set %s or pass --config", config.DefaultPath, config.EnvConfigPath)
	}
	return path, nil
}

// loadConfig reads the config and returns a logger at its level.
func loadConfig(configFlag string) (*config.Config, *logrus.Logger, error) {
	path, err := resolveConfigPath(configFlag)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, newLogger(cfg.Level()), nil
}

func newLogger(level logrus.Level) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetLevel(level)
	return log
}

func buildPlan(cfg *config.Config) (*format.Plan, error) {
	builder, err := format.Get(cfg.Tournament.Format)
	if err != nil {
		return nil, err
	}
	return builder.Build(cfg.Teams(), cfg.FormatOptions())
}

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Cricket tournament fixture generator and standings table",
	}

	var configFile string
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: $"+config.EnvConfigPath+" or "+config.DefaultPath+")")

	var initOutputPath string
	initCmd := &cobra.Command{
		Use:          "init",
		Short:        "Create a starter " + config.DefaultPath + " in the current directory",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(initOutputPath)
		},
	}
	initCmd.Flags().StringVarP(&initOutputPath, "output", "o", config.DefaultPath, "Output path for the config file")

	capacityCmd := &cobra.Command{
		Use:          "capacity",
		Short:        "Show how many matches the window can hold",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapacity(configFile)
		},
	}

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Generate and validate schedules",
	}

	var outputFile string
	generateCmd := &cobra.Command{
		Use:          "generate",
		Short:        "Generate a schedule from a config file",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(configFile, outputFile)
		},
	}
	generateCmd.Flags().StringVarP(&outputFile, "output", "o", "schedule.xlsx", "Output Excel file path")

	validateCmd := &cobra.Command{
		Use:          "validate <schedule.xlsx>",
		Short:        "Validate a schedule against config rules",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(configFile, args[0])
		},
	}
	scheduleCmd.AddCommand(generateCmd, validateCmd)

	var standingsOutput, bookedFile, nextOutput string
	standingsCmd := &cobra.Command{
		Use:          "standings <results.yaml>",
		Short:        "Apply results, rank the tables and resolve playoffs",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStandings(configFile, args[0], standingsOutput, bookedFile, nextOutput)
		},
	}
	standingsCmd.Flags().StringVarP(&standingsOutput, "output", "o", "standings.xlsx", "Output Excel file path")
	standingsCmd.Flags().StringVar(&bookedFile, "schedule", "", "Existing schedule workbook; when set, the next stage is scheduled around it")
	standingsCmd.Flags().StringVar(&nextOutput, "next-output", "next.xlsx", "Output Excel file for the next stage's schedule")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Keep match and tournament statuses in step with the clock",
	}

	var stateFile, nowFlag string
	var every time.Duration
	tickCmd := &cobra.Command{
		Use:          "tick",
		Short:        "Apply due status transitions to a state file",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTick(stateFile, nowFlag, every)
		},
	}
	tickCmd.Flags().StringVar(&stateFile, "state", "state.yaml", "State file to sweep")
	tickCmd.Flags().StringVar(&nowFlag, "now", "", "Evaluate at this time instead of the clock")
	tickCmd.Flags().DurationVar(&every, "every", 0, "Keep sweeping at this interval until interrupted")

	var seedState, tournamentID, deadline string
	seedCmd := &cobra.Command{
		Use:          "seed <schedule.xlsx>",
		Short:        "Add a scheduled tournament to a state file",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(configFile, args[0], seedState, tournamentID, deadline)
		},
	}
	seedCmd.Flags().StringVar(&seedState, "state", "state.yaml", "State file to write")
	seedCmd.Flags().StringVar(&tournamentID, "id", "", "Tournament ID (default: derived from the tournament name)")
	seedCmd.Flags().StringVar(&deadline, "deadline", "", "Registration deadline")
	statusCmd.AddCommand(tickCmd, seedCmd)

	rootCmd.AddCommand(initCmd, capacityCmd, scheduleCmd, standingsCmd, statusCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runInit(outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use -o to write elsewhere", outputPath)
	}

	if err := os.WriteFile(outputPath, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("✓ Created %s\n", outputPath)
	return nil
}

const configTemplate = `# Tournament configuration
# ========================
# This file defines the teams, format and calendar for fixture generation.

tournament:
  name: Spring Cup
  # One of: league, knockout, groups_knockout, super_league,
  # groups_super_round.
  format: groups_knockout
  # Teams are listed by name. A seed places a team in the groups and the
  # knockout bracket; unseeded teams follow in list order.
  teams:
    - name: Lions
      seed: 1
    - name: Tigers
      seed: 2
    - Bears
    - Wolves
    - Hawks
    - Eagles
    - Falcons
    - Panthers

# The window is the date range matches can be placed in.
window:
  start_date: "2026-04-04"
  end_date: "2026-05-31"
  # Full days a team must rest between matches. 1 means no back-to-back days.
  min_rest_days: 1
  # Reserve dates are held back for washed-out matches and are never used
  # by the scheduler.
  reserve_dates: ["2026-05-30", "2026-05-31"]
  # Kickoff times are local to this timezone.
  timezone: Europe/London

# Venues and the time slots each offers. Blackouts block a venue for a
# single date or a date range:
#   - date: "2026-04-18"
#     reason: "Club day"
#   - start_date: "2026-05-01"
#     end_date: "2026-05-03"
venues:
  - name: County Ground
    time_slots: ["10:30", "14:30"]
    blackouts:
      - date: "2026-04-18"
        reason: "Club day"
  - name: Riverside
    time_slots: ["14:30"]

# Dates a team cannot play, in the same form as venue blackouts.
team_blackouts:
  - team: Lions
    date: "2026-04-11"
    reason: "Cup tie"

options:
  double_round_robin: false
  groups: 2
  qualifiers_per_group: 2
  # groups_super_round only: number of super-groups (1 or 2) and whether
  # group-stage results between qualifiers carry into them.
  super_groups: 2
  carry_forward_points: false
  # Let more than one match share a date and time slot.
  allow_parallel: false
  max_parallel: 0

# Points per result. A bonus point goes to a winner whose margin exceeds
# the run or wicket threshold; 0 turns that bonus off.
points:
  win: 2
  tie: 1
  no_result: 1
  loss: 0
  bonus_run_margin: 0
  bonus_wicket_margin: 0

# Tie-break order: points, nrr, head_to_head, wins, lot.
tie_breakers: [points, nrr, head_to_head, wins, lot]

# debug, info, warn or error. FIXTURES_LOG_LEVEL overrides this.
log_level: info
`

func runCapacity(configFile string) error {
	cfg, _, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	plan, err := buildPlan(cfg)
	if err != nil {
		return err
	}

	required := fixture.CountMatches(plan.Rounds)
	c := schedule.CapacityForRounds(cfg.FixtureWindow(), plan.Rounds)
	printCapacity(c, required)

	issues := schedule.Validate(required, c)
	for _, i := range issues {
		glyph := "⚠"
		if i.Severity == schedule.SeverityError {
			glyph = "✗"
		}
		fmt.Printf("%s %s: %s\n", glyph, i.Code, i.Message)
	}
	if err := issues.Err(c); err != nil {
		return err
	}
	if len(issues) == 0 {
		fmt.Println("✓ Window can hold every match")
	}
	return nil
}

func printCapacity(c schedule.Capacity, required int) {
	fmt.Printf("Matches required:   %d\n", required)
	fmt.Printf("Days in window:     %d (%d playable)\n", c.Days, c.PlayableDays)
	fmt.Printf("Venue slots:        %d\n", c.TotalSlots)
	fmt.Printf("Date/time slots:    %d\n", c.SlotTimes)
	fmt.Printf("Rest-day limit:     %d\n", c.PairingLimit)
	fmt.Printf("Effective capacity: %d\n\n", c.Effective)
}

func runGenerate(configFile, outputPath string) error {
	cfg, log, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	plan, err := buildPlan(cfg)
	if err != nil {
		return err
	}

	w := cfg.FixtureWindow()
	required := fixture.CountMatches(plan.Rounds)
	fmt.Printf("Scheduling %d %s matches for %d teams...\n", required, plan.Format, len(cfg.Teams()))

	result, err := schedule.Schedule(w, plan.Rounds, cfg.ScheduleOptions(log))
	if err != nil {
		var capErr *fixture.CapacityError
		if errors.As(err, &capErr) {
			printCapacity(schedule.CapacityForRounds(w, plan.Rounds), required)
		}
		return err
	}
	fmt.Printf("✓ All %d matches scheduled\n", len(result.Matches))

	fmt.Println("\nPer Team Metrics:")
	fmt.Printf("  %-15s %6s %4s %4s %7s\n", "Team", "Games", "Home", "Away", "Min gap")
	for _, team := range cfg.Teams() {
		m := result.TeamMetrics[team]
		if m == nil {
			continue
		}
		fmt.Printf("  %-15s %6d %4d %4d %7d\n", team, m.Games, m.Home, m.Away, m.MinGap)
	}

	fmt.Printf("\nUtilization: %d of %d venue slots (%.1f%%)\n",
		result.Utilization.Scheduled, result.Utilization.TheoreticalMax, result.Utilization.Percent)

	if len(result.Warnings) > 0 {
		fmt.Printf("\nWarnings (%d):\n", len(result.Warnings))
		for _, msg := range result.Warnings {
			fmt.Printf("  ⚠ %s\n", msg)
		}
	}

	printNextStage(plan)

	f, err := excel.Generate(w, result, cfg.Teams())
	if err != nil {
		return fmt.Errorf("generating Excel: %w", err)
	}
	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}

	fmt.Printf("\n✓ Schedule saved to %s\n", outputPath)
	return nil
}

// printNextStage describes what follows the opening stage.
func printNextStage(plan *format.Plan) {
	if plan.Bracket != nil {
		if byes := plan.Bracket.Byes(); len(byes) > 0 {
			fmt.Printf("\nByes into round 2: %s\n", joinTeams(byes))
		}
	}
	switch plan.Format {
	case format.GroupsKnockout:
		fmt.Printf("\nTop %d of each group go into a seeded knockout.\n", plan.QualifiersPerGroup)
	case format.GroupsSuperRound:
		fmt.Printf("\nTop %d of each group go into %d super-group(s).\n", plan.QualifiersPerGroup, plan.SuperGroups)
	}
	if len(plan.Playoffs) == 0 {
		return
	}
	fmt.Println("\nPlayoffs:")
	for _, s := range plan.Playoffs {
		fmt.Printf("  %-14s %s v %s\n", s.Name, s.Home, s.Away)
	}
}

func joinTeams(teams []fixture.TeamID) string {
	names := make([]string, len(teams))
	for i, t := range teams {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func runValidate(configFile, schedulePath string) error {
	cfg, _, err := loadConfig(configFile)
	if err != nil {
		return err
	}

	violations, err := validator.Validate(cfg, schedulePath)
	if err != nil {
		return fmt.Errorf("validating: %w", err)
	}

	errs := 0
	warnings := 0
	for _, v := range violations {
		where := ""
		if v.Row > 0 {
			where = fmt.Sprintf(" (row %d)", v.Row)
		}
		switch v.Type {
		case "error":
			errs++
			fmt.Printf("✗ Rule violation%s: %s\n", where, v.Message)
		case "warning":
			warnings++
			fmt.Printf("⚠ Warning%s: %s\n", where, v.Message)
		}
	}

	fmt.Printf("\nValidation complete: %d rule violations, %d warnings\n", errs, warnings)

	// Regenerate team sheets from the fixture list
	if err := excel.UpdateTeamSheets(schedulePath, cfg.Teams()); err != nil {
		return fmt.Errorf("updating team sheets: %w", err)
	}
	fmt.Printf("✓ Team sheets updated in %s\n", schedulePath)

	if errs > 0 {
		return fmt.Errorf("%d constraint violations found", errs)
	}
	return nil
}

func runStandings(configFile, resultsPath, outputPath, bookedPath, nextPath string) error {
	cfg, log, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	plan, err := buildPlan(cfg)
	if err != nil {
		return err
	}
	file, err := results.Load(resultsPath)
	if err != nil {
		return err
	}

	out, err := results.Apply(plan, cfg.Teams(), file, results.Options{
		Points: cfg.PointsRules(),
		Rules:  cfg.Rules(),
		Logger: log,
	})
	if err != nil {
		return fmt.Errorf("applying results: %w", err)
	}

	for _, group := range sortedGroups(out) {
		printTable(group, out.Tables[group])
	}
	for _, r := range out.Unmatched {
		fmt.Printf("⚠ Result %s v %s matches no fixture\n", r.Home, r.Away)
	}

	fmt.Printf("\nStage: %s\n", out.Stage)
	if out.Champion != "" {
		fmt.Printf("✓ Champion: %s\n", out.Champion)
	}
	if len(out.Next) > 0 {
		fmt.Println("\nReady to schedule:")
		for _, r := range out.Next {
			for _, m := range r.Matches {
				fmt.Printf("  %-16s %s v %s  [%s]\n", m.Label, m.Home, m.Away, m.ID)
			}
		}
	}

	var playoffs []playoff.Fixture
	if out.Playoffs != nil {
		playoffs = out.Playoffs.Fixtures()
	}
	f, err := excel.WriteStandings(out.Tables, playoffs)
	if err != nil {
		return fmt.Errorf("generating Excel: %w", err)
	}
	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}
	fmt.Printf("\n✓ Standings saved to %s\n", outputPath)

	if bookedPath == "" || len(out.Next) == 0 {
		return nil
	}
	return scheduleNext(cfg, log, out.Next, bookedPath, nextPath)
}

// scheduleNext places the next stage's matches around an existing schedule.
func scheduleNext(cfg *config.Config, log *logrus.Logger, rounds []fixture.Round, bookedPath, outputPath string) error {
	wb, err := excelize.OpenFile(bookedPath)
	if err != nil {
		return err
	}
	defer wb.Close()
	rows, err := excel.ReadSchedule(wb)
	if err != nil {
		return err
	}
	booked := make([]fixture.ScheduledMatch, len(rows))
	for i, r := range rows {
		booked[i] = r.ScheduledMatch
	}

	w := cfg.FixtureWindow()
	opts := cfg.ScheduleOptions(log)
	opts.Booked = booked
	// The next stage starts once everything already booked has been played.
	opts.NotBefore = schedule.DayAfter(booked)
	result, err := schedule.Schedule(w, rounds, opts)
	if err != nil {
		return fmt.Errorf("scheduling next stage: %w", err)
	}
	for _, m := range result.Matches {
		fmt.Printf("  %s %s %-14s %s v %s\n", m.Date.Format("Mon 01/02"), m.TimeSlot, m.Venue, m.Home, m.Away)
	}

	f, err := excel.Generate(w, result, fixture.Teams(rounds))
	if err != nil {
		return fmt.Errorf("generating Excel: %w", err)
	}
	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}
	fmt.Printf("✓ Next stage saved to %s\n", outputPath)
	return nil
}

func sortedGroups(out *results.Outcome) []string {
	var groups []string
	for g := range out.Tables {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

func printTable(group string, rows []standings.Standing) {
	title := "Standings"
	if group != "" {
		title = "Group " + group
		if strings.HasPrefix(group, "Super ") {
			title = group
		}
	}
	fmt.Printf("\n%s\n", title)
	fmt.Printf("  %-3s %-15s %3s %3s %3s %3s %3s %4s %7s\n", "#", "Team", "P", "W", "L", "T", "NR", "Pts", "NRR")
	for i, s := range rows {
		fmt.Printf("  %-3d %-15s %3d %3d %3d %3d %3d %4d %+7.3f\n",
			i+1, s.Team, s.Played, s.Won, s.Lost, s.Drawn, s.NoResult, s.Points, s.NRR)
	}
}

func runTick(statePath, nowFlag string, every time.Duration) error {
	log := newLogger(logLevelFromEnv())

	store, err := status.LoadState(statePath)
	if err != nil {
		return err
	}
	syncer := status.NewSynchronizer(store, log, status.DefaultConcurrency)

	if every > 0 {
		if nowFlag != "" {
			return fmt.Errorf("--now and --every cannot be combined")
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		err := syncer.Run(ctx, every, time.Now)
		if saveErr := status.SaveState(statePath, store); saveErr != nil {
			return saveErr
		}
		fmt.Printf("✓ State saved to %s\n", statePath)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	now := time.Now()
	if nowFlag != "" {
		if now, err = dateparse.ParseIn(nowFlag, time.UTC); err != nil {
			return fmt.Errorf("invalid --now %q: %w", nowFlag, err)
		}
	}

	report, err := syncer.Tick(context.Background(), now)
	if err != nil {
		return err
	}
	for _, m := range report.Matches {
		fmt.Printf("  %s: match %s %s → %s\n", m.TournamentID, m.MatchID, m.From, m.To)
	}
	for _, t := range report.Tournaments {
		fmt.Printf("  %s: %s → %s\n", t.TournamentID, t.From, t.To)
	}
	if err := status.SaveState(statePath, store); err != nil {
		return err
	}
	fmt.Printf("✓ %d tournaments checked, %d status changes saved to %s\n", report.Checked, report.Writes(), statePath)
	return nil
}

func runSeed(configFile, schedulePath, statePath, id, deadline string) error {
	cfg, _, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	wb, err := excelize.OpenFile(schedulePath)
	if err != nil {
		return err
	}
	defer wb.Close()
	rows, err := excel.ReadSchedule(wb)
	if err != nil {
		return err
	}
	matches := make([]fixture.ScheduledMatch, len(rows))
	for i, r := range rows {
		matches[i] = r.ScheduledMatch
	}

	if id == "" {
		id = slug(cfg.Tournament.Name)
	}
	if id == "" {
		id = strings.TrimSuffix(filepath.Base(schedulePath), filepath.Ext(schedulePath))
	}
	t := status.FromSchedule(id, cfg.Tournament.Name, matches, loc)
	if deadline != "" {
		if t.RegistrationDeadline, err = dateparse.ParseIn(deadline, loc); err != nil {
			return fmt.Errorf("invalid --deadline %q: %w", deadline, err)
		}
	}

	store := status.NewMemoryStore(nil)
	if _, err := os.Stat(statePath); err == nil {
		if store, err = status.LoadState(statePath); err != nil {
			return err
		}
	}
	store.Put(t)
	if err := status.SaveState(statePath, store); err != nil {
		return err
	}
	fmt.Printf("✓ %s (%d matches) saved to %s\n", id, len(t.Matches), statePath)
	return nil
}

func logLevelFromEnv() logrus.Level {
	if lvl, err := logrus.ParseLevel(os.Getenv(config.EnvLogLevel)); err == nil {
		return lvl
	}
	return logrus.InfoLevel
}

func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
