package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/bryan-cox/oqsync/internal/cascade"
	"github.com/bryan-cox/oqsync/internal/clipboard"
	"github.com/bryan-cox/oqsync/internal/config"
	"github.com/bryan-cox/oqsync/internal/document"
	"github.com/bryan-cox/oqsync/internal/ledger"
	"github.com/bryan-cox/oqsync/internal/metrics"
	"github.com/bryan-cox/oqsync/internal/report"
	"github.com/bryan-cox/oqsync/internal/tasksync"
)

// --- Cobra Command Definitions ---

var (
	// Used for flags.
	configPath  string
	filePath    string
	ledgerPath  string
	projectID   string
	metricsFile string
	lineNumber  int
	dryRun      bool
	copyReport  bool

	// Set up by the root command before any subcommand runs.
	cfg      *config.Config
	recorder *metrics.Metrics

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:                "oqsync",
		Short:              "Keep a markdown checklist in sync with a task ledger.",
		Long:               `oqsync links the checklist items of a markdown document to tasks in a ledger, pushes edits to them and cascades completion through nested subtasks.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  setup,
		PersistentPostRunE: writeMetrics,
	}

	// syncCmd represents the sync command
	syncCmd = &cobra.Command{
		Use:   "sync",
		Short: "Create or update ledger tasks from checklist lines.",
		Long:  `Creates a task for every unlinked checklist line and updates the task of every linked one, writing the ledger's answer back into the document. Use --line to sync a single line.`,
		RunE:  runSyncCommand,
	}

	// toggleCmd represents the toggle command
	toggleCmd = &cobra.Command{
		Use:   "toggle",
		Short: "Complete or reopen the task on a line.",
		Long:  `Closes the linked task on the given line and checks its subtasks, or, when the task is already complete, reopens it and unchecks its parents.`,
		RunE:  runToggleCommand,
	}

	// reportCmd represents the report command
	reportCmd = &cobra.Command{
		Use:   "report",
		Short: "Generate a status report from the document.",
		Long:  `Groups the document's checklist items into done, in progress and to do, with open items ordered by due date.`,
		RunE:  runReportCommand,
	}

	// tagsCmd represents the tags command
	tagsCmd = &cobra.Command{
		Use:   "tags",
		Short: "List the project's tags.",
		RunE:  runTagsCommand,
	}
)

// Styles
var (
	noticeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("10"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	// Add persistent flags to the root command (available to all subcommands)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file (default .oqsync.yaml).")
	rootCmd.PersistentFlags().StringVar(&filePath, "file", "", "Path to the markdown document.")
	rootCmd.PersistentFlags().StringVar(&ledgerPath, "ledger", "", "Path to the YAML task ledger.")
	rootCmd.PersistentFlags().StringVar(&projectID, "project", "", "Project id tasks are created under.")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file.")

	syncCmd.Flags().IntVar(&lineNumber, "line", 0, "Sync only this line (1-based).")
	syncCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the changes instead of saving them.")

	toggleCmd.Flags().IntVar(&lineNumber, "line", 0, "Line of the task to toggle (1-based).")
	_ = toggleCmd.MarkFlagRequired("line")

	reportCmd.Flags().BoolVar(&copyReport, "copy", false, "Also copy the report to the clipboard.")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(tagsCmd)
}

// --- Main Application Entry Point ---

func main() {
	// Setup structured JSON logger until the config says otherwise.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)
	Execute()
}

// setup loads the config, applies flag overrides and configures logging.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if filePath != "" {
		loaded.Document = filePath
	}
	if ledgerPath != "" {
		loaded.Ledger = ledgerPath
	}
	if projectID != "" {
		loaded.Project = projectID
	}
	if metricsFile != "" {
		loaded.MetricsFile = metricsFile
	}
	cfg = loaded

	logger, err := newLogger(os.Stderr, cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	recorder = nil
	if cfg.MetricsFile != "" {
		recorder = metrics.New()
	}
	return nil
}

func newLogger(w io.Writer, c *config.Config) (*slog.Logger, error) {
	level, err := c.LogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return slog.New(slog.NewJSONHandler(w, opts)), nil
}

// writeMetrics saves the run's counters when a metrics file is configured.
func writeMetrics(cmd *cobra.Command, args []string) error {
	if recorder == nil {
		return nil
	}
	return recorder.WriteTextfile(cfg.MetricsFile)
}

// --- Command Execution Logic ---

func runSyncCommand(cmd *cobra.Command, args []string) error {
	doc, syncer, err := open(dryRun)
	if err != nil {
		return err
	}
	before := doc.String()
	out := cmd.OutOrStdout()

	if lineNumber > 0 {
		if err := doc.SetCursor(lineNumber - 1); err != nil {
			return err
		}
		result, err := syncer.SyncLine(cmd.Context(), doc, doc.Cursor())
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNumber, err)
		}
		fmt.Fprintln(out, noticeStyle.Render(fmt.Sprintf("Line %d %s.", lineNumber, result.Action)))
		return finishSync(out, doc, before)
	}

	summary, syncErr := syncer.SyncDocument(cmd.Context(), doc)
	fmt.Fprintln(out, noticeStyle.Render(fmt.Sprintf("Created %d, updated %d, skipped %d.", summary.Created, summary.Updated, summary.Skipped)))
	// Lines synced before a failure are already in the ledger, so their ids
	// must reach the document even when the run stops early.
	if err := finishSync(out, doc, before); err != nil {
		return err
	}
	return syncErr
}

// finishSync saves the document, or prints what would change on a dry run.
func finishSync(out io.Writer, doc *document.Document, before string) error {
	if dryRun {
		fmt.Fprint(out, document.Diff(before, doc.String()))
		fmt.Fprintln(out, dimStyle.Render("Dry run: nothing was saved."))
		return nil
	}
	if doc.String() == before {
		return nil
	}
	return doc.Save()
}

func runToggleCommand(cmd *cobra.Command, args []string) error {
	doc, syncer, err := open(false)
	if err != nil {
		return err
	}
	if err := doc.SetCursor(lineNumber - 1); err != nil {
		return err
	}

	result, err := syncer.ToggleAtCursor(cmd.Context(), doc)
	if err != nil {
		return fmt.Errorf("line %d: %w", lineNumber, err)
	}
	if result.Direction == tasksync.DirectionNone {
		slog.Debug("line is not linked, nothing to toggle", "line", lineNumber)
		return nil
	}
	if err := doc.Save(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), noticeStyle.Render(result.Message))
	return nil
}

func runReportCommand(cmd *cobra.Command, args []string) error {
	doc, err := document.Load(cfg.Document)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("Task Report (%s)\n", cfg.Document) +
		"=======Autogenerated by oqsync=======\n" +
		report.Text(report.Categorize(report.Tasks(doc)))

	out := cmd.OutOrStdout()
	fmt.Fprint(out, text)

	if copyReport {
		if err := clipboard.CopyText(text); err != nil {
			slog.Warn("could not copy report to clipboard", "error", err)
			return nil
		}
		fmt.Fprintln(out, dimStyle.Render("Report copied to clipboard."))
	}
	return nil
}

func runTagsCommand(cmd *cobra.Command, args []string) error {
	store, err := ledger.Open(cfg.Ledger, cfg.Project)
	if err != nil {
		return err
	}
	tags, err := store.ListTags(cmd.Context(), store.Project())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(tags) == 0 {
		fmt.Fprintln(out, dimStyle.Render("No tags."))
		return nil
	}
	for _, tag := range tags {
		fmt.Fprintf(out, "    • #%s %s\n", tag.Name, dimStyle.Render("("+tag.ID+")"))
	}
	return nil
}

// --- Helper Functions ---

// open loads the document and ledger named by the config and wires a syncer
// over them. With discard set, ledger changes stay in memory.
func open(discard bool) (*document.Document, *tasksync.Syncer, error) {
	doc, err := document.Load(cfg.Document)
	if err != nil {
		return nil, nil, err
	}
	store, err := ledger.Open(cfg.Ledger, cfg.Project)
	if err != nil {
		return nil, nil, err
	}
	if discard {
		store.DiscardChanges()
	}

	syncer := tasksync.New(store, store.Project())
	syncer.Indenter = cascade.Indenter{SpacesPerLevel: cfg.Indent.SpacesPerLevel}
	syncer.Logger = slog.Default()
	syncer.Metrics = recorder
	return doc, syncer, nil
}
