package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/kurihiro0119/github-org-archive/internal/archive"
	"github.com/kurihiro0119/github-org-archive/internal/collector"
	"github.com/kurihiro0119/github-org-archive/internal/config"
	"github.com/kurihiro0119/github-org-archive/internal/domain"
	"github.com/kurihiro0119/github-org-archive/internal/gitmirror"
	"github.com/kurihiro0119/github-org-archive/internal/report"
	"github.com/kurihiro0119/github-org-archive/internal/storage"
	"github.com/kurihiro0119/github-org-archive/internal/storage/postgres"
	"github.com/kurihiro0119/github-org-archive/internal/storage/sqlite"
	apiclient "github.com/kurihiro0119/github-org-archive/pkg/client"
)

var (
	outputJSON bool
	destDir    string
	runLimit   int
	remote     bool
)

var rootCmd = &cobra.Command{
	Use:   "github-org-archive",
	Short: "GitHub organization archive tool",
	Long: `A CLI tool for archiving a GitHub organization to local disk.

Each run clones or pulls every repository (and wiki where present) and
writes teams, repository info and full issue/PR history as markdown
snapshots under a timestamped directory.`,
}

var archiveCmd = &cobra.Command{
	Use:   "archive [org]",
	Short: "Archive an organization",
	Long:  `Archive the teams, repositories, wikis and issue history of a GitHub organization.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runArchive,
}

var runsCmd = &cobra.Command{
	Use:   "runs [org]",
	Short: "List past archive runs",
	Long:  `Display past archive runs recorded in the run manifest, most recent first.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRuns,
}

var runCmd = &cobra.Command{
	Use:   "run [id]",
	Short: "Show one archive run",
	Long:  `Display one archive run and its per-repository outcomes.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runShowRun,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")

	archiveCmd.Flags().StringVar(&destDir, "dest", "", "destination directory (default ./archive/<org>)")

	runsCmd.Flags().IntVar(&runLimit, "limit", 20, "maximum number of runs to list")
	runsCmd.Flags().BoolVar(&remote, "remote", false, "query the API server (API_ENDPOINT) instead of local storage")

	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func getStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageType {
	case "postgres":
		return postgres.NewPostgresStorage(cfg.PostgresURL)
	default:
		return sqlite.NewSQLiteStorage(cfg.SQLitePath)
	}
}

func resolveOrg(cfg *config.Config, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.Org != "" {
		return cfg.Org, nil
	}
	return "", fmt.Errorf("no organization given and GITHUB_ORG is not set")
}

func runArchive(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	org, err := resolveOrg(cfg, args)
	if err != nil {
		return err
	}

	dest := destDir
	if dest == "" {
		dest = cfg.DestFor(org)
	}

	store, err := getStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	coll := collector.NewGitHubCollector(cfg.GitHubToken)
	mirror := gitmirror.New(cfg.GitHubToken)
	archiver := archive.New(coll, mirror, store, dest)

	run, err := archiver.Run(context.Background(), org)
	if err != nil {
		return fmt.Errorf("archive run failed: %w", err)
	}

	if run.Failures > 0 {
		fmt.Printf("Completed with %d repository failures (run %s)\n", run.Failures, run.ID)
	}
	return nil
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	org := ""
	if len(args) > 0 {
		org = args[0]
	}

	runs, err := fetchRuns(cfg, org)
	if err != nil {
		return err
	}

	if outputJSON {
		out, err := json.MarshalIndent(runs, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Org", "Status", "Started", "Teams", "Repos", "Issues", "Failures"})
	for _, r := range runs {
		table.Append([]string{
			r.ID,
			r.Org,
			string(r.Status),
			r.StartedAt.Format(time.RFC3339),
			fmt.Sprintf("%d", r.Teams),
			fmt.Sprintf("%d", r.Repos),
			fmt.Sprintf("%d", r.Issues),
			fmt.Sprintf("%d", r.Failures),
		})
	}
	table.Render()

	return nil
}

func fetchRuns(cfg *config.Config, org string) ([]*domain.Run, error) {
	if remote {
		c := apiclient.NewClient(cfg.APIEndpoint)
		if org != "" {
			return c.ListOrgRuns(org, runLimit)
		}
		return c.ListRuns(runLimit)
	}

	store, err := getStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	rep := report.NewReport(store)
	return rep.ListRuns(context.Background(), org, runLimit)
}

func runShowRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := getStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	rep := report.NewReport(store)
	detail, err := rep.GetRun(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}

	if outputJSON {
		out, err := json.MarshalIndent(detail, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	r := detail.Run
	fmt.Printf("\nArchive Run: %s\n", r.ID)
	fmt.Printf("Organization: %s\n", r.Org)
	fmt.Printf("Destination: %s\n", r.Dest)
	fmt.Printf("Status: %s\n\n", r.Status)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Repository", "Mirror", "Wiki", "Issues", "Error"})
	for _, rec := range detail.Records {
		table.Append([]string{
			rec.Name,
			rec.MirrorAction,
			rec.WikiAction,
			fmt.Sprintf("%d", rec.Issues),
			rec.Error,
		})
	}
	table.Render()

	return nil
}
