package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/workflow-reconciler/internal/application/reconcile"
	"github.com/garyjia/workflow-reconciler/internal/application/service"
	"github.com/garyjia/workflow-reconciler/internal/config"
	"github.com/garyjia/workflow-reconciler/internal/container"
	"github.com/garyjia/workflow-reconciler/internal/infrastructure/report"
	"github.com/garyjia/workflow-reconciler/pkg/utils"
)

type runOptions struct {
	companyID     int64
	actorUserID   int64
	dryRun        bool
	targets       []string
	overridesPath string
	reportPath    string
	baseURL       string
	scopeID       string
	jsonOutput    bool
}

func newRunCmd(global *globalOptions) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch legacy rows and reconcile them",
		Long: "Fetch legacy MRS rows for a company and import every row that resolves.\n" +
			"Use --dry-run to preview the outcome and --report to export unmatched rows\n" +
			"for manual resolution; feed the edited workbook back with --overrides.",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.companyID <= 0 {
				return &usageError{fmt.Errorf("--company must be a positive id")}
			}
			if opts.actorUserID <= 0 {
				return &usageError{fmt.Errorf("--actor must be a positive user id")}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), global, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().Int64Var(&opts.companyID, "company", 0, "Company id to import into (required)")
	cmd.Flags().Int64Var(&opts.actorUserID, "actor", 0, "User id recorded as the importer (required)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Classify rows without writing to the store")
	cmd.Flags().StringArrayVar(&opts.targets, "target", nil, "Restrict the run to a legacy record id (repeatable)")
	cmd.Flags().StringVar(&opts.overridesPath, "overrides", "", "Manual overrides as an edited report workbook (.xlsx) or JSON list")
	cmd.Flags().StringVar(&opts.reportPath, "report", "", "Write the run report workbook to this path")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "Legacy base URL (default: legacy.base_url)")
	cmd.Flags().StringVar(&opts.scopeID, "scope", "", "Legacy scope id (default: legacy.scope_id)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print the full run result as JSON")

	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("actor")

	return cmd
}

func runSync(ctx context.Context, global *globalOptions, opts runOptions, out io.Writer) error {
	if err := config.LoadEnvFile(global.envFile); err != nil {
		return err
	}
	cfg, err := config.Load(global.configPath)
	if err != nil {
		return err
	}

	// stdout carries the run summary
	if cfg.Logger.OutputPath == "" || cfg.Logger.OutputPath == "stdout" {
		cfg.Logger.OutputPath = "stderr"
	}
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
		Component:  "legacy-sync",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	var overrides []reconcile.ManualOverride
	if opts.overridesPath != "" {
		overrides, err = report.LoadOverrides(opts.overridesPath)
		if err != nil {
			return &usageError{err}
		}
		logger.Info("Loaded manual overrides", zap.Int("count", len(overrides)))
	}

	c, err := container.NewContainer(cfg.ToContainerConfig(), logger)
	if err != nil {
		return err
	}
	if err := c.Start(ctx); err != nil {
		return err
	}
	defer c.Close()

	resp, err := c.Services().Sync.RunSync(ctx, service.SyncRequest{
		CompanyID:             opts.companyID,
		ActorUserID:           opts.actorUserID,
		DryRun:                opts.dryRun,
		TargetLegacyRecordIDs: opts.targets,
		Overrides:             overrides,
		BaseURL:               opts.baseURL,
		LegacyScopeID:         opts.scopeID,
	})
	if err != nil {
		return err
	}

	if opts.reportPath != "" {
		if err := c.Reports().WriteFile(resp.Result, opts.reportPath); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		resp.ReportPath = opts.reportPath
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	return printSummary(out, resp)
}

func printSummary(out io.Writer, resp *service.SyncResponse) error {
	s := resp.Summary
	mode := "committed"
	if s.DryRun {
		mode = "dry run"
	}

	lines := []string{
		fmt.Sprintf("run %s (%s)", resp.RunID, mode),
		fmt.Sprintf("  fetched %d, targeted %d", s.Fetched, s.Targeted),
		fmt.Sprintf("  processed %d, already synced %d, skipped %d, unmatched %d, errors %d",
			s.Processed, s.AlreadySynced, s.Skipped, s.Unmatched, s.Errors),
		fmt.Sprintf("  stages dropped %d", s.StagesDropped),
	}
	if resp.ReportPath != "" {
		lines = append(lines, "  report "+resp.ReportPath)
	}
	_, err := fmt.Fprintln(out, strings.Join(lines, "\n"))
	return err
}
