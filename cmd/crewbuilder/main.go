package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"crewbuilder/internal/bundle"
	"crewbuilder/internal/config"
	"crewbuilder/internal/llm"
	"crewbuilder/internal/pipeline"
	"crewbuilder/internal/workers/integration"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "crewbuilder",
		Short:        "Turn a business requirement into a multi-agent crew package",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress progress logging")

	rootCmd.AddCommand(newSynthesizeCommand())
	rootCmd.AddCommand(newCatalogCommand())
	rootCmd.AddCommand(newShowCommand())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func logger(cmd *cobra.Command) *log.Logger {
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		return log.New(io.Discard, "", 0)
	}
	return log.New(os.Stderr, "", log.LstdFlags)
}

// loadConfig applies --store and --out over the environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if s, _ := cmd.Flags().GetString("store"); s != "" {
		cfg.Bundle.Store = strings.ToLower(s)
	}
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		cfg.Bundle.Dir = out
	}
	return cfg, nil
}

func newSynthesizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synthesize [requirement]",
		Short: "Run the pipeline once and store the bundle",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := requirementText(cmd, args)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			lg := logger(cmd)
			ctx := cmd.Context()

			cli, err := llm.NewFromConfig(ctx, cfg.Oracle, lg)
			if err != nil {
				return err
			}
			if cli == nil {
				lg.Printf("no oracle credentials configured, running deterministic fallbacks only")
			} else {
				defer cli.Close()
			}
			store, err := bundle.Open(ctx, cfg.Bundle, lg)
			if err != nil {
				return err
			}
			if c, ok := store.(io.Closer); ok {
				defer c.Close()
			}

			s := pipeline.New(cli, pipeline.Options{Logger: lg, Timeout: cfg.Oracle.Timeout})
			ctx = pipeline.WithEmitter(ctx, pipeline.EmitterFunc(func(ev pipeline.Event) {
				if ev.Type == pipeline.EventState {
					lg.Printf("run %s: %s", ev.RunID, ev.State)
				}
			}))
			res := s.Synthesize(ctx, text)
			if res.Status == pipeline.StatusCompleted {
				if err := bundle.Save(ctx, store, res.Bundle); err != nil {
					return err
				}
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
			} else {
				printSummary(cmd.OutOrStdout(), res, cfg.Bundle)
			}
			if res.Err != nil {
				return fmt.Errorf("run %s failed at %s: %w", res.RunID, res.Diagnostic.Stage, res.Err)
			}
			return nil
		},
	}
	cmd.Flags().StringP("text", "t", "", "requirement text")
	cmd.Flags().StringP("file", "f", "", "read the requirement from a file (- for stdin)")
	cmd.Flags().String("store", "", "bundle store: memory, file, s3, postgres or sqlite")
	cmd.Flags().StringP("out", "o", "", "output directory for the file store")
	cmd.Flags().Bool("json", false, "print the run result as JSON")
	return cmd
}

func requirementText(cmd *cobra.Command, args []string) (string, error) {
	text, _ := cmd.Flags().GetString("text")
	file, _ := cmd.Flags().GetString("file")
	switch {
	case file == "-":
		b, err := io.ReadAll(cmd.InOrStdin())
		return string(b), err
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read requirement: %w", err)
		}
		return string(b), nil
	case text != "":
		return text, nil
	case len(args) == 1:
		return args[0], nil
	}
	return "", fmt.Errorf("a requirement is required: pass it as an argument, --text or --file")
}

func printSummary(w io.Writer, res pipeline.Result, cfg config.BundleConfig) {
	fmt.Fprintf(w, "Run %s: %s (%s)\n", res.RunID, res.Status, res.State)
	if res.Status != pipeline.StatusCompleted {
		if d := res.Diagnostic; d != nil {
			fmt.Fprintf(w, "Stage: %s\nError: %s\n", d.Stage, d.Message)
		}
		return
	}
	a, p := res.Architecture, res.Plan
	fmt.Fprintf(w, "Crew: %s (%d agents, %d tasks, ~%s)\n", a.Name, len(a.Agents), len(a.Tasks), a.EstimatedRuntime)
	fmt.Fprintf(w, "APIs: %d (%d critical), %s, setup %s\n", p.TotalAPIs, p.CriticalAPIs, p.TotalEstimatedCost, p.EstimatedSetupTime)
	fmt.Fprintf(w, "Integration order: %s\n", strings.Join(p.IntegrationSequence, " -> "))
	for _, r := range p.RiskFactors {
		fmt.Fprintf(w, "  risk: %s\n", r)
	}
	fmt.Fprintf(w, "Bundle: %d files in %s store", len(res.Bundle.Files), cfg.Store)
	if cfg.Store == "file" || cfg.Store == "" {
		fmt.Fprintf(w, " under %s/%s", cfg.Dir, res.RunID)
	}
	fmt.Fprintln(w)
}

func newCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the integration knowledge base",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := integration.DefaultCatalog()
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(c)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "catalog %s\n", c.Version)
			fmt.Fprintln(tw, "NAME\tCATEGORY\tCOST\tSETUP\tDOCS\tRELIABILITY")
			for _, s := range c.Services {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n", s.Name, s.Category, s.EstimatedMonthlyCost, s.SetupComplexity, s.DocumentationQuality, s.ReliabilityScore)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Bool("json", false, "print as JSON")
	return cmd
}

func newShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id> [path]",
		Short: "List a stored bundle or print one of its files",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			store, err := bundle.Open(ctx, cfg.Bundle, logger(cmd))
			if err != nil {
				return err
			}
			if c, ok := store.(io.Closer); ok {
				defer c.Close()
			}
			runID := args[0]
			if len(args) == 2 {
				b, err := store.Get(ctx, runID, args[1])
				if err != nil {
					return fmt.Errorf("%s/%s: %w", runID, args[1], err)
				}
				_, err = cmd.OutOrStdout().Write(b)
				return err
			}
			paths, err := store.List(ctx, runID)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("run %s: %w", runID, bundle.ErrNotFound)
			}
			for _, p := range paths {
				u, err := store.GetURL(ctx, runID, p)
				if err != nil || u == "" {
					fmt.Fprintln(cmd.OutOrStdout(), p)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p, u)
			}
			return nil
		},
	}
	cmd.Flags().String("store", "", "bundle store: memory, file, s3, postgres or sqlite")
	cmd.Flags().StringP("out", "o", "", "output directory for the file store")
	return cmd
}
