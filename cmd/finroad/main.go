package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/npratt/finroad/internal/config"
	"github.com/npratt/finroad/internal/export"
	initcmd "github.com/npratt/finroad/internal/init"
	"github.com/npratt/finroad/internal/journey"
	"github.com/npratt/finroad/internal/shutdown"
	"github.com/npratt/finroad/internal/suggest"
	"github.com/npratt/finroad/internal/tui"
	"github.com/npratt/finroad/internal/viewport"
	"github.com/npratt/finroad/internal/watcher"
)

var version = "dev"

// loadConfig reads the layered configuration and applies explicitly set
// flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cmd.Flags().Changed(FlagLogFile) {
		cfg.Paths.Log = viper.GetString(FlagLogFile)
	}
	if f := cmd.Flags().Lookup(FlagBaseURL); f != nil && f.Changed {
		cfg.Chat.BaseURL = viper.GetString(FlagBaseURL)
	}
	if f := cmd.Flags().Lookup(FlagThread); f != nil && f.Changed {
		cfg.Chat.ThreadID = viper.GetString(FlagThread)
	}
	if f := cmd.Flags().Lookup(FlagModel); f != nil && f.Changed {
		cfg.Chat.Model = viper.GetString(FlagModel)
	}
	if f := cmd.Flags().Lookup(FlagWatch); f != nil && f.Changed {
		cfg.Journey.Watch = viper.GetBool(FlagWatch)
	}
	if f := cmd.Flags().Lookup(FlagFormat); f != nil && f.Changed {
		cfg.Export.Format = viper.GetString(FlagFormat)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// journeyPath returns the document named on the command line, else the
// configured one.
func journeyPath(args []string, cfg *config.Config) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Journey.Path
}

func bindFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})
}

// bindCommandFlags binds the flags of the command being run. Subcommands
// share flag names such as --node and --json, so binding happens per run.
func bindCommandFlags(cmd *cobra.Command, args []string) {
	bindFlags(cmd.Flags())
}

func main() {
	logLevel := &slog.LevelVar{}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	viper.SetEnvPrefix("FINROAD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:   "finroad",
		Short: "Financial roadmap explorer",
		Long: `finroad shows a financial journey as a graph of milestones: dependency
levels, progress and unlocking, the next best step, and an advisory chat.

The journey is a JSON or YAML document. Commands take its path as the first
argument, falling back to journey.path from .finroad/config.yaml.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if viper.GetBool(FlagVerbose) {
				logLevel.Set(slog.LevelDebug)
				logger.Debug("verbose logging enabled")
			}
		},
	}

	rootCmd.PersistentFlags().Bool(FlagVerbose, false, "Enable verbose (debug) logging")
	rootCmd.PersistentFlags().String(FlagConfig, "", "Config file path (default: .finroad/config.yaml)")
	rootCmd.PersistentFlags().String(FlagLogFile, "", "Log file path")
	bindFlags(rootCmd.PersistentFlags())

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("finroad %s\n", version)
		},
	}

	viewCmd := &cobra.Command{
		Use:   "view [journey]",
		Short: "Explore the roadmap in the terminal UI",
		Long: `Open the roadmap in an interactive terminal UI with pan, zoom, node
dragging, the suggestion panel and the chat pane.

Without a terminal the roadmap is printed as plain text instead. With --watch
the view reloads whenever the document changes on disk.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tuiEnabled := viper.GetBool(FlagTUI)
			if !cmd.Flags().Changed(FlagTUI) {
				tuiEnabled = term.IsTerminal(int(os.Stdout.Fd()))
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			path := journeyPath(args, cfg)

			viewLogger := logger
			if tuiEnabled {
				tuiLog := openViewLog(cfg, logLevel)
				defer func() { _ = tuiLog.Close() }()
				viewLogger = tuiLog.Logger
				slog.SetDefault(viewLogger)
			}

			r, err := openRoadmap(path, viewLogger)
			if err != nil {
				return err
			}
			defer r.Close()

			app := tui.New(r,
				tui.WithChat(newChat(cfg, viewLogger)),
				tui.WithLimits(viewport.Limits{
					MinScale: cfg.Viewport.MinScale,
					MaxScale: cfg.Viewport.MaxScale,
					ZoomStep: cfg.Viewport.ZoomStep,
				}),
				tui.WithSource(filepath.Base(path)),
				tui.WithPlainOutput(!tuiEnabled),
			)

			if cfg.Journey.Watch {
				w, err := watcher.New(path, r.Replace,
					watcher.WithDebounce(cfg.Journey.Debounce),
					watcher.WithOnError(app.ReportError),
					watcher.WithLogger(viewLogger),
				)
				if err != nil {
					return err
				}
				if err := w.Start(cmd.Context()); err != nil {
					return fmt.Errorf("watch %s: %w", path, err)
				}
				defer func() { _ = w.Stop() }()
			}

			viewLogger.Info("finroad view starting", "version", version, "journey", path, "watch", cfg.Journey.Watch)
			return app.Run()
		},
	}
	viewCmd.Flags().Bool(FlagTUI, false, "Force the terminal UI on or off (default: auto-detect)")
	viewCmd.Flags().Bool(FlagWatch, false, "Reload when the document changes")

	layoutCmd := &cobra.Command{
		Use:   "layout [journey]",
		Short: "Print levels, columns and positions of every node",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			r, err := openRoadmap(journeyPath(args, cfg), logger)
			if err != nil {
				return err
			}
			defer r.Close()
			return writeLayout(os.Stdout, r.Journey(), r.Layout(), viper.GetBool(FlagJSON))
		},
	}
	layoutCmd.Flags().Bool(FlagJSON, false, "Output as JSON")

	suggestCmd := &cobra.Command{
		Use:   "suggest [journey]",
		Short: "Show the next best step",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			r, err := openRoadmap(journeyPath(args, cfg), logger)
			if err != nil {
				return err
			}
			defer r.Close()
			return writeSuggestion(os.Stdout, r.Journey(), r.Suggestion(), viper.GetBool(FlagJSON))
		},
	}
	suggestCmd.Flags().Bool(FlagJSON, false, "Output as JSON")

	applyCmd := &cobra.Command{
		Use:   "apply [journey]",
		Short: "Record progress on a node and save the document",
		Long: `Record progress on a node and write the journey back in place.

  --step N       apply the node's N-th suggested step
  --percent P    set the node's percent (the manual slider)
  --subnode ID   complete a subnode, optionally with --amount
  --amount A     add A to the node's current value

The node defaults to the suggested one. Dependents are unlocked and the
overall percent is recomputed before saving.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			path := journeyPath(args, cfg)

			req := applyRequest{
				NodeID:    viper.GetString(FlagNode),
				SubnodeID: viper.GetString(FlagSubnode),
				Step:      viper.GetInt(FlagStep),
			}
			if cmd.Flags().Changed(FlagAmount) {
				req.Amount = journey.Float(viper.GetFloat64(FlagAmount))
			}
			if cmd.Flags().Changed(FlagPercent) {
				req.Percent = journey.Float(viper.GetFloat64(FlagPercent))
			}

			j, changed, err := applyToFile(path, req, logger)
			if err != nil {
				return err
			}
			if !changed {
				fmt.Println("No change.")
				return nil
			}
			fmt.Printf("Saved %s (overall %s)\n", path, suggest.ProgressLabel(j.OverallPercent()))
			return nil
		},
	}
	applyCmd.Flags().String(FlagNode, "", "Node id (default: the suggested node)")
	applyCmd.Flags().String(FlagSubnode, "", "Subnode id to complete")
	applyCmd.Flags().Float64(FlagAmount, 0, "Amount to add to the node's current value")
	applyCmd.Flags().Float64(FlagPercent, 0, "Set the node's percent")
	applyCmd.Flags().Int(FlagStep, 0, "Apply the N-th suggested step")

	validateCmd := &cobra.Command{
		Use:   "validate [journey]",
		Short: "Check a journey document for structural problems",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			j, err := journey.Load(journeyPath(args, cfg))
			if err != nil {
				return err
			}
			return validateJourney(os.Stdout, j)
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export [journey]",
		Short: "Render the roadmap to an SVG or PNG snapshot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			path := journeyPath(args, cfg)
			r, err := openRoadmap(path, logger)
			if err != nil {
				return err
			}
			defer r.Close()

			out := viper.GetString(FlagOutput)
			if out == "" {
				out = strings.TrimSuffix(path, filepath.Ext(path)) + "." + cfg.Export.Format
			} else if filepath.Ext(out) == "" {
				out += "." + cfg.Export.Format
			}

			opts := export.Options{
				Title:     viper.GetString(FlagTitle),
				Highlight: viper.GetString(FlagHighlight),
			}
			if err := export.Save(out, r.Journey(), opts); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", out)
			return nil
		},
	}
	exportCmd.Flags().StringP(FlagOutput, "o", "", "Output file (extension selects the format)")
	exportCmd.Flags().String(FlagFormat, "", "Format when the output has no extension (svg or png)")
	exportCmd.Flags().String(FlagTitle, "", "Header text (default: the journey title)")
	exportCmd.Flags().String(FlagHighlight, "", "Node to outline (default: the suggested node)")

	watchCmd := &cobra.Command{
		Use:   "watch [journey]",
		Short: "Print the next step every time the document changes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			path := journeyPath(args, cfg)
			r, err := openRoadmap(path, logger)
			if err != nil {
				return err
			}

			if err := writeSuggestion(os.Stdout, r.Journey(), r.Suggestion(), false); err != nil {
				r.Close()
				return err
			}

			errs := make(chan error, 8)
			w, err := watcher.New(path, r.Replace,
				watcher.WithDebounce(cfg.Journey.Debounce),
				watcher.WithLogger(logger),
				watcher.WithOnError(func(err error) {
					select {
					case errs <- err:
					default:
					}
				}),
			)
			if err != nil {
				r.Close()
				return err
			}

			return shutdown.RunWithGracefulShutdown(
				cmd.Context(),
				logger,
				5*time.Second,
				func(runCtx context.Context) error {
					if err := w.Start(runCtx); err != nil {
						return fmt.Errorf("watch %s: %w", path, err)
					}
					logger.Info("watching journey", "path", w.Path())
					return followRoadmap(runCtx, os.Stdout, r, errs, time.Now)
				},
				func(shutdownCtx context.Context) error {
					err := w.Stop()
					r.Close()
					return err
				},
			)
		},
	}

	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the financial assistant",
	}
	chatCmd.PersistentFlags().String(FlagBaseURL, "", "Chat API base URL")
	chatCmd.PersistentFlags().String(FlagThread, "", "Chat thread id")
	chatCmd.PersistentFlags().String(FlagModel, "", "Advisory model (general, cumulative, accounting)")

	chatSendCmd := &cobra.Command{
		Use:   "send <question>",
		Short: "Send a prompt and print the thread",
		Long: `Send a prompt to the active thread and print the conversation.

With --node the question is wrapped in the context prompt (chat.context_prompt
or chat.context_prompt_file) describing that step of the journey.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			question := strings.Join(args, " ")

			prompt := question
			if nodeID := viper.GetString(FlagNode); nodeID != "" {
				r, err := openRoadmap(cfg.Journey.Path, logger)
				if err != nil {
					return err
				}
				prompt, err = chatPrompt(cfg, r.Journey(), nodeID, question)
				r.Close()
				if err != nil {
					return err
				}
			}

			c := newChat(cfg, logger)
			if err := c.IO.Send(cmd.Context(), prompt, nil); err != nil {
				_ = writeMessages(os.Stdout, c.Messages.List(c.Threads.ActiveID()))
				return err
			}
			return writeMessages(os.Stdout, c.Messages.List(c.Threads.ActiveID()))
		},
	}
	chatSendCmd.Flags().String(FlagNode, "", "Ask about this node of the journey")

	chatHistoryCmd := &cobra.Command{
		Use:   "history",
		Short: "Print the messages of a thread",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			c := newChat(cfg, logger)
			if err := c.IO.LoadHistory(cmd.Context()); err != nil {
				return err
			}
			return writeMessages(os.Stdout, c.Messages.List(c.Threads.ActiveID()))
		},
	}

	chatCmd.AddCommand(chatSendCmd)
	chatCmd.AddCommand(chatHistoryCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a finroad config and a starter journey",
		Long: `Create the project configuration and a starter roadmap:

  .finroad/
    config.yaml
  journey.yaml (unless --minimal)

With --global only ~/.config/finroad/config.yaml is written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := initcmd.Options{
				DryRun:  viper.GetBool(FlagDryRun),
				Force:   viper.GetBool(FlagForce),
				Minimal: viper.GetBool(FlagMinimal),
				Global:  viper.GetBool(FlagGlobal),
			}

			_, err := initcmd.Run(opts)
			return err
		},
	}
	initCmd.Flags().Bool(FlagDryRun, false, "Show what would be changed without making changes")
	initCmd.Flags().Bool(FlagForce, false, "Overwrite existing files (creates timestamped backups)")
	initCmd.Flags().Bool(FlagMinimal, false, "Write only the config file")
	initCmd.Flags().Bool(FlagGlobal, false, "Write ~/.config/finroad/config.yaml instead of ./.finroad/")

	for _, cmd := range []*cobra.Command{
		viewCmd, layoutCmd, suggestCmd, applyCmd, validateCmd, exportCmd,
		watchCmd, chatSendCmd, chatHistoryCmd, initCmd,
	} {
		cmd.PreRun = bindCommandFlags
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(layoutCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(initCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
