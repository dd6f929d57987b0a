// Package cli implements the chorechat command line: seeding a family into the
// store and running assistant turns or quick stats against it.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ashureev/chorechat/internal/agent"
	"github.com/ashureev/chorechat/internal/assistant"
	"github.com/ashureev/chorechat/internal/llm"
	"github.com/ashureev/chorechat/internal/store"
	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit string) {
	appVersion = version
	appCommit = commit
}

type options struct {
	dbPath   string
	familyID string
	timezone string
	provider string
	model    string
	verbose  bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "chorechat",
		Short: "Household chore assistant",
		Long: `chorechat talks to the family chore assistant from a terminal.

Seed a family from JSON, then ask the assistant to create chores or explain
how the family is doing. Without a configured language model every component
answers with its keyword fallback.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.dbPath, "db", envOr("DB_PATH", "./data/chorechat.db"), "SQLite database path")
	flags.StringVar(&opts.familyID, "family", envOr("CHORECHAT_FAMILY_ID", ""), "family id")
	flags.StringVar(&opts.timezone, "timezone", envOr("TIMEZONE", "UTC"), "time zone for due dates")
	flags.StringVar(&opts.provider, "provider", envOr("LLM_PROVIDER", llm.ProviderNone), "language model provider (anthropic, openai, none)")
	flags.StringVar(&opts.model, "model", envOr("LLM_MODEL", ""), "language model name")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log pipeline details to stderr")

	root.AddCommand(
		newSeedCmd(opts),
		newAskCmd(opts),
		newStatsCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "chorechat %s\ncommit: %s\n", appVersion, appCommit)
			},
		},
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func (o *options) location() (*time.Location, error) {
	loc, err := time.LoadLocation(o.timezone)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %w", o.timezone, err)
	}
	return loc, nil
}

func (o *options) requireFamily() error {
	if o.familyID == "" {
		return fmt.Errorf("--family is required")
	}
	return nil
}

func (o *options) openStore() (store.Repository, *time.Location, error) {
	loc, err := o.location()
	if err != nil {
		return nil, nil, err
	}
	repo, err := store.NewSQLite(o.dbPath, store.WithLocation(loc))
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	return repo, loc, nil
}

// service wires the full pipeline the way the server does.
func (o *options) service(repo store.Repository, loc *time.Location) (*agent.Service, error) {
	client, err := llm.New(llm.Config{
		Provider: o.provider,
		Model:    o.model,
		APIKey:   os.Getenv("LLM_API_KEY"),
		BaseURL:  os.Getenv("LLM_BASE_URL"),
	})
	if err != nil {
		return nil, fmt.Errorf("configuring language model: %w", err)
	}
	clock := func() time.Time { return time.Now().In(loc) }
	pipeline := assistant.NewPipeline(client, assistant.PipelineConfig{Clock: clock})
	return agent.NewService(pipeline, repo, agent.ServiceConfig{Location: loc, Clock: clock}, nil), nil
}
