package cli

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/admin-console/pkg/config"
)

// App carries the resolved settings shared by every subcommand.
type App struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Pretty  bool
	Verbose bool

	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCmd builds the consolectl command tree.
func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "consolectl",
		Short:        "Drive admin console list screens from the terminal",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # First two pages of shipped orders
  consolectl list orders --status shipped --pages 2

  # Users created this week, as JSON
  consolectl list users --preset week --json

  # Publish a live user count to every open users screen
  consolectl live publish 1280
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		app.cfg = cfg
		if !cmd.Flags().Changed("base-url") && cfg.Remote.BaseURL != "" {
			app.BaseURL = cfg.Remote.BaseURL
		}
		if !cmd.Flags().Changed("token") && cfg.Remote.Token != "" {
			app.Token = cfg.Remote.Token
		}
		if !cmd.Flags().Changed("timeout") && cfg.Remote.Timeout > 0 {
			app.Timeout = cfg.Remote.Timeout
		}
		app.logger = zap.NewNop()
		if app.Verbose {
			logger, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			app.logger = logger
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.BaseURL, "base-url", "", "Remote list service base URL (default: REMOTE_BASE_URL)")
	cmd.PersistentFlags().StringVar(&app.Token, "token", "", "Bearer token for the remote list service (default: REMOTE_TOKEN)")
	cmd.PersistentFlags().DurationVar(&app.Timeout, "timeout", 10*time.Second, "Remote request timeout")
	cmd.PersistentFlags().BoolVar(&app.Pretty, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Log fetches to stderr")

	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newLiveCmd(app))

	return cmd
}

func writeJSON(cmd *cobra.Command, app *App, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	if app.Pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
