// Package commands implements the enginectl operator CLI: inspect the
// registries and dry-run commands against the pipeline without a server
// running, in the spirit of the teacher's echoctl/cmd.go root-command
// assembly (internal/echoctl/cmd/cmd.go) but built on plain cobra since
// the teacher's own cliflag/genericclioptions/verflag scaffolding lives in
// an external module this repo does not vendor.
package commands

import (
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/forgecrew/promptengine/internal/engine"
)

var (
	sessionStorePath   string
	defaultFrameworkID string
)

// NewRootCommand builds the `enginectl` command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "enginectl",
		Short: "Inspect and exercise the prompt execution engine from the command line",
		Long: heredoc.Doc(`
			enginectl is the operator CLI for the prompt execution engine.

			It lists the registered prompts, gates, frameworks, and styles, shows
			a command's parsed form and prompt template without dispatching it, and runs a command
			end-to-end through the same pipeline the HTTP and MCP transports drive.
		`),
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&sessionStorePath, "session-store", "", "BoltDB file for chain sessions (defaults to an in-memory store)")
	flags.StringVar(&defaultFrameworkID, "default-framework", "", "framework ID used when a command doesn't specify one")
	_ = viper.BindPFlags(flags)

	root.AddCommand(
		newPromptsCommand(),
		newGatesCommand(),
		newFrameworksCommand(),
		newStylesCommand(),
		newRunCommand(),
		newRenderCommand(),
	)
	return root
}

// buildEngine assembles an engine.Engine from the bound persistent flags,
// mirroring the Config → Complete → New construction cmd/promptengine/main.go
// uses for the server itself.
func buildEngine() (*engine.Engine, error) {
	cfg := &engine.Config{
		SessionStorePath:   sessionStorePath,
		DefaultFrameworkID: defaultFrameworkID,
	}
	e, err := cfg.Complete().New()
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	if err := e.Start(); err != nil {
		return nil, fmt.Errorf("start engine: %w", err)
	}
	return e, nil
}

func exitOnError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "enginectl:", err)
	os.Exit(1)
}
