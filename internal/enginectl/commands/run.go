package commands

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/forgecrew/promptengine/internal/pipeline"
)

func newRunCommand() *cobra.Command {
	var chainID, userResponse, gateAction string
	var forceRestart bool

	cmd := &cobra.Command{
		Use:   "run <command>",
		Short: "Execute a command through the pipeline and print the response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEngine()
			if err != nil {
				return err
			}
			defer e.Stop()

			resp, err := e.Execute(cmd.Context(), pipeline.Request{
				Command:      args[0],
				ChainID:      chainID,
				UserResponse: userResponse,
				GateAction:   gateAction,
				ForceRestart: forceRestart,
			})
			if err != nil {
				return err
			}
			printResponse(resp)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&chainID, "chain-id", "", "resume an in-flight chain session")
	flags.StringVar(&userResponse, "user-response", "", "response to the previous chain step")
	flags.StringVar(&gateAction, "gate-action", "", "retry | skip | abort")
	flags.BoolVar(&forceRestart, "force-restart", false, "discard any existing chain session for chain-id")
	return cmd
}

func newRenderCommand() *cobra.Command {
	var preview bool

	cmd := &cobra.Command{
		Use:   "render <command>",
		Short: "Parse a command without planning or executing it, printing a summary and the prompt's template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := pipeline.ParseCommand(args[0])
			if err != nil {
				return err
			}

			e, err := buildEngine()
			if err != nil {
				return err
			}
			defer e.Stop()

			promptID := parsed.PromptID
			if promptID == "" && len(parsed.Steps) > 0 {
				promptID = parsed.Steps[0].PromptID
			}
			def, ok := e.Prompts.Resolve(promptID)
			if !ok {
				return fmt.Errorf("unknown prompt %q", promptID)
			}

			out := fmt.Sprintf("# %s\n\n- format: `%s`\n- type: `%s`\n- framework override: `%s`\n- style: `%s`\n\n```\n%s\n```\n",
				def.Name, parsed.Format, parsed.CommandType, parsed.FrameworkOverride, parsed.StyleSelection, def.UserMessageTemplate)

			if preview {
				fmt.Println(renderMarkdown(out))
			} else {
				fmt.Println(out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&preview, "preview", false, "render the parse summary as styled markdown (glamour)")
	return cmd
}

func printResponse(resp *pipeline.Response) {
	for _, c := range resp.Content {
		fmt.Println(renderMarkdown(c.Text))
	}
	if resp.CallToAction != "" {
		fmt.Println()
		fmt.Println(resp.CallToAction)
	}
}

func renderMarkdown(md string) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
