package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/brickshell/pkg/errors"
	brickio "github.com/matzehuels/brickshell/pkg/io"
	"github.com/matzehuels/brickshell/pkg/prompt"
)

// promptCommand creates the prompt command, which turns a description of
// doors and windows into an openings file.
func (c *CLI) promptCommand() *cobra.Command {
	var (
		output string
		model  string
	)

	cmd := &cobra.Command{
		Use:   "prompt [description]",
		Short: "Describe doors and windows in plain language and write openings.json",
		Long: `Describe doors and windows in plain language and write openings.json.

The description is sent to an OpenAI-compatible chat completion endpoint
(OPENAI_API_KEY, OPENAI_BASE_URL, OPENAI_MODEL). Unspecified values fall back
to a 900 × 2100 mm door on the ground or a 1200 × 1000 mm window at a 900 mm
sill, 2000 mm from the left corner of the wall. Records that fail validation
are reported and left out of the file.

Example:
  brickshell prompt "a front door and two windows on the left wall"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("model") {
				cfg.Prompt.Model = model
			}
			if err := errors.ValidatePath(output); err != nil {
				return err
			}

			popts := cfg.PromptOptions()
			popts.Logger = c.Logger
			client, err := prompt.NewClient(popts)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			spinner := newSpinnerWithContext(ctx, "Asking "+popts.Model+"...")
			spinner.Start()
			res, err := client.Openings(ctx, strings.Join(args, " "))
			if err != nil {
				spinner.StopWithError("Prompt failed")
				return err
			}
			spinner.StopWithSuccess(fmt.Sprintf("Received %d openings", len(res.Specs)+len(res.Skipped)))

			for _, s := range res.Skipped {
				printWarning("Skipping %s", s)
			}

			if err := brickio.ExportOpeningsJSON(res.Specs, output); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}

			printSuccess("Openings saved to %s", output)
			for _, s := range res.Specs {
				printDetail("%s on %s wall at x=%d z=%d, %d × %d mm", s.Type, s.Wall, s.XMM, s.ZMM, s.WidthMM, s.HeightMM)
			}
			printNewline()
			printNextStep("Solve", "brickshell solve --openings "+output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", defaultOpenings, "openings file to write")
	cmd.Flags().StringVar(&model, "model", "", "chat model (default from config or OPENAI_MODEL)")

	return cmd
}
