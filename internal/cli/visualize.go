package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"

	"github.com/matzehuels/brickshell/pkg/errors"
	brickio "github.com/matzehuels/brickshell/pkg/io"
	"github.com/matzehuels/brickshell/pkg/pipeline"
	"github.com/matzehuels/brickshell/pkg/render"
	"github.com/matzehuels/brickshell/pkg/shell"
)

// visualizeOpts holds the command-line flags of the visualize command.
type visualizeOpts struct {
	output  string
	formats string
	views   string
	width   float64 // inches
	height  float64 // inches
}

// visualizeCommand creates the visualize command for plotting a placement
// file.
func (c *CLI) visualizeCommand() *cobra.Command {
	opts := visualizeOpts{output: ".", width: 8, height: 6}

	cmd := &cobra.Command{
		Use:   "visualize [placement.csv|placement.json]",
		Short: "Plot a placement file as elevations, plan and isometric views",
		Long: `Plot a placement file as elevations, plan and isometric views.

Active bricks are drawn as steel-blue squares and carved bricks as orange
crosses. One image is written per view and format, e.g. front.png.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := pipeline.FilePlacementCSV
			if len(args) == 1 {
				input = args[0]
			}
			return c.runVisualize(input, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "output directory")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "image format(s): png (default), svg, pdf (comma-separated)")
	cmd.Flags().StringVar(&opts.views, "views", "", "views: front, back, left, right, plan, iso (default all)")
	cmd.Flags().Float64Var(&opts.width, "width", opts.width, "image width in inches")
	cmd.Flags().Float64Var(&opts.height, "height", opts.height, "image height in inches")

	return cmd
}

func (c *CLI) runVisualize(input string, opts visualizeOpts) error {
	if err := errors.ValidatePath(input); err != nil {
		return err
	}
	formats := parseList(opts.formats)
	if len(formats) == 0 {
		formats = []string{pipeline.FormatPNG}
	}
	for _, f := range formats {
		if !pipeline.IsImageFormat(f) {
			return errors.New(errors.ErrCodeInvalidInput, "invalid image format %q (must be png, svg or pdf)", f)
		}
	}
	views := render.Views
	if names := parseList(opts.views); len(names) > 0 {
		views = nil
		for _, name := range names {
			v, err := render.ParseView(name)
			if err != nil {
				return err
			}
			views = append(views, v)
		}
	}

	bricks, err := loadPlacement(input)
	if err != nil {
		return err
	}
	c.Logger.Debug("loaded placement", "path", input, "bricks", len(bricks))

	prog := newProgress(c.Logger)
	size := render.WithSize(vg.Length(opts.width)*vg.Inch, vg.Length(opts.height)*vg.Inch)
	artifacts := make(map[string][]byte, len(views)*len(formats))
	for _, format := range formats {
		for _, view := range views {
			data, err := render.Render(bricks, view, size, render.WithFormat(format))
			if err != nil {
				return fmt.Errorf("render %s view: %w", view, err)
			}
			artifacts[pipeline.ViewFileName(view, format)] = data
		}
	}
	prog.done(fmt.Sprintf("Rendered %d images", len(artifacts)))

	paths, err := writeArtifacts(opts.output, artifacts)
	if err != nil {
		return err
	}
	printSuccess("Rendered %d bricks", len(bricks))
	for _, p := range paths {
		printFile(p)
	}
	return nil
}

// loadPlacement reads bricks from a placement CSV, or JSON by extension.
func loadPlacement(path string) ([]shell.Brick, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		c, err := brickio.ImportPlacementJSON(path)
		if err != nil {
			return nil, err
		}
		return c.Bricks(), nil
	}
	return brickio.ImportPlacementCSV(path)
}
