package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sacredwitness/prereq/pkg/errors"
	"github.com/sacredwitness/prereq/pkg/export"
	"github.com/sacredwitness/prereq/pkg/graph"
	"github.com/sacredwitness/prereq/pkg/resolve"
)

// exportOpts holds the command-line flags for the export command.
type exportOpts struct {
	game    string // game slug override
	refresh bool   // bypass the page/API cache
	format  string // output format: "svg" or "dot"
	output  string // output file; a recognized extension overrides --format
}

// newExportCmd creates the export command for writing the requirement graph
// as DOT or SVG. The input is either a mod id (which triggers a resolution)
// or a JSON graph written earlier by resolve --output.
func newExportCmd() *cobra.Command {
	var opts exportOpts

	cmd := &cobra.Command{
		Use:   "export <mod-id|graph.json>",
		Short: "Export the requirement graph as DOT or SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVar(&opts.game, "game", "", "game slug (overrides config)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached pages and API responses")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "svg", "output format: svg or dot")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (extension overrides --format)")

	return cmd
}

func runExport(ctx context.Context, input string, opts *exportOpts) error {
	logger := loggerFromContext(ctx)

	g, base, err := loadGraph(ctx, input, opts)
	if err != nil {
		return err
	}

	format := opts.format
	switch ext := filepath.Ext(opts.output); ext {
	case ".svg":
		format = "svg"
	case ".dot", ".gv":
		format = "dot"
	case "":
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unsupported output extension %q (use .svg, .dot, or .gv)", ext)
	}
	if format != "svg" && format != "dot" {
		return errors.New(errors.ErrCodeInvalidInput, "unsupported format %q (use svg or dot)", format)
	}
	output := opts.output
	if output == "" {
		output = base + "." + format
	}

	dot := export.ToDOT(g)
	data := []byte(dot)
	if format == "svg" {
		logger.Debug("Rendering SVG")
		data, err = export.RenderSVG(ctx, dot)
		if err != nil {
			return err
		}
	}

	if err := os.WriteFile(output, data, 0o644); err != nil {
		return err
	}
	printSuccess("Exported requirement graph")
	printFile(output)
	return nil
}

// loadGraph resolves a mod id or reads a saved JSON graph, and returns the
// graph with the base name for derived output files.
func loadGraph(ctx context.Context, input string, opts *exportOpts) (*graph.Graph, string, error) {
	logger := loggerFromContext(ctx)

	if modID, err := strconv.Atoi(input); err == nil {
		sess, err := newSession(ctx, configFromContext(ctx), opts.game)
		if err != nil {
			return nil, "", err
		}
		prog := newProgress(logger)
		result, err := sess.engine.Resolve(ctx, modID, resolve.Options{
			Refresh: opts.refresh,
			Logger:  logger.Debugf,
		})
		if err != nil {
			return nil, "", err
		}
		prog.done(fmt.Sprintf("Resolved %d requirements", result.Graph.Len()-1))
		return result.Graph, fmt.Sprintf("mod_%d", modID), nil
	}

	g, err := graph.ReadFile(input)
	if err != nil {
		return nil, "", err
	}
	logger.Debugf("Loaded graph: %d nodes", g.Len())
	return g, strings.TrimSuffix(input, filepath.Ext(input)), nil
}
