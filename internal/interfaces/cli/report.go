package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/PatentCliff/internal/application/reporting"
	domainCons "github.com/turtacn/PatentCliff/internal/domain/consolidation"
	"github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentCliff/pkg/errors"
)

type reportOptions struct {
	requestFlags
	format string
	out    string
	runID  string
}

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	var opts reportOptions
	cmd := &cobra.Command{
		Use:   "report [FILE...]",
		Short: "Render a patent cliff report as Markdown or HTML",
		Long: "Consolidates the given files and renders the cliff report.  With --run\n" +
			"the report of a stored run is fetched from the server instead.",
		Example: "  patentcliff report results.json --format html --out cliff.html\n" +
			"  patentcliff report --server http://localhost:8080 --run 5f0c...",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			return runReport(cmd, cliCtx, args, &opts)
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&opts.format, "format", "md", "report format: md|html")
	cmd.Flags().StringVar(&opts.out, "out", "", "write the report to this file instead of stdout")
	cmd.Flags().StringVar(&opts.runID, "run", "", "render a stored run (requires --server)")
	return cmd
}

func runReport(cmd *cobra.Command, cliCtx *CLIContext, paths []string, opts *reportOptions) error {
	format, err := reporting.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	switch {
	case opts.runID != "" && len(paths) > 0:
		return errors.New(errors.ErrCodeValidation, "give either FILE arguments or --run, not both")
	case opts.runID != "" && !cliCtx.Remote():
		return errors.New(errors.ErrCodeValidation, "--run needs --server")
	case opts.runID == "" && len(paths) == 0:
		return errors.New(errors.ErrCodeValidation, "no input files")
	}

	ctx, cancel := cliCtx.commandContext(cmd.Context())
	defer cancel()

	var body []byte
	if opts.runID != "" {
		body, err = cliCtx.Client.Report(ctx, opts.runID, format)
	} else {
		body, err = localReport(ctx, cmd.InOrStdin(), cliCtx, paths, opts, format)
	}
	if err != nil {
		return err
	}

	if opts.out == "" {
		_, err = cmd.OutOrStdout().Write(body)
		return err
	}
	if err := os.WriteFile(opts.out, body, 0o644); err != nil {
		return errors.Wrapf(err, errors.ErrCodeInternal, "cannot write %s", opts.out)
	}
	cliCtx.Logger.Info("report written", logging.String("path", opts.out), logging.Int("bytes", len(body)))
	return nil
}

func localReport(ctx context.Context, stdin io.Reader, cliCtx *CLIContext, paths []string, opts *reportOptions, format reporting.Format) ([]byte, error) {
	req, err := readRequest(paths, stdin)
	if err != nil {
		return nil, err
	}
	if err := opts.apply(req); err != nil {
		return nil, err
	}
	var out *domainCons.Output
	err = cliCtx.withBackend(ctx, func(b backend) error {
		var cerr error
		out, cerr = b.Consolidate(ctx, req)
		return cerr
	})
	if err != nil {
		return nil, err
	}
	gen, err := cliCtx.Reports()
	if err != nil {
		return nil, err
	}
	rep, err := gen.Render(ctx, out, format)
	if err != nil {
		return nil, err
	}
	return rep.Body, nil
}

//Personal.AI order the ending
