package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/PatentCliff/internal/application/reporting"
	domainCons "github.com/turtacn/PatentCliff/internal/domain/consolidation"
	"github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/logging"
)

// NewConsolidateCmd creates the consolidate command.
func NewConsolidateCmd() *cobra.Command {
	var flags requestFlags
	cmd := &cobra.Command{
		Use:   "consolidate FILE...",
		Short: "Group national filings under their WO publications",
		Long: "Reads raw patent records from one or more JSON files (\"-\" for stdin),\n" +
			"merges duplicates across sources and prints the consolidated families.\n" +
			"A file holds either a JSON array of records or an object with \"records\".",
		Example: "  patentcliff consolidate epo.json inpi.json -o table\n" +
			"  cat results.json | patentcliff consolidate - --query semaglutide -o markdown",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			return runConsolidate(cmd, cliCtx, args, &flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func runConsolidate(cmd *cobra.Command, cliCtx *CLIContext, paths []string, flags *requestFlags) error {
	req, err := readRequest(paths, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if err := flags.apply(req); err != nil {
		return err
	}

	ctx, cancel := cliCtx.commandContext(cmd.Context())
	defer cancel()

	var out *domainCons.Output
	err = cliCtx.withBackend(ctx, func(b backend) error {
		var cerr error
		out, cerr = b.Consolidate(ctx, req)
		return cerr
	})
	if err != nil {
		return err
	}
	cliCtx.Logger.Info("consolidation finished",
		logging.String(logging.FieldRunID, out.Metadata.RunID),
		logging.Int("wo_entries", out.Statistics.TotalWOPatents),
		logging.Int("rejected", out.Metadata.RecordsRejected),
		logging.Bool("remote", cliCtx.Remote()))
	return writeOutput(ctx, cmd.OutOrStdout(), cliCtx, out)
}

// writeOutput prints a consolidation in the selected format.
func writeOutput(ctx context.Context, w io.Writer, cliCtx *CLIContext, out *domainCons.Output) error {
	switch cliCtx.OutputFormat {
	case OutputMarkdown:
		return renderReport(ctx, w, cliCtx, out, reporting.FormatMarkdown)
	case OutputHTML:
		return renderReport(ctx, w, cliCtx, out, reporting.FormatHTML)
	case OutputTable:
		return writeResult(w, OutputTable, consolidationView{out})
	default:
		return writeResult(w, cliCtx.OutputFormat, out)
	}
}

func renderReport(ctx context.Context, w io.Writer, cliCtx *CLIContext, out *domainCons.Output, format reporting.Format) error {
	gen, err := cliCtx.Reports()
	if err != nil {
		return err
	}
	rep, err := gen.Render(ctx, out, format)
	if err != nil {
		return err
	}
	_, err = w.Write(rep.Body)
	return err
}

// consolidationView is the tabular form of an Output: one row per WO
// entry, then one per national filing without a WO.
type consolidationView struct {
	out *domainCons.Output
}

func (v consolidationView) TableHeaders() []string {
	return []string{"WO NUMBER", "PROVENANCE", "JURISDICTIONS", "NATIONALS", "EARLIEST EXPIRY", "YEARS LEFT"}
}

func (v consolidationView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.out.ConsolidatedPatents)+len(v.out.PatentsWithoutWO))
	for i := range v.out.ConsolidatedPatents {
		e := &v.out.ConsolidatedPatents[i]
		impact := e.PatentCliffImpact
		rows = append(rows, []string{
			e.WONumber,
			string(e.Provenance),
			strings.Join(e.Jurisdictions(), ","),
			strconv.Itoa(impact.TotalNationalPatents),
			dash(impact.EarliestExpiration),
			years(impact.YearsUntilExpiration),
		})
	}
	for _, o := range v.out.WOPatentsWithoutNationals {
		rows = append(rows, []string{o.WONumber, string(o.Provenance), "-", "0", "-", "-"})
	}
	for _, o := range v.out.PatentsWithoutWO {
		rows = append(rows, []string{
			"(" + o.Patent.PatentNumber + ")",
			"no WO",
			o.Jurisdiction,
			"1",
			dash(o.Patent.Dates.ExpirationDate),
			"-",
		})
	}
	return rows
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func years(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}

//Personal.AI order the ending
