package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/PatentCliff/internal/domain/cliff"
	"github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentCliff/pkg/errors"
)

// NewCliffCmd creates the cliff command.
func NewCliffCmd() *cobra.Command {
	var flags requestFlags
	cmd := &cobra.Command{
		Use:   "cliff FILE...",
		Short: "Print the year-by-year expiry timeline of the patent families",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			return runCliff(cmd, cliCtx, args, &flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func runCliff(cmd *cobra.Command, cliCtx *CLIContext, paths []string, flags *requestFlags) error {
	switch cliCtx.OutputFormat {
	case OutputMarkdown, OutputHTML:
		return errors.Newf(errors.ErrCodeValidation, "cliff does not render %s; use report or consolidate", cliCtx.OutputFormat)
	}
	req, err := readRequest(paths, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if err := flags.apply(req); err != nil {
		return err
	}

	ctx, cancel := cliCtx.commandContext(cmd.Context())
	defer cancel()

	var res *cliff.Result
	err = cliCtx.withBackend(ctx, func(b backend) error {
		var cerr error
		res, cerr = b.Cliff(ctx, req)
		return cerr
	})
	if err != nil {
		return err
	}
	if !res.Complete {
		cliCtx.Logger.Warn("analysis budget exhausted, timeline is partial",
			logging.Int("records_total", res.RecordsTotal),
			logging.Int("records_processed", res.RecordsProcessed))
	}
	if cliCtx.OutputFormat == OutputTable {
		return writeResult(cmd.OutOrStdout(), OutputTable, cliffView{res})
	}
	return writeResult(cmd.OutOrStdout(), cliCtx.OutputFormat, res)
}

// cliffView lists one row per timeline year.
type cliffView struct {
	res *cliff.Result
}

func (v cliffView) TableHeaders() []string {
	return []string{"YEAR", "FAMILIES", "PATENTS", "FIRST EXPIRY", "FAMILY IDS"}
}

func (v cliffView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.res.Timeline))
	for _, y := range v.res.Timeline {
		ids := make([]string, 0, len(y.Expirations))
		first := "-"
		for i, e := range y.Expirations {
			ids = append(ids, e.FamilyID)
			if i == 0 {
				first = e.ExpirationDate
			}
		}
		if y.OmittedFamilies > 0 {
			ids = append(ids, "+"+strconv.Itoa(y.OmittedFamilies)+" more")
		}
		rows = append(rows, []string{
			strconv.Itoa(y.Year),
			strconv.Itoa(y.FamiliesExpiring),
			strconv.Itoa(y.PatentsExpiring),
			first,
			strings.Join(ids, ","),
		})
	}
	return rows
}

//Personal.AI order the ending
