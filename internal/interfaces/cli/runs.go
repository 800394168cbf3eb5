package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	domainCons "github.com/turtacn/PatentCliff/internal/domain/consolidation"
	"github.com/turtacn/PatentCliff/pkg/errors"
)

// NewRunsCmd creates the runs command.
func NewRunsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs [ID]",
		Short: "List recent consolidation runs, or show one run",
		Long:  "Run history lives in the server's database, so this command needs --server.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if !cliCtx.Remote() {
				return errors.New(errors.ErrCodeValidation, "runs needs --server")
			}
			ctx, cancel := cliCtx.commandContext(cmd.Context())
			defer cancel()

			if len(args) == 1 {
				run, err := cliCtx.Client.GetRun(ctx, args[0])
				if err != nil {
					return err
				}
				return PrintResult(cmd, runsView{run})
			}
			runs, err := cliCtx.Client.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			return PrintResult(cmd, runsView(runs))
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "number of runs to list (server default when 0)")
	return cmd
}

// runsView is a list of runs with a tabular form.
type runsView []*domainCons.Run

func (v runsView) TableHeaders() []string {
	return []string{"ID", "CREATED", "STATUS", "RECORDS", "REJECTED", "WO", "NATIONALS", "EARLIEST EXPIRY", "RISK"}
}

func (v runsView) TableRows() [][]string {
	rows := make([][]string, 0, len(v))
	for _, r := range v {
		status := string(r.Status)
		if !r.Complete {
			status += " (partial)"
		}
		rows = append(rows, []string{
			r.ID,
			r.CreatedAt.UTC().Format(time.RFC3339),
			status,
			strconv.Itoa(r.RecordsReceived),
			strconv.Itoa(r.RecordsRejected),
			strconv.Itoa(r.WOEntries),
			strconv.Itoa(r.NationalPatents),
			dash(r.EarliestExpiration),
			dash(r.RiskLevel),
		})
	}
	return rows
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := struct {
				Version   string `json:"version"`
				GitCommit string `json:"git_commit"`
				BuildDate string `json:"build_date"`
			}{Version, GitCommit, BuildDate}
			cliCtx, err := GetCLIContext(cmd)
			if err == nil && cliCtx.OutputFormat != OutputJSON && cliCtx.OutputFormat != OutputYAML {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "patentcliff %s (commit: %s, built: %s)\n", Version, GitCommit, BuildDate)
				return err
			}
			return PrintResult(cmd, info)
		},
	}
}

//Personal.AI order the ending
