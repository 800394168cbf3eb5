// Package cli implements the patentcliff command line.  Commands run the
// pipeline in-process unless --server points them at an API server.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/turtacn/PatentCliff/internal/application/consolidation"
	"github.com/turtacn/PatentCliff/internal/application/reporting"
	"github.com/turtacn/PatentCliff/internal/bootstrap"
	"github.com/turtacn/PatentCliff/internal/config"
	"github.com/turtacn/PatentCliff/internal/domain/cliff"
	domainCons "github.com/turtacn/PatentCliff/internal/domain/consolidation"
	"github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentCliff/pkg/client"
	"github.com/turtacn/PatentCliff/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Output formats accepted by -o.
const (
	OutputJSON     = "json"
	OutputYAML     = "yaml"
	OutputTable    = "table"
	OutputMarkdown = "markdown"
	OutputHTML     = "html"
)

var outputFormats = []string{OutputJSON, OutputYAML, OutputTable, OutputMarkdown, OutputHTML}

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	Timeout      time.Duration
	ServerAddr   string
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	Client       *client.Client
	OutputFormat string
	Timeout      time.Duration

	reports reporting.Generator
}

// backend is what consolidate, cliff and watch need.  Both the local
// service and the SDK client satisfy it.
type backend interface {
	Consolidate(ctx context.Context, req *consolidation.Request) (*domainCons.Output, error)
	Cliff(ctx context.Context, req *consolidation.Request) (*cliff.Result, error)
}

// NewRootCommand creates the root cobra command with all global flags and subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "patentcliff",
		Short: "Consolidate patent search results into WO families and patent-cliff timelines",
		Long: "patentcliff merges raw patent records from several search sources, groups\n" +
			"national filings under their WO publications and estimates when each\n" +
			"patent family loses protection.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./patentcliff.yaml if present)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", OutputJSON, "output format ("+strings.Join(outputFormats, ", ")+")")
	pf.DurationVar(&opts.Timeout, "timeout", 5*time.Minute, "overall operation timeout")
	pf.StringVar(&opts.ServerAddr, "server", "", "API server address; runs locally when empty")

	cmd.AddCommand(
		NewConsolidateCmd(),
		NewCliffCmd(),
		NewReportCmd(),
		NewWatchCmd(),
		NewRunsCmd(),
		NewVersionCmd(),
	)
	return cmd
}

// persistentPreRun initializes config, logger, and client, then stores CLIContext.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	format := strings.ToLower(opts.OutputFormat)
	if !validOutput(format) {
		return errors.Newf(errors.ErrCodeValidation, "unknown output format %q", opts.OutputFormat).
			WithDetail("expected one of " + strings.Join(outputFormats, ", "))
	}

	cfg, err := initConfig(opts)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger, err := initLogger(opts, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	apiClient, err := initClient(opts)
	if err != nil {
		return fmt.Errorf("client initialization failed: %w", err)
	}

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		Client:       apiClient,
		OutputFormat: format,
		Timeout:      opts.Timeout,
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cliCtx))
	return nil
}

func validOutput(f string) bool {
	for _, o := range outputFormats {
		if o == f {
			return true
		}
	}
	return false
}

// initConfig loads the config file when present, otherwise the environment
// and defaults.  The CLI never exposes metrics.
func initConfig(opts *RootOptions) (*config.Config, error) {
	path := opts.ConfigPath
	if path == "" {
		path = "./patentcliff.yaml"
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	cfg.Metrics.Enabled = false
	return cfg, nil
}

// initLogger creates a console logger writing to stderr.
func initLogger(opts *RootOptions, stderr io.Writer) (logging.Logger, error) {
	level, err := logging.ParseLevel(opts.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.NewConsoleLogger(stderr, level), nil
}

// initClient creates an API client when --server is set.
func initClient(opts *RootOptions) (*client.Client, error) {
	if opts.ServerAddr == "" {
		return nil, nil
	}
	return client.NewClient(opts.ServerAddr,
		client.WithTimeout(opts.Timeout),
		client.WithUserAgent("patentcliff-cli/"+Version))
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "CLIContext not found in command context")
	}
	return cliCtx, nil
}

// Remote reports whether commands go through the API server.
func (c *CLIContext) Remote() bool { return c.Client != nil }

// withBackend runs fn against the API client or a local service.  Local
// adapters enabled in the config are connected for the duration of fn.
func (c *CLIContext) withBackend(ctx context.Context, fn func(backend) error) error {
	if c.Remote() {
		return fn(c.Client)
	}
	app, err := bootstrap.New(ctx, c.Config, c.Logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if cerr := app.Close(closeCtx); cerr != nil {
			c.Logger.Warn("failed to close adapters", logging.Err(cerr))
		}
	}()
	c.reports = app.Reports
	return fn(app.Service)
}

// Reports returns the report generator, creating one if no local app has.
func (c *CLIContext) Reports() (reporting.Generator, error) {
	if c.reports != nil {
		return c.reports, nil
	}
	gen, err := reporting.NewGenerator(c.Logger)
	if err != nil {
		return nil, err
	}
	c.reports = gen
	return gen, nil
}

// commandContext bounds ctx by the --timeout flag.
func (c *CLIContext) commandContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.Timeout)
}

// Execute is the main entry point for the CLI application.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Output
// ─────────────────────────────────────────────────────────────────────────────

// tableProvider is implemented by results that have a tabular view.
type tableProvider interface {
	TableHeaders() []string
	TableRows() [][]string
}

// PrintResult outputs data in the format specified by CLIContext.  Markdown
// and HTML are only meaningful for consolidation output and are handled by
// the callers; everything else falls back to JSON for those formats.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	format := OutputJSON
	if cliCtx, err := GetCLIContext(cmd); err == nil {
		format = cliCtx.OutputFormat
	}
	return writeResult(cmd.OutOrStdout(), format, data)
}

func writeResult(w io.Writer, format string, data interface{}) error {
	switch format {
	case OutputYAML:
		return printYAML(w, data)
	case OutputTable:
		if tp, ok := data.(tableProvider); ok {
			_, err := io.WriteString(w, FormatTable(tp.TableHeaders(), tp.TableRows()))
			return err
		}
		return printJSON(w, data)
	default:
		return printJSON(w, data)
	}
}

// printJSON outputs data as indented JSON.
func printJSON(w io.Writer, data interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// printYAML goes through JSON first so the json tags name the keys.
func printYAML(w io.Writer, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode result")
	}
	var generic interface{}
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode result")
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(generic)
}

// PrintError writes a formatted error message to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
}

// FormatTable renders headers and rows as an aligned ASCII table.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	colWidths := make([]int, len(headers))
	for i, h := range headers {
		colWidths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(colWidths); i++ {
			if len(row[i]) > colWidths[i] {
				colWidths[i] = len(row[i])
			}
		}
	}

	var sb strings.Builder
	for i, h := range headers {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(padRight(h, colWidths[i]))
	}
	sb.WriteString("\n")

	for i, w := range colWidths {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(strings.Repeat("-", w))
	}
	sb.WriteString("\n")

	for _, row := range rows {
		for i := 0; i < len(headers); i++ {
			if i > 0 {
				sb.WriteString("  ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			sb.WriteString(padRight(val, colWidths[i]))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// padRight pads s with spaces to the given width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

//Personal.AI order the ending
