package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/PatentCliff/internal/application/consolidation"
	"github.com/turtacn/PatentCliff/internal/application/reporting"
	"github.com/turtacn/PatentCliff/internal/domain/cliff"
	domainCons "github.com/turtacn/PatentCliff/internal/domain/consolidation"
	"github.com/turtacn/PatentCliff/internal/domain/family"
	"github.com/turtacn/PatentCliff/internal/interfaces/http/handlers"
	"github.com/turtacn/PatentCliff/internal/testutil"
	"github.com/turtacn/PatentCliff/pkg/errors"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type result struct {
	stdout string
	stderr string
	err    error
}

func execute(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

func writeJSONFile(t *testing.T, dir, name string, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// ---------------------------------------------------------------------------
// Root
// ---------------------------------------------------------------------------

func TestNewRootCommand_Structure(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "patentcliff", cmd.Use)
	assert.NotEmpty(t, cmd.Short)

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"consolidate", "cliff", "report", "watch", "runs", "version"} {
		assert.True(t, names[want], want)
	}

	for _, flag := range []string{"config", "log-level", "output", "timeout", "server"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
	assert.Equal(t, "o", cmd.PersistentFlags().Lookup("output").Shorthand)
	assert.Equal(t, "json", cmd.PersistentFlags().Lookup("output").DefValue)
}

func TestRoot_RejectsUnknownOutput(t *testing.T) {
	res := execute(t, "", "version", "-o", "xml")
	require.Error(t, res.err)
	assert.True(t, errors.IsCode(res.err, errors.ErrCodeValidation))
	assert.Contains(t, res.err.Error(), "xml")
}

func TestRoot_RejectsBadServerURL(t *testing.T) {
	res := execute(t, "", "version", "--server", "ftp://nope")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "client initialization failed")
}

func TestVersion(t *testing.T) {
	res := execute(t, "", "version")
	require.NoError(t, res.err)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &info))
	assert.Equal(t, Version, info["version"])

	res = execute(t, "", "version", "-o", "table")
	require.NoError(t, res.err)
	assert.True(t, strings.HasPrefix(res.stdout, "patentcliff "+Version))
}

func TestGetCLIContext_Missing(t *testing.T) {
	cmd := NewConsolidateCmd()
	cmd.SetContext(context.Background())
	_, err := GetCLIContext(cmd)
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Output helpers
// ---------------------------------------------------------------------------

func TestFormatTable(t *testing.T) {
	out := FormatTable([]string{"ID", "NAME"}, [][]string{{"1", "alpha"}, {"22"}})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "ID  NAME ", lines[0])
	assert.Equal(t, "--  -----", lines[1])
	assert.Equal(t, "1   alpha", lines[2])
	assert.Equal(t, "22       ", lines[3])

	assert.Empty(t, FormatTable(nil, nil))
}

func TestWriteResult_YAMLUsesJSONNames(t *testing.T) {
	var buf bytes.Buffer
	run := &domainCons.Run{ID: "run-1", RecordsReceived: 3}
	require.NoError(t, writeResult(&buf, OutputYAML, run))
	assert.Contains(t, buf.String(), "id: run-1")
	assert.Contains(t, buf.String(), "records_received: 3")
}

func TestWriteResult_TableFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, OutputTable, map[string]int{"a": 1}))
	assert.JSONEq(t, `{"a":1}`, buf.String())
}

// ---------------------------------------------------------------------------
// Input
// ---------------------------------------------------------------------------

func TestDecodeRequestFile(t *testing.T) {
	f, err := decodeRequestFile("a.json", []byte(`  [{"publication_number":"WO1"}]`))
	require.NoError(t, err)
	assert.Len(t, f.Records, 1)

	f, err = decodeRequestFile("b.json", []byte(`{"query":"q","records":[],"options":{"max_years":5}}`))
	require.NoError(t, err)
	assert.Equal(t, "q", f.Query)
	assert.Empty(t, f.Records)
	assert.Equal(t, 5, f.Options.MaxYears)

	for name, body := range map[string]string{
		"empty":      "  ",
		"scalar":     "42",
		"no-records": `{"query":"q"}`,
		"bad-json":   `[{"a":}]`,
		"null-entry": `[null]`,
	} {
		_, err := decodeRequestFile(name, []byte(body))
		assert.True(t, errors.IsCode(err, errors.ErrCodeConsolidationInvalidInput), name)
	}
}

func TestReadRequest_MergesFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeJSONFile(t, dir, "a.json", map[string]any{"query": "first", "records": testutil.ScenarioRecords()[:1]})
	b := writeJSONFile(t, dir, "b.json", testutil.ScenarioRecords()[1:])

	req, err := readRequest([]string{a, b, stdinPath}, strings.NewReader(`{"query":"later","records":[{"publication_number":"US1"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "first", req.Query)
	assert.Len(t, req.Records, 3)
}

func TestRequestFlags_Apply(t *testing.T) {
	f := requestFlags{query: "override", maxYears: 12, precedence: []string{"INPI"}}
	req := &consolidation.Request{Query: "file", Records: []map[string]any{}}
	require.NoError(t, f.apply(req))
	assert.Equal(t, "override", req.Query)
	require.NotNil(t, req.Options)
	assert.Equal(t, 12, req.Options.MaxYears)
	assert.Equal(t, []string{"INPI"}, req.Options.Precedence)

	bad := requestFlags{maxPerYear: 1000}
	err := bad.apply(&consolidation.Request{Records: []map[string]any{}})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Contains(t, err.Error(), "MaxPerYear")
}

// ---------------------------------------------------------------------------
// Local commands
// ---------------------------------------------------------------------------

type LocalCommandSuite struct {
	suite.Suite
	dir   string
	input string
}

func TestLocalCommandSuite(t *testing.T) {
	suite.Run(t, new(LocalCommandSuite))
}

func (s *LocalCommandSuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.input = writeJSONFile(s.T(), s.dir, "scenario.json", testutil.ScenarioRecords())
}

func (s *LocalCommandSuite) TestConsolidate_JSON() {
	res := execute(s.T(), "", "consolidate", s.input, "--query", "glp-1")
	s.Require().NoError(res.err, res.stderr)

	var out domainCons.Output
	s.Require().NoError(json.Unmarshal([]byte(res.stdout), &out))
	s.Equal("glp-1", out.Metadata.Query)
	s.Require().Len(out.ConsolidatedPatents, 1)
	s.Equal("WO2013084138", out.ConsolidatedPatents[0].WONumber)
	s.Contains(out.ConsolidatedPatents[0].NationalPatents, "BR")
}

func (s *LocalCommandSuite) TestConsolidate_Stdin() {
	body, err := json.Marshal(map[string]any{"records": testutil.ScenarioRecords()})
	s.Require().NoError(err)
	res := execute(s.T(), string(body), "consolidate", "-", "-o", "yaml")
	s.Require().NoError(res.err, res.stderr)
	s.Contains(res.stdout, "wo_number: WO2013084138")
}

func (s *LocalCommandSuite) TestConsolidate_Table() {
	res := execute(s.T(), "", "consolidate", s.input, "-o", "table")
	s.Require().NoError(res.err, res.stderr)
	s.Contains(res.stdout, "WO NUMBER")
	s.Contains(res.stdout, "WO2013084138")
	s.Contains(res.stdout, "2033-01-10")
}

func (s *LocalCommandSuite) TestConsolidate_Markdown() {
	res := execute(s.T(), "", "consolidate", s.input, "-o", "markdown", "--query", "glp-1")
	s.Require().NoError(res.err, res.stderr)
	s.True(strings.HasPrefix(res.stdout, "# Patent Cliff Report: glp-1"))
}

func (s *LocalCommandSuite) TestConsolidate_InvalidOption() {
	res := execute(s.T(), "", "consolidate", s.input, "--max-years", "500")
	s.Require().Error(res.err)
	s.True(errors.IsValidation(res.err))
}

func (s *LocalCommandSuite) TestConsolidate_MissingFile() {
	res := execute(s.T(), "", "consolidate", filepath.Join(s.dir, "nope.json"))
	s.Require().Error(res.err)
	s.True(errors.IsCode(res.err, errors.ErrCodeConsolidationInvalidInput))
}

func (s *LocalCommandSuite) TestConsolidate_RequiresFile() {
	res := execute(s.T(), "", "consolidate")
	s.Error(res.err)
}

func (s *LocalCommandSuite) TestCliff_Table() {
	res := execute(s.T(), "", "cliff", s.input, "-o", "table")
	s.Require().NoError(res.err, res.stderr)
	s.Contains(res.stdout, "YEAR")
	s.Contains(res.stdout, "2033")
}

func (s *LocalCommandSuite) TestCliff_JSON() {
	res := execute(s.T(), "", "cliff", s.input)
	s.Require().NoError(res.err, res.stderr)
	var out cliff.Result
	s.Require().NoError(json.Unmarshal([]byte(res.stdout), &out))
	s.True(out.Complete)
	s.Equal(1, out.Summary.TotalFamilies)
	s.Equal("2033-01-10", out.Summary.EarliestExpiration)
}

func (s *LocalCommandSuite) TestCliff_RejectsMarkdown() {
	res := execute(s.T(), "", "cliff", s.input, "-o", "markdown")
	s.Require().Error(res.err)
	s.True(errors.IsValidation(res.err))
}

func (s *LocalCommandSuite) TestReport_ToFile() {
	dst := filepath.Join(s.dir, "cliff.html")
	res := execute(s.T(), "", "report", s.input, "--format", "html", "--out", dst)
	s.Require().NoError(res.err, res.stderr)
	s.Empty(res.stdout)

	data, err := os.ReadFile(dst)
	s.Require().NoError(err)
	s.Contains(string(data), "<html")
	s.Contains(string(data), "WO2013084138")
}

func (s *LocalCommandSuite) TestReport_Stdout() {
	res := execute(s.T(), "", "report", s.input)
	s.Require().NoError(res.err, res.stderr)
	s.Contains(res.stdout, "# Patent Cliff Report")
}

func (s *LocalCommandSuite) TestReport_ArgumentErrors() {
	s.True(errors.IsCode(execute(s.T(), "", "report", s.input, "--format", "pdf").err, errors.ErrCodeReportFormatUnsupported))
	s.True(errors.IsValidation(execute(s.T(), "", "report").err))
	s.True(errors.IsValidation(execute(s.T(), "", "report", "--run", "run-1").err))
}

func (s *LocalCommandSuite) TestRuns_NeedsServer() {
	res := execute(s.T(), "", "runs")
	s.Require().Error(res.err)
	s.Contains(res.err.Error(), "--server")
}

// ---------------------------------------------------------------------------
// Remote commands
// ---------------------------------------------------------------------------

type RemoteCommandSuite struct {
	suite.Suite
	server *httptest.Server
	input  string
}

func TestRemoteCommandSuite(t *testing.T) {
	suite.Run(t, new(RemoteCommandSuite))
}

func (s *RemoteCommandSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	svc := consolidation.NewService(consolidation.Config{
		Family:  family.DefaultOptions(),
		Cliff:   cliff.DefaultOptions(),
		Version: "test",
	}, consolidation.Deps{
		Clock: testutil.FixedClock,
		NewID: func() string { return "run-remote" },
	})
	gen, err := reporting.NewGenerator(nil)
	s.Require().NoError(err)

	r := gin.New()
	api := r.Group("/api/v1")
	handlers.NewConsolidationHandler(svc, gen, nil).RegisterRoutes(api)
	// The in-memory service keeps no history; serve runs from a stub.
	runs := gin.New()
	runs.GET("/api/v1/consolidations", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"runs": []*domainCons.Run{{
			ID: "run-7", Status: domainCons.RunComplete, Complete: true,
			RecordsReceived: 2, WOEntries: 1, NationalPatents: 1,
			EarliestExpiration: "2033-01-10", RiskLevel: "low",
			CreatedAt: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		}}, "limit": 20})
	})
	runs.GET("/api/v1/consolidations/:id", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": string(errors.ErrCodeConsolidationRunNotFound), "message": "run not found"})
	})
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodGet && !strings.HasSuffix(req.URL.Path, "/report") {
			runs.ServeHTTP(w, req)
			return
		}
		r.ServeHTTP(w, req)
	}))
	s.T().Cleanup(s.server.Close)
	s.input = writeJSONFile(s.T(), s.T().TempDir(), "scenario.json", testutil.ScenarioRecords())
}

func (s *RemoteCommandSuite) TestConsolidate() {
	res := execute(s.T(), "", "consolidate", s.input, "--server", s.server.URL)
	s.Require().NoError(res.err, res.stderr)
	var out domainCons.Output
	s.Require().NoError(json.Unmarshal([]byte(res.stdout), &out))
	s.Equal("run-remote", out.Metadata.RunID)
	s.Len(out.ConsolidatedPatents, 1)
}

func (s *RemoteCommandSuite) TestConsolidate_ServerValidation() {
	res := execute(s.T(), "", "consolidate", s.input, "--server", s.server.URL, "--precedence", "EPO,")
	s.Require().Error(res.err)
}

func (s *RemoteCommandSuite) TestRuns_List() {
	res := execute(s.T(), "", "runs", "--server", s.server.URL, "-o", "table")
	s.Require().NoError(res.err, res.stderr)
	s.Contains(res.stdout, "EARLIEST EXPIRY")
	s.Contains(res.stdout, "run-7")
	s.Contains(res.stdout, "2024-01-10T00:00:00Z")
}

func (s *RemoteCommandSuite) TestRuns_NotFound() {
	res := execute(s.T(), "", "runs", "missing", "--server", s.server.URL)
	s.Require().Error(res.err)
	s.Contains(res.err.Error(), string(errors.ErrCodeConsolidationRunNotFound))
}

//Personal.AI order the ending
