package cli

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/turtacn/PatentCliff/internal/application/consolidation"
	"github.com/turtacn/PatentCliff/pkg/errors"
)

// stdinPath names standard input on the command line.
const stdinPath = "-"

var validate = validator.New(validator.WithRequiredStructEnabled())

// requestFile is the object form of an input file.  A bare JSON array is
// read as the records list.
type requestFile struct {
	Query   string                        `json:"query"`
	Records []map[string]any              `json:"records"`
	Options *consolidation.RequestOptions `json:"options"`
}

// requestFlags are the pipeline overrides shared by consolidate, cliff,
// report and watch.
type requestFlags struct {
	query             string
	precedence        []string
	disableTitleMatch bool
	maxYears          int
	maxPerYear        int
}

func (f *requestFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.query, "query", "", "label stored with the run (overrides the file)")
	fl.StringSliceVar(&f.precedence, "precedence", nil, "source precedence for field conflicts, highest first")
	fl.BoolVar(&f.disableTitleMatch, "disable-title-match", false, "do not link families by title prefix")
	fl.IntVar(&f.maxYears, "max-years", 0, "timeline horizon in years (1-50)")
	fl.IntVar(&f.maxPerYear, "max-per-year", 0, "families listed per timeline year (1-100)")
}

// apply overlays the flags on req and validates the result.
func (f *requestFlags) apply(req *consolidation.Request) error {
	if f.query != "" {
		req.Query = f.query
	}
	if len(f.precedence) > 0 || f.disableTitleMatch || f.maxYears != 0 || f.maxPerYear != 0 {
		if req.Options == nil {
			req.Options = &consolidation.RequestOptions{}
		}
		if len(f.precedence) > 0 {
			req.Options.Precedence = f.precedence
		}
		if f.disableTitleMatch {
			req.Options.DisableTitleMatch = true
		}
		if f.maxYears != 0 {
			req.Options.MaxYears = f.maxYears
		}
		if f.maxPerYear != 0 {
			req.Options.MaxPerYear = f.maxPerYear
		}
	}
	return validateRequest(req)
}

func validateRequest(req *consolidation.Request) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.Wrap(err, errors.ErrCodeValidation, "invalid request")
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), strings.TrimSuffix(fe.Tag()+"="+fe.Param(), "=")))
	}
	return errors.New(errors.ErrCodeValidation, "invalid request").WithDetail(strings.Join(parts, "; "))
}

// readRequest merges the records of every path into one request.  The
// query and options come from the first file that carries them.
func readRequest(paths []string, stdin io.Reader) (*consolidation.Request, error) {
	req := &consolidation.Request{Records: []map[string]any{}}
	for _, p := range paths {
		f, err := readFile(p, stdin)
		if err != nil {
			return nil, err
		}
		req.Records = append(req.Records, f.Records...)
		if req.Query == "" {
			req.Query = f.Query
		}
		if req.Options == nil {
			req.Options = f.Options
		}
	}
	return req, nil
}

// request converts a single decoded file to a service request.
func (f *requestFile) request() *consolidation.Request {
	return &consolidation.Request{Query: f.Query, Records: f.Records, Options: f.Options}
}

func readFile(path string, stdin io.Reader) (*requestFile, error) {
	var (
		data []byte
		err  error
	)
	if path == stdinPath {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeConsolidationInvalidInput, "cannot read %s", path)
	}
	return decodeRequestFile(path, data)
}

func decodeRequestFile(name string, data []byte) (*requestFile, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.Newf(errors.ErrCodeConsolidationInvalidInput, "%s is empty", name)
	}

	var f requestFile
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &f.Records); err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeConsolidationInvalidInput, "%s: records must be a JSON array of objects", name)
		}
	case '{':
		if err := json.Unmarshal(trimmed, &f); err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeConsolidationInvalidInput, "%s: malformed JSON", name)
		}
		if f.Records == nil {
			return nil, errors.Newf(errors.ErrCodeConsolidationInvalidInput, "%s: missing \"records\"", name)
		}
	default:
		return nil, errors.Newf(errors.ErrCodeConsolidationInvalidInput, "%s: expected a JSON array or an object with \"records\"", name)
	}
	for i, r := range f.Records {
		if r == nil {
			return nil, errors.Newf(errors.ErrCodeConsolidationInvalidInput, "%s: record %d is not an object", name, i)
		}
	}
	return &f, nil
}

//Personal.AI order the ending
