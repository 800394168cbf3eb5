// Package reporting renders consolidation results as Markdown cliff reports
// and converts them to standalone HTML pages.
package reporting

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	domainCons "github.com/turtacn/PatentCliff/internal/domain/consolidation"
	"github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentCliff/pkg/errors"
)

// Format selects the report encoding.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// ParseFormat accepts the short and long spellings of each format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	}
	return "", errors.Newf(errors.ErrCodeReportFormatUnsupported, "unsupported report format %q", s)
}

// ContentType is the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatHTML {
		return "text/html; charset=utf-8"
	}
	return "text/markdown; charset=utf-8"
}

// Report is one rendered document.
type Report struct {
	Format Format
	Title  string
	Body   []byte
}

// Generator renders reports.
type Generator interface {
	Render(ctx context.Context, out *domainCons.Output, format Format) (*Report, error)
}

//go:embed templates/*.tmpl
var templateFS embed.FS

type generator struct {
	markdown *texttemplate.Template
	page     *template.Template
	md       goldmark.Markdown
	logger   logging.Logger
}

// NewGenerator parses the embedded templates.
func NewGenerator(logger logging.Logger) (Generator, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	markdown, err := texttemplate.New("cliff_report.md.tmpl").Funcs(texttemplate.FuncMap{
		"join":  strings.Join,
		"years": formatYears,
		"cell":  markdownCell,
		"link":  func(pn string) string { return domainCons.GooglePatentsURL + pn },
	}).ParseFS(templateFS, "templates/cliff_report.md.tmpl")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReportRenderFailed, "failed to parse report template")
	}
	page, err := template.ParseFS(templateFS, "templates/page.html.tmpl")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReportRenderFailed, "failed to parse page template")
	}
	return &generator{
		markdown: markdown,
		page:     page,
		md:       goldmark.New(goldmark.WithExtensions(extension.GFM)),
		logger:   logger.Named("reporting"),
	}, nil
}

func (g *generator) Render(ctx context.Context, out *domainCons.Output, format Format) (*Report, error) {
	if out == nil {
		return nil, errors.New(errors.ErrCodeConsolidationInvalidInput, "nothing to report")
	}
	title := "Patent Cliff Report"
	if q := out.Metadata.Query; q != "" {
		title += ": " + q
	}

	var md bytes.Buffer
	if err := g.markdown.Execute(&md, out); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReportRenderFailed, "failed to render markdown")
	}
	rep := &Report{Format: format, Title: title}

	switch format {
	case FormatMarkdown:
		rep.Body = md.Bytes()
	case FormatHTML:
		var content bytes.Buffer
		if err := g.md.Convert(md.Bytes(), &content); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeReportRenderFailed, "markdown convert")
		}
		var page bytes.Buffer
		// goldmark drops raw HTML unless WithUnsafe is set.
		if err := g.page.Execute(&page, struct {
			Title   string
			Content template.HTML
		}{title, template.HTML(content.String())}); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeReportRenderFailed, "failed to render page")
		}
		rep.Body = page.Bytes()
	default:
		return nil, errors.Newf(errors.ErrCodeReportFormatUnsupported, "unsupported report format %q", format)
	}

	g.logger.WithContext(ctx).Debug("report rendered",
		logging.String("format", string(format)),
		logging.String(logging.FieldRunID, out.Metadata.RunID),
		logging.Int("bytes", len(rep.Body)))
	return rep, nil
}

func formatYears(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

// markdownCell keeps free text from breaking a table row.
func markdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

//Personal.AI order the ending
