package report

import (
	"fmt"
	"io"

	"koinlint/internal/core/errors"
	"koinlint/internal/ui/report/formats"
)

const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatSARIF    = "sarif"
)

// Formats lists the accepted output formats.
var Formats = []string{FormatText, FormatJSON, FormatMarkdown, FormatSARIF}

// Options tunes the renderers that accept any.
type Options struct {
	Color       bool
	ProjectName string
	Verbosity   string
}

// Write renders r in the given format.
func Write(w io.Writer, format string, r formats.Report, opts Options) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatText, "":
		return formats.WriteText(w, r, formats.TextOptions{Color: opts.Color})
	case FormatJSON:
		data, err = formats.JSON(r)
	case FormatSARIF:
		data, err = formats.SARIF(r)
	case FormatMarkdown:
		var doc string
		doc, err = formats.NewMarkdownGenerator().Generate(r, formats.MarkdownReportOptions{
			ProjectName:         opts.ProjectName,
			Verbosity:           opts.Verbosity,
			TableOfContents:     true,
			CollapsibleSections: true,
		})
		data = []byte(doc)
	default:
		return errors.Newf(errors.CodeNotSupported, "unsupported output format %q", format)
	}
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, fmt.Sprintf("render %s report", format))
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	_, err = w.Write(data)
	return err
}
