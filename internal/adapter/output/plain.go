package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/launch"
)

// PlainFormatter formats launches as one human-readable line each.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewPlainFormatter creates a new plain text formatter. An invalid custom
// template falls back to the default line format.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	f := &PlainFormatter{opts: opts}

	if opts.Template != "" {
		tmpl, err := template.New("plain").Funcs(templateFuncs()).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

type templateData struct {
	Index     int
	Launch    launch.Record
	Remaining string
	Expired   bool
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate": func(s string, maxLen int) string {
			if maxLen <= 0 || len(s) <= maxLen {
				return s
			}
			if maxLen <= 3 {
				return s[:maxLen]
			}
			return s[:maxLen-3] + "..."
		},
		"upper": strings.ToUpper,
	}
}

// Format writes launches as plain text.
func (f *PlainFormatter) Format(w io.Writer, launches []launch.Record) error {
	now := f.opts.now()
	for i, r := range launches {
		if err := f.formatLaunch(w, i+1, r, now); err != nil {
			return err
		}
	}
	return nil
}

func (f *PlainFormatter) formatLaunch(w io.Writer, index int, r launch.Record, now time.Time) error {
	data := templateData{
		Index:     index,
		Launch:    r,
		Remaining: Remaining(r, now),
		Expired:   r.Expired(now),
	}

	if f.template != nil {
		if err := f.template.Execute(w, data); err != nil {
			return err
		}
		_, err := fmt.Fprintln(w)
		return err
	}

	var sb strings.Builder
	if f.opts.ShowIndex {
		fmt.Fprintf(&sb, "[%d] ", index)
	}
	sb.WriteString(r.ID)
	sb.WriteString("\t")
	sb.WriteString(data.Remaining)
	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// Remaining describes the time left before r is reaped.
func Remaining(r launch.Record, now time.Time) string {
	if r.Expired(now) {
		return "timing out"
	}
	return "expires " + humanize.RelTime(r.Deadline, now, "ago", "from now")
}
