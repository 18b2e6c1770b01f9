package summary

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CSVOptions control the export rendering.
type CSVOptions struct {
	FieldSeparator string
	Enquote        bool
	// DateFormat is a Go time layout for the date column.
	DateFormat string
}

// DefaultCSVOptions are plain comma-separated values with ISO dates.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{FieldSeparator: ",", DateFormat: "2006-01-02"}
}

// WriteCSV renders the export record set, one row per record:
//
//	<date>,<start>,<end>,<minutes>,<project>,<task-key>,<task-summary>,<comment>
//
// An open entry's end column is empty.
func WriteCSV(w io.Writer, records []Record, opts CSVOptions) error {
	maybeEnquote := func(s string) string {
		if opts.Enquote {
			return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
		}
		return s
	}

	for _, r := range records {
		end := ""
		if r.End != nil {
			end = r.End.Format("15:04")
		}
		_, err := fmt.Fprintln(w, strings.Join(
			[]string{
				maybeEnquote(r.Date.ToGotime().Format(opts.DateFormat)),
				maybeEnquote(r.Start.Format("15:04")),
				maybeEnquote(end),
				strconv.Itoa(r.DurationMinutes),
				maybeEnquote(r.Project),
				maybeEnquote(r.TaskKey),
				maybeEnquote(r.TaskSummary),
				maybeEnquote(r.Comment),
			},
			opts.FieldSeparator,
		))
		if err != nil {
			return fmt.Errorf("error writing timesheet row (%w)", err)
		}
	}
	return nil
}
