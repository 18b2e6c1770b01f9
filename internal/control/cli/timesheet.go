package cli

import (
	"fmt"
	"os"

	"github.com/lhartmann/worklog/internal/control"
	"github.com/lhartmann/worklog/internal/ledger"
	"github.com/lhartmann/worklog/internal/model"
	"github.com/lhartmann/worklog/internal/summary"
)

// TimesheetCommand is the command `timesheet`, which exports the flattened
// entry records for a date range as CSV.
//
// Each row has the form
//
//	<date>,<start>,<end>,<minutes>,<project>,<task-key>,<task-summary>,<comment>
type TimesheetCommand struct {
	FromDay string `short:"f" long:"from" description:"the day from which to start exporting" value-name:"<yyyy-mm-dd>" required:"true"`
	TilDay  string `short:"t" long:"til" description:"the day til which to export (inclusive)" value-name:"<yyyy-mm-dd>" required:"true"`

	DateFormat     string `long:"date-format" value-name:"<format>" description:"specify the date format (see <https://pkg.go.dev/time#pkg-constants>)" default:"2006-01-02"`
	Enquote        bool   `long:"enquote" description:"add quotes around field values"`
	FieldSeparator string `long:"field-separator" value-name:"<CSV separator (default ',')>" default:","`
}

// Execute executes the timesheet command.
func (command *TimesheetCommand) Execute(args []string) error {
	from, err := model.DateFromString(command.FromDay)
	if err != nil {
		return fmt.Errorf("from day '%s' invalid (%w)", command.FromDay, err)
	}
	til, err := model.DateFromString(command.TilDay)
	if err != nil {
		return fmt.Errorf("til day '%s' invalid (%w)", command.TilDay, err)
	}
	if til.IsBefore(from) {
		return fmt.Errorf("from day must not be after til day")
	}

	envData := control.ResolveEnv()

	provider, err := openProvider(envData)
	if err != nil {
		return err
	}

	aggregator := summary.New(ledger.New(provider), provider)
	records, err := aggregator.Records(from, til)
	if err != nil {
		return err
	}

	return summary.WriteCSV(os.Stdout, records, summary.CSVOptions{
		FieldSeparator: command.FieldSeparator,
		Enquote:        command.Enquote,
		DateFormat:     command.DateFormat,
	})
}
