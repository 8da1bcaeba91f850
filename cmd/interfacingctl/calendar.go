package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/subcommands"

	"franchise-interfacing/internal/calendar"
	interfacingapp "franchise-interfacing/internal/interfacing/application"
)

type workingDaysCmd struct {
	out      io.Writer
	period   string
	startDay int
	endDay   int
}

func (*workingDaysCmd) Name() string { return "working-days" }
func (*workingDaysCmd) Synopsis() string {
	return "counts the working days in the release window after a period"
}
func (*workingDaysCmd) Usage() string {
	return `interfacingctl working-days -period YYYYMM [-start 5] [-end 15]

  Counts weekdays that are not holidays between the start and end day of the
  month following the period. Holidays come from INTERFACING_CONFIG when set.

`
}

func (c *workingDaysCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.period, "period", "", "Accounting period, YYYYMM.")
	f.IntVar(&c.startDay, "start", calendar.DefaultWindowStartDay, "First day of the window.")
	f.IntVar(&c.endDay, "end", calendar.DefaultWindowEndDay, "Last day of the window.")
}

func (c *workingDaysCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	period, err := calendar.ParsePeriod(c.period)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: -period must be YYYYMM: %v\n", err)
		return subcommands.ExitUsageError
	}
	if c.startDay < 1 || c.endDay > 31 || c.endDay < c.startDay {
		fmt.Fprintf(os.Stderr, "Error: window %d-%d is invalid\n", c.startDay, c.endDay)
		return subcommands.ExitUsageError
	}
	cfg, err := interfacingapp.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load config: %v\n", err)
		return subcommands.ExitFailure
	}
	cal, err := cfg.Calendar()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid holidays: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Fprintf(c.out, "period:       %s\n", period)
	fmt.Fprintf(c.out, "working days: %d\n", cal.WorkingDays(period, c.startDay, c.endDay))
	fmt.Fprintf(c.out, "due until:    %s\n", calendar.DateKey(calendar.DueUntilDate(period)))
	return subcommands.ExitSuccess
}

type easterCmd struct {
	out  io.Writer
	year int
}

func (*easterCmd) Name() string     { return "easter" }
func (*easterCmd) Synopsis() string { return "prints Easter Sunday and the movable holidays of a year" }
func (*easterCmd) Usage() string {
	return `interfacingctl easter -year YYYY

  Prints Easter Sunday and the holidays derived from it.

`
}

func (c *easterCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.year, "year", time.Now().Year(), "Gregorian year.")
}

func (c *easterCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.year < 1583 {
		fmt.Fprintf(os.Stderr, "Error: -year must be a Gregorian year\n")
		return subcommands.ExitUsageError
	}
	easter := calendar.EasterSunday(c.year)
	movable := []struct {
		name   string
		offset int
	}{
		{"Carnival", -47},
		{"Good Friday", -2},
		{"Easter Sunday", 0},
		{"Corpus Christi", 60},
	}
	for _, h := range movable {
		fmt.Fprintf(c.out, "%-15s %s\n", h.name, calendar.DateKey(easter.AddDate(0, 0, h.offset)))
	}
	return subcommands.ExitSuccess
}
