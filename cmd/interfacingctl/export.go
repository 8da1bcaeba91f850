package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/subcommands"
	_ "github.com/jackc/pgx/v5/stdlib"

	"franchise-interfacing/internal/calendar"
	interfacingapp "franchise-interfacing/internal/interfacing/application"
	interfacing "franchise-interfacing/internal/interfacing/domain"
	interfacingrepo "franchise-interfacing/internal/interfacing/infrastructure/postgres"
	interfacinginterfaces "franchise-interfacing/internal/interfacing/interfaces"
)

type exportCmd struct {
	dsn     string
	country string
	period  string
	release string
	terms   int
	format  string
	out     string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "renders one country statement to a file" }
func (*exportCmd) Usage() string {
	return `interfacingctl export -country ID -period YYYYMM [-release YYYY-MM-DD] [-terms 30] [-format pdf] [-out DIR|FILE]

  Builds the interfacing statement of a country from the ledger database and
  writes it as xlsx, pdf or html. Without -out the file lands in the current
  directory as Interfacing_<country>_<period>.<format>.

Usage Examples:
$ interfacingctl export -country PT -period 202501 -release 2025-02-10 -format xlsx

`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dsn, "db", os.Getenv("DATABASE_URL"), "Postgres DSN. Defaults to DATABASE_URL.")
	f.StringVar(&c.country, "country", "", "Country id.")
	f.StringVar(&c.period, "period", "", "Accounting period, YYYYMM.")
	f.StringVar(&c.release, "release", "", "Release date, YYYY-MM-DD.")
	f.IntVar(&c.terms, "terms", -1, "Payment term in days. Defaults to the configured term.")
	f.StringVar(&c.format, "format", string(interfacing.FormatPDF), "Document format: xlsx, pdf or html.")
	f.StringVar(&c.out, "out", "", "Output file or directory.")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.country == "" {
		fmt.Fprintf(os.Stderr, "Error: -country is required\n")
		return subcommands.ExitUsageError
	}
	period, err := calendar.ParsePeriod(c.period)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: -period must be YYYYMM\n")
		return subcommands.ExitUsageError
	}
	var release time.Time
	if c.release != "" {
		release, err = time.Parse(calendar.DateKeyLayout, c.release)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: -release must be YYYY-MM-DD\n")
			return subcommands.ExitUsageError
		}
	}
	format, err := interfacing.ParseExportFormat(c.format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if c.dsn == "" {
		fmt.Fprintf(os.Stderr, "Error: -db or DATABASE_URL is required\n")
		return subcommands.ExitUsageError
	}

	cfg, err := interfacingapp.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load config: %v\n", err)
		return subcommands.ExitFailure
	}
	terms := c.terms
	if terms < 0 {
		terms = cfg.PaymentTerm
	}

	db, err := sql.Open("pgx", c.dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not open database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	service, err := interfacingapp.NewStatementService(interfacingrepo.NewCountryRepository(db), interfacingrepo.NewLedgerRepository(db), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	stmt, err := service.GetCountryStatement(ctx, c.country, period, release, terms)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not build statement: %v\n", err)
		return subcommands.ExitFailure
	}
	data, err := interfacinginterfaces.NewRenderer().Render(stmt, format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not render statement: %v\n", err)
		return subcommands.ExitFailure
	}

	target := outputPath(c.out, interfacing.ExportFilename(stmt.Country.ID, period, format))
	if err := os.WriteFile(target, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not write %s: %v\n", target, err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(os.Stderr, "Wrote %s (%d bytes).\n", target, len(data))
	return subcommands.ExitSuccess
}

// outputPath resolves -out: empty means the current directory, an existing directory gets the default name.
func outputPath(out, filename string) string {
	if out == "" {
		return filename
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, filename)
	}
	return out
}
