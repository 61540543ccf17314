package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/grocerwatch/grocerwatch/internal/scan"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	fs := ff.NewFlagSet("grocerwatch-report")
	var (
		dbPath      = fs.StringLong("db", "grocerwatch.db", "Database file path")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("GROCERWATCH"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	db, err := scan.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to open database", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	records, err := db.ListScans()
	if err != nil {
		slog.Error("Failed to list scans", "error", err)
		os.Exit(1)
	}

	if len(records) == 0 {
		fmt.Println("No scans recorded.")
		return
	}

	var totalSavings float64
	var totalCredits, questionable int

	for _, record := range records {
		var scanSavings float64
		for _, c := range record.Comparisons {
			scanSavings += c.Savings
			if c.Questionable() {
				questionable++
			}
		}
		totalSavings += scanSavings
		totalCredits += record.CreditAward

		store := record.StoreName
		if store == "" {
			store = "(unknown store)"
		}
		fmt.Printf("%s  %-24s %-10s %3d items  savings $%.2f  credits %d\n",
			record.CreatedAt.Format("2006-01-02"),
			store,
			record.StoreType,
			len(record.Items),
			scanSavings,
			record.CreditAward,
		)
	}

	fmt.Printf("\n%d scans, $%.2f potential savings, %d credits earned, %d questionable prices\n",
		len(records), totalSavings, totalCredits, questionable)
}
