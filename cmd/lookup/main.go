package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/dseeker/dividend-seeker/internal/clients/yahoo"
	"github.com/dseeker/dividend-seeker/internal/config"
	"github.com/dseeker/dividend-seeker/internal/modules/analysis"
	"github.com/dseeker/dividend-seeker/pkg/logger"
)

func main() {
	asJSON := flag.Bool("json", false, "print raw JSON instead of a summary")
	withAnalysis := flag.Bool("analyze", false, "include price history analysis")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] TICKER\n\nFlags:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	ticker := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: "warn", Pretty: true})
	client := yahoo.NewClient(log)

	record, err := client.Candidate(ticker)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lookup failed for %s: %v\n", ticker, err)
		os.Exit(1)
	}

	output := map[string]any{"quote": record}

	if *withAnalysis {
		analyzer := analysis.NewService(
			client,
			analysis.NewCache(cfg.DataDir, cfg.AnalysisCacheTTL),
			log,
		)
		report, cached, err := analyzer.Analyze(ticker)
		if err != nil {
			fmt.Fprintf(os.Stderr, "analysis failed for %s: %v\n", ticker, err)
		} else {
			output["analysis"] = report
			output["cached"] = cached
		}
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(output); err != nil {
			fmt.Fprintln(os.Stderr, "failed to encode output:", err)
			os.Exit(1)
		}
		return
	}

	printSummary(record, output)
}

func printSummary(record map[string]any, output map[string]any) {
	fmt.Printf("%s  %s\n", record["ticker"], record["name"])
	fmt.Printf("  price:           %.2f %s\n", num(record["price"]), record["currency"])
	fmt.Printf("  dividend yield:  %.2f%%\n", num(record["dividend_yield"]))
	fmt.Printf("  dividend rate:   %.2f\n", num(record["dividend_rate"]))
	if v, ok := record["payout_ratio"]; ok {
		fmt.Printf("  payout ratio:    %.1f%%\n", num(v))
	}
	if v, ok := record["pe_ratio"]; ok {
		fmt.Printf("  P/E:             %.1f\n", num(v))
	}
	fmt.Printf("  52w range:       %.2f - %.2f\n", num(record["52w_low"]), num(record["52w_high"]))
	if v, ok := record["discount_from_high"]; ok {
		fmt.Printf("  below 52w high:  %.1f%%\n", num(v))
	}
	if v, ok := record["ex_dividend_date"]; ok {
		fmt.Printf("  next ex-date:    %s\n", v)
	}

	if report, ok := output["analysis"].(*analysis.Report); ok {
		fmt.Printf("\n%s\n", report.Summary)
	}
}

func num(v any) float64 {
	f, _ := v.(float64)
	return f
}
