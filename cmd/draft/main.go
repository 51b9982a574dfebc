// Command draft runs the interactive 10-K drafting pipeline: process a prior
// filing, generate the Business section, collect financial data, then
// generate the MD&A and write the combined draft to a file.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tenk_assistant/pkg/core/config"
	"tenk_assistant/pkg/core/ingest"
	"tenk_assistant/pkg/core/llm"
	"tenk_assistant/pkg/core/rag"
	"tenk_assistant/pkg/core/vectorstore"
)

const divider = "============================================================"
const rule = "------------------------------------------------------------"

func main() {
	godotenv.Load()

	company := flag.String("company", "", "Company ticker symbol")
	fiscalYear := flag.String("fiscal-year", "", "Fiscal year for the filing (e.g. 2024)")
	filingURL := flag.String("filing-url", "", "URL or local path of the 10-K filing (optional, uses cached copy if omitted)")
	skipBusiness := flag.Bool("skip-business", false, "Skip Business section generation")
	skipMDA := flag.Bool("skip-mda", false, "Skip MD&A section generation")
	configPath := flag.String("config", "config/app.yaml", "Path to the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[Config] %v", err)
	}

	ticker := strings.ToUpper(strings.TrimSpace(*company))
	if ticker == "" || *fiscalYear == "" {
		fmt.Fprintln(os.Stderr, "both --company and --fiscal-year are required")
		flag.Usage()
		os.Exit(2)
	}
	companyName, ok := cfg.Companies[ticker]
	if !ok {
		fmt.Fprintf(os.Stderr, "unsupported company %q; known tickers: %s\n", ticker, strings.Join(knownTickers(cfg), ", "))
		os.Exit(2)
	}

	fmt.Printf("\n%s\n", divider)
	fmt.Println("SEC 10-K Drafting Assistant")
	fmt.Printf("Company: %s (%s)\n", ticker, companyName)
	fmt.Printf("Fiscal Year: %s\n", *fiscalYear)
	fmt.Printf("%s\n\n", divider)

	filingsDir, err := cfg.FilingsDir()
	if err != nil {
		log.Fatalf("[Config] %v", err)
	}
	fetcher := ingest.NewFetcher(filingsDir, time.Duration(cfg.RequestDelayMs)*time.Millisecond)
	embedder := &llm.GeminiEmbedder{Model: cfg.EmbeddingModel}
	provider := &llm.GeminiProvider{Model: cfg.LLMModel}

	ctx := context.Background()

	var store vectorstore.Store
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pg, err := vectorstore.NewPgVectorStore(ctx, dbURL, embedder)
		if err != nil {
			log.Fatalf("[VectorStore] %v", err)
		}
		defer pg.Close()
		store = pg
	} else {
		store = vectorstore.NewMemoryStore(embedder)
	}

	orc := rag.NewOrchestrator(cfg, fetcher, store, provider, rag.NewMemorySessionStore())

	result, err := orc.ProcessDocument(ctx, ticker, *fiscalYear, *filingURL)
	if err != nil {
		log.Fatalf("Failed to process document: %v", err)
	}
	fmt.Printf("Processed filing: %d chunks across %d sections\n", result.ChunkCount, len(result.Sections))

	var businessSection, mdaSection string

	if !*skipBusiness {
		fmt.Printf("\n%s\nGenerating Item 1. Business section for %s %s\n%s\n\n", divider, ticker, *fiscalYear, divider)
		businessSection, err = orc.GenerateBusiness(ctx, ticker, *fiscalYear)
		if err != nil {
			log.Fatalf("Failed to generate Business section: %v", err)
		}
		fmt.Println("Item 1. Business")
		fmt.Println(rule)
		fmt.Println(businessSection)
		fmt.Println(rule)
	}

	if !*skipMDA {
		collectFinancialData(ctx, orc, ticker, *fiscalYear)

		fmt.Printf("\n%s\nGenerating Item 7. MD&A section for %s %s\n%s\n\n", divider, ticker, *fiscalYear, divider)
		if collected := orc.FinancialData(ticker, *fiscalYear); len(collected) > 0 {
			fmt.Printf("Using financial data: %s\n\n", strings.Join(collected.MetricNames(), ", "))
		} else {
			fmt.Println("Warning: No financial data provided. Generating based on context only.")
		}

		mdaSection, err = orc.GenerateMDAWithAvailableData(ctx, ticker, *fiscalYear)
		if err != nil {
			log.Fatalf("Failed to generate MD&A section: %v", err)
		}
		fmt.Println("Item 7. Management's Discussion and Analysis of Financial Condition and Results of Operations")
		fmt.Println(rule)
		fmt.Println(mdaSection)
		fmt.Println(rule)
	}

	outputFile := fmt.Sprintf("%s_%s_10k_draft.txt", ticker, *fiscalYear)
	if err := writeDraft(outputFile, ticker, companyName, *fiscalYear, businessSection, mdaSection); err != nil {
		log.Fatalf("Failed to write draft: %v", err)
	}
	fmt.Printf("\nDraft saved to %s\n", outputFile)
}

// collectFinancialData runs the interactive loop: show what is still needed,
// then read data lines until the user types done or skip.
func collectFinancialData(ctx context.Context, orc *rag.Orchestrator, ticker, fiscalYear string) {
	fmt.Printf("\n%s\nCollecting Financial Data for MD&A\n%s\n\n", divider, divider)

	questions, err := orc.IdentifyMissingFinancialData(ctx, ticker, fiscalYear)
	if err != nil {
		log.Printf("[CLI] Could not identify missing data: %v", err)
	}
	if len(questions) > 0 {
		fmt.Println("To draft the MD&A, please provide:")
		for i, q := range questions {
			fmt.Printf("  %d. %s\n", i+1, q)
		}
	}

	fmt.Println("\nPlease provide financial data. You can:")
	fmt.Println("- Enter data line by line (e.g. 'Revenue: $50B')")
	fmt.Println("- Paste a table (markdown or HTML)")
	fmt.Println("- Type 'done' when finished")
	fmt.Println("- Type 'skip' to proceed with available data")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print("Enter financial data (or 'done'/'skip'): ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "done", "skip":
			return
		case "":
			continue
		}

		record, err := orc.RecordFinancialData(ticker, fiscalYear, line)
		if err != nil {
			fmt.Printf("Error: %v\n\n", err)
			continue
		}
		if len(record) == 0 {
			fmt.Println("Could not parse data. Please try again or type 'done'/'skip'.")
			fmt.Println()
			continue
		}
		fmt.Printf("\nTotal collected: %s\n\n", strings.Join(record.MetricNames(), ", "))
	}
}

func writeDraft(path, ticker, companyName, fiscalYear, businessSection, mdaSection string) error {
	var b strings.Builder
	b.WriteString("SEC Form 10-K Draft\n")
	fmt.Fprintf(&b, "Company: %s (%s)\n", ticker, companyName)
	fmt.Fprintf(&b, "Fiscal Year: %s\n", fiscalYear)
	b.WriteString(divider + "\n\n")

	if businessSection != "" {
		b.WriteString("Item 1. Business\n")
		b.WriteString(rule + "\n")
		b.WriteString(businessSection + "\n\n")
	}
	if mdaSection != "" {
		b.WriteString("Item 7. Management's Discussion and Analysis of Financial Condition and Results of Operations\n")
		b.WriteString(rule + "\n")
		b.WriteString(mdaSection + "\n")
	}

	return os.WriteFile(path, []byte(b.String()), 0644)
}

func knownTickers(cfg *config.Config) []string {
	tickers := make([]string, 0, len(cfg.Companies))
	for t := range cfg.Companies {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}
