package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/asinsight/asinsight/internal/config"
	"github.com/asinsight/asinsight/internal/fees"
	"github.com/asinsight/asinsight/internal/model"
	"github.com/asinsight/asinsight/internal/scoring"
	"github.com/asinsight/asinsight/internal/scraper"
	"github.com/asinsight/asinsight/internal/tracker"
)

const usage = `usage: asinsight <command> [flags]

commands:
  analyze  -asin B0... [-cogs 8.50] [-json]   fetch, score and report one product
  search   -keyword "..." [-pages 2] [-json]  scan search results for a keyword
  snapshot -asin B0...                        record one BSR/price snapshot
  track    [-cron "0 6 * * *"]                run the snapshot scheduler for tracked ASINs
  trend    -asin B0...                        print the BSR trend for a tracked ASIN
  stats                                       print tracking database stats
  export   [-asin B0...]                      dump snapshot history as JSON
  cleanup  [-retain 365]                      delete snapshots older than the retention window
`

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.FromEnv()
	cmd, args := os.Args[1], os.Args[2:]

	switch cmd {
	case "analyze":
		runAnalyze(cfg, args)
	case "search":
		runSearch(cfg, args)
	case "snapshot":
		runSnapshot(cfg, args)
	case "track":
		runTrack(cfg, args)
	case "trend":
		runTrend(cfg, args)
	case "stats":
		runStats(cfg)
	case "export":
		runExport(cfg, args)
	case "cleanup":
		runCleanup(cfg, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func runAnalyze(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	asin := fs.String("asin", "", "product ASIN")
	cogs := fs.Float64("cogs", 0, "cost of goods, for profit/margin computation")
	asJSON := fs.Bool("json", false, "print the raw analysis as JSON")
	fs.Parse(args)
	requireASIN(*asin)

	svc := scraper.New(cfg)
	defer svc.Close()

	p, err := svc.FetchProduct(context.Background(), *asin)
	if err != nil {
		log.Fatalf("fetching %s: %v", *asin, err)
	}

	var profit *fees.Profit
	if *cogs > 0 && p.Price != nil {
		pr := fees.CalculateProfit(*p.Price, *cogs, p.Dimensions, p.Category)
		profit = &pr
		p.ProfitMargin = model.Float(pr.Margin)
	}

	hist := loadHistory(cfg, *asin)
	result := scoring.New().Score(p, hist, nil)

	if *asJSON {
		printJSON(struct {
			Product *model.Product `json:"product"`
			Profit  *fees.Profit   `json:"profit,omitempty"`
			Score   scoring.Result `json:"score"`
		}{p, profit, result})
		return
	}
	printReport(p, profit, result)
}

func runSearch(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	keyword := fs.String("keyword", "", "search keyword")
	pages := fs.Int("pages", 0, "pages to scan (default from config)")
	asJSON := fs.Bool("json", false, "print results as JSON")
	fs.Parse(args)
	if strings.TrimSpace(*keyword) == "" {
		log.Fatal("a -keyword is required")
	}

	svc := scraper.New(cfg)
	defer svc.Close()

	products, err := svc.SearchProducts(context.Background(), *keyword, *pages)
	if err != nil && len(products) == 0 {
		log.Fatalf("searching %q: %v", *keyword, err)
	}
	if err != nil {
		log.Printf("search ended early: %v", err)
	}

	if *asJSON {
		printJSON(products)
		return
	}
	for _, p := range products {
		fmt.Printf("%-12s $%-8.2f bsr %-9d ~%d/mo  %s\n",
			p.ASIN, p.PriceValue(), p.BSRValue(), p.EstimatedMonthlySales, truncate(p.Title, 70))
	}
}

func runSnapshot(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	asin := fs.String("asin", "", "product ASIN")
	fs.Parse(args)
	requireASIN(*asin)

	store := openStore(cfg)
	defer store.Close()
	svc := scraper.New(cfg)
	defer svc.Close()

	snap, err := fetchSnapshot(svc, *asin)
	if err != nil {
		log.Fatalf("snapshot %s: %v", *asin, err)
	}
	if err := store.AddSnapshot(snap); err != nil {
		log.Fatalf("saving snapshot: %v", err)
	}
	fmt.Printf("recorded %s: bsr=%s price=%s\n", *asin, fmtIntPtr(snap.BSR), fmtFloatPtr(snap.Price))
}

func runTrack(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("track", flag.ExitOnError)
	spec := fs.String("cron", "0 6 * * *", "cron schedule for snapshot collection")
	once := fs.Bool("once", false, "collect one round of snapshots and exit")
	fs.Parse(args)

	store := openStore(cfg)
	defer store.Close()
	svc := scraper.New(cfg)
	defer svc.Close()

	sched := tracker.NewScheduler(store, func(asin string) (tracker.Snapshot, error) {
		return fetchSnapshot(svc, asin)
	})
	if *once {
		sched.RunOnce()
		return
	}
	if err := sched.Start(*spec); err != nil {
		log.Fatalf("starting scheduler: %v", err)
	}
	defer sched.Stop()
	log.Printf("snapshot scheduler running (%s), ctrl-c to stop", *spec)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}

func runTrend(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("trend", flag.ExitOnError)
	asin := fs.String("asin", "", "product ASIN")
	fs.Parse(args)
	requireASIN(*asin)

	store := openStore(cfg)
	defer store.Close()

	trend, err := store.Trend(*asin)
	if err != nil {
		log.Fatalf("trend for %s: %v", *asin, err)
	}
	fmt.Printf("%s: bsr %d, direction %s (%d points)\n", trend.ASIN, trend.CurrentBSR, trend.Direction, trend.DataPoints)
	fmt.Printf("  avg 7d/30d/90d: %.0f / %.0f / %.0f\n", trend.AvgBSR7d, trend.AvgBSR30d, trend.AvgBSR90d)
	fmt.Printf("  variance %.2f, seasonal %v\n", trend.Variance, trend.IsSeasonal)
}

func runStats(cfg config.Config) {
	store := openStore(cfg)
	defer store.Close()

	stats, err := store.Stats()
	if err != nil {
		log.Fatalf("reading stats: %v", err)
	}
	fmt.Printf("tracked ASINs:   %d\n", stats.TrackedASINs)
	fmt.Printf("total snapshots: %d\n", stats.TotalSnapshots)
	if !stats.OldestData.IsZero() {
		fmt.Printf("data range:      %s .. %s\n",
			stats.OldestData.Format("2006-01-02"), stats.NewestData.Format("2006-01-02"))
	}
	fmt.Printf("database:        %s\n", stats.DatabasePath)
}

func runExport(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	asin := fs.String("asin", "", "limit export to one ASIN (default all)")
	fs.Parse(args)

	store := openStore(cfg)
	defer store.Close()

	data, err := store.ExportJSON(*asin)
	if err != nil {
		log.Fatalf("exporting: %v", err)
	}
	os.Stdout.Write(data)
	fmt.Println()
}

func runCleanup(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("cleanup", flag.ExitOnError)
	retain := fs.Int("retain", 365, "days of snapshot history to keep")
	fs.Parse(args)

	store := openStore(cfg)
	defer store.Close()

	n, err := store.Cleanup(*retain)
	if err != nil {
		log.Fatalf("cleanup: %v", err)
	}
	fmt.Printf("deleted %d snapshots older than %d days\n", n, *retain)
}

func fetchSnapshot(svc *scraper.Service, asin string) (tracker.Snapshot, error) {
	p, err := svc.FetchProduct(context.Background(), asin)
	if err != nil {
		return tracker.Snapshot{}, err
	}
	return tracker.Snapshot{
		ASIN:     asin,
		BSR:      p.BSR,
		Price:    p.Price,
		Category: p.Category,
	}, nil
}

func loadHistory(cfg config.Config, asin string) *scoring.History {
	store, err := tracker.Open(cfg.SnapshotDBPath)
	if err != nil {
		return nil
	}
	defer store.Close()

	trend, err := store.Trend(asin)
	if err != nil {
		return nil
	}
	return &scoring.History{BSRVariance: trend.Variance}
}

func printReport(p *model.Product, profit *fees.Profit, r scoring.Result) {
	fmt.Printf("%s  %s\n", p.ASIN, truncate(p.Title, 70))
	if p.Brand != "" {
		fmt.Printf("brand: %s  category: %s\n", p.Brand, p.Category)
	}
	fmt.Printf("price $%.2f  rating %.1f (%d reviews)  bsr %d  ~%d sales/mo\n",
		p.PriceValue(), p.Rating, p.ReviewCount, p.BSRValue(), p.EstimatedMonthlySales)
	fmt.Printf("listing quality: %d/10\n", scraper.ListingQuality(p))
	if info := p.SellerInfo; info != nil {
		fmt.Printf("sellers: %d total, %d FBA / %d FBM, amazon=%v\n",
			info.TotalSellers, info.FBACount, info.FBMCount, info.AmazonSeller)
	}
	if profit != nil {
		fmt.Printf("profit: $%.2f net, %.1f%% margin, %.1f%% roi (fees $%.2f, %s)\n",
			profit.NetProfit, profit.Margin, profit.ROI, profit.Fees.TotalFees, profit.Fees.SizeTier)
	}

	fmt.Println()
	if r.IsVetoed {
		fmt.Printf("score: 0 [%s]  VETO %s: %s\n", r.Status, r.VetoReason, r.VetoDetails)
		return
	}
	fmt.Printf("score: %.1f [%s]  confidence %.0f%%\n", r.TotalScore, r.Status, r.Confidence*100)
	for _, ps := range []scoring.PillarScore{r.Demand, r.Competition, r.Profit} {
		fmt.Printf("  %-12s %5.1f (x%.2f = %.1f)\n", ps.Name, ps.Score, ps.Weight, ps.WeightedScore)
	}
	for _, s := range r.Strengths {
		fmt.Printf("  + %s\n", s)
	}
	for _, w := range r.Weaknesses {
		fmt.Printf("  - %s\n", w)
	}
	for _, rec := range r.Recommendations {
		fmt.Printf("  > %s\n", rec)
	}
}

func openStore(cfg config.Config) *tracker.Store {
	store, err := tracker.Open(cfg.SnapshotDBPath)
	if err != nil {
		log.Fatalf("opening snapshot store: %v", err)
	}
	return store
}

func requireASIN(asin string) {
	if strings.TrimSpace(asin) == "" {
		log.Fatal("an -asin is required")
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("encoding output: %v", err)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func fmtIntPtr(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func fmtFloatPtr(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("$%.2f", *v)
}
