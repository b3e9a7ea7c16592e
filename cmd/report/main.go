package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"waste-platform/internal/config"
	"waste-platform/internal/export"
	"waste-platform/internal/loader"
	"waste-platform/internal/models"
	"waste-platform/internal/services"
	"waste-platform/pkg/logging"
	"waste-platform/pkg/metrics"
)

func main() {
	// Parse command-line flags
	csvPath := flag.String("csv", "", "CSV file to report on (defaults to configured data path)")
	region := flag.String("region", "", "Region to analyze (required)")
	metricName := flag.String("metric", "gpc_dom", "Metric: gpc_dom, q_dom, q_nondom or q_mun")
	startYear := flag.Int("start-year", 0, "Base year (required)")
	endYear := flag.Int("end-year", 0, "Comparison year (required)")
	district := flag.String("district", "", "Also render a trend chart for this district")
	topN := flag.Int("top", services.DefaultTopN, "Number of districts in the variation report")
	outDir := flag.String("out-dir", "reports", "Output directory")
	flag.Parse()

	if *region == "" || *startYear == 0 || *endYear == 0 {
		fmt.Fprintln(os.Stderr, "Usage: report -region REGION -start-year YYYY -end-year YYYY [-metric NAME] [-district NAME]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	path := *csvPath
	if path == "" {
		path = cfg.Data.CSVPath
	}

	// Initialize logger
	logger := logging.NewStructuredLogger("waste-report", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()

	metric, err := models.ParseMetric(*metricName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid metric: %v\n", err)
		os.Exit(1)
	}

	// Initialize metrics collector and dashboard service
	metricsCollector := metrics.NewCollector("waste_report")
	csvLoader := loader.NewLoader(logger, metricsCollector)
	cachedLoader := loader.NewCachedLoader(csvLoader, logger, metricsCollector)
	dashboard := services.NewDashboardService(cachedLoader, path, logger, metricsCollector)

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	// Variation report: bar chart plus workbook
	variation, err := dashboard.TopVariation(ctx, *region, metric, *startYear, *endYear, *topN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to compute variation: %v\n", err)
		os.Exit(1)
	}

	base := fmt.Sprintf("variation_%s_%s_%d_%d", models.NormalizeName(*region), metric, *startYear, *endYear)
	pngPath := filepath.Join(*outDir, base+".png")
	xlsxPath := filepath.Join(*outDir, base+".xlsx")

	if err := export.RenderVariationPNG(variation, pngPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render variation chart: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (%d districts)\n", pngPath, len(variation.Rows))

	if err := export.WriteVariationXLSX(variation, xlsxPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write variation workbook: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", xlsxPath)

	// Optional per-district trend report
	if *district != "" {
		trend, err := dashboard.Trend(ctx, *region, *district, metric)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to compute trend: %v\n", err)
			os.Exit(1)
		}

		trendPath := filepath.Join(*outDir, fmt.Sprintf("trend_%s_%s.png",
			models.NormalizeName(*district), metric))
		if err := export.RenderTrendPNG(trend, trendPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render trend chart: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s (%d years)\n", trendPath, len(trend.Points))
	}

	logger.Info(ctx, "[REPORT_COMPLETE] Report generation completed", logging.Fields{
		"region":     models.NormalizeName(*region),
		"metric":     string(metric),
		"start_year": *startYear,
		"end_year":   *endYear,
		"out_dir":    *outDir,
	})
}
