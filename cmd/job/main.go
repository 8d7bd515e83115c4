package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"HodlWatch/internal/di"
	"HodlWatch/pkg/config"
)

// One-shot refresh for external schedulers (cron, Cloud Scheduler). Runs a
// single update cycle, prints the result as JSON and exits.
func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	force := flag.Bool("force", false, "discard the stored series and rebuild from the bulk source")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	updater, err := di.InitializeUpdater(cfg)
	if err != nil {
		log.Fatalf("initialization failed: %v", err)
	}
	defer func() {
		if cerr := updater.Close(); cerr != nil {
			log.Printf("publisher close: %v", cerr)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Refresh.CycleTimeout)
	defer cancel()

	result, err := updater.RunCycle(ctx, *force)
	if err != nil {
		log.Printf("update cycle failed: %v", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Fatalf("encode result: %v", err)
	}
}
