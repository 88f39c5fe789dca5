// shopsync receives Shopify order lifecycle webhooks and keeps a Bitrix24
// CRM in sync: one deal per order, stages driven by financial status,
// product rows replaced wholesale on every update.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/commercebridge/shopsync/internal/api"
	"github.com/commercebridge/shopsync/internal/bitrix"
	"github.com/commercebridge/shopsync/internal/config"
	"github.com/commercebridge/shopsync/internal/core"
	"github.com/commercebridge/shopsync/internal/deal"
	"github.com/commercebridge/shopsync/internal/eventlog"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config file")
		port       = flag.Int("port", 0, "HTTP listen port (overrides config)")
		bitrixURL  = flag.String("bitrix-url", "", "CRM REST endpoint (overrides config)")
		verbose    = flag.Bool("verbose", false, "Enable request/debug logging")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	if *port != 0 {
		cfg.Port = *port
	} else if p := os.Getenv("PORT"); p != "" {
		fmt.Sscanf(p, "%d", &cfg.Port)
	}
	if *bitrixURL != "" {
		cfg.BitrixURL = *bitrixURL
	} else if u := os.Getenv("BITRIX_WEBHOOK_URL"); u != "" && cfg.BitrixURL == "" {
		cfg.BitrixURL = u
	}
	if *verbose {
		cfg.Verbose = true
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	srv := core.New(&core.Config{
		Port:    cfg.Port,
		Verbose: cfg.Verbose,
		Name:    "shopsync",
	})

	gateway := bitrix.NewClient(cfg.BitrixURL, srv.Logger)
	reconciler := deal.NewReconciler(gateway, deal.Config{
		PreorderTags:       cfg.PreorderTags,
		StockCategoryID:    cfg.StockCategoryID,
		PreorderCategoryID: cfg.PreorderCategoryID,
		LookupLimit:        cfg.LookupLimit,
		ScanLimit:          cfg.ScanLimit,
	}, srv.Logger)
	events := eventlog.New(cfg.EventLogSize)

	handler := api.NewHandler(reconciler, events, srv.Middleware(), srv.Logger)
	handler.Routes(srv.Router)

	srv.Logger.Info("shopsync ready",
		"port", cfg.Port,
		"stock_category", cfg.StockCategoryID,
		"preorder_category", cfg.PreorderCategoryID,
	)

	if err := srv.Serve(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
