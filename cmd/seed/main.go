// Command seed loads books from Open Library into the configured storage.
// Books already present (same Open Library key) are left untouched.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophlibrary/internal/flagx"
	"github.com/dmitrijs2005/gophlibrary/internal/logging"
	"github.com/dmitrijs2005/gophlibrary/internal/seed"
	"github.com/dmitrijs2005/gophlibrary/internal/server/config"
	"github.com/dmitrijs2005/gophlibrary/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophlibrary/internal/server/services"
)

type options struct {
	baseURL string
	subject string
	limit   int
}

func parseOptions(args []string) (options, error) {
	o := options{baseURL: seed.DefaultBaseURL, subject: seed.DefaultSubject, limit: seed.DefaultLimit}

	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&o.baseURL, "openlibrary-url", o.baseURL, "Open Library base URL")
	fs.StringVar(&o.subject, "subject", o.subject, "Open Library subject to import")
	fs.IntVar(&o.limit, "limit", o.limit, "number of works to import")

	err := fs.Parse(flagx.FilterArgs(args, []string{"-openlibrary-url", "-subject", "-limit"}))
	return o, err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		log.Fatalf("flags: %v", err)
	}

	logger := logging.NewJSONLogger(os.Stdout, cfg.LogLevel)

	rm, err := repomanager.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("storage init error: %v", err)
	}
	defer rm.Close(context.Background())

	if err := rm.RunMigrations(ctx); err != nil {
		logger.Error(ctx, "migrations failed", "error", err)
		return
	}

	client := seed.NewClient(opts.baseURL, &http.Client{Timeout: 30 * time.Second})
	books, err := client.FetchSubject(ctx, opts.subject, opts.limit)
	if err != nil {
		logger.Error(ctx, "fetch failed", "error", err)
		return
	}

	catalog := services.NewCatalogService(rm.Books(), logger)
	n, err := catalog.Import(ctx, books)
	if err != nil {
		logger.Error(ctx, "import failed", "error", err)
		return
	}

	logger.Info(ctx, "Database seeded successfully", "subject", opts.subject, "fetched", len(books), "inserted", n)
}
