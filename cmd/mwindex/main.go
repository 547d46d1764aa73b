// Command mwindex loads the pages of a MediaWiki export dump into a SQLite
// database.
//
// Each page becomes one row in the pages table, carrying namespace, title,
// model, format and wikitext length. With --text the full wikitext is
// stored as well, which makes the database large but self-contained.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/rcrowley/go-metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/alecthomas/kingpin.v2"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mwdump/mwdump"
	"github.com/mwdump/mwdump/export"
)

var (
	dumpPath  = kingpin.Arg("dump", "Path to the dump file.").Required().String()
	dbPath    = kingpin.Arg("db", "Path of the SQLite database to create.").Required().String()
	batchSize = kingpin.Flag("batch", "Pages per transaction.").Default("2000").Int()
	limit     = kingpin.Flag("limit", "Stop after this many pages (0 reads the whole dump).").Default("0").Int64()
	withText  = kingpin.Flag("text", "Store the full wikitext, not just its length.").Bool()
)

func main() {
	kingpin.Parse()

	logger := zap.Must(zap.NewProduction())
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Fatal("indexing failed", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	if err := CreateEmptyFileAt(*dbPath); err != nil {
		return err
	}

	db, err := sql.Open("sqlite3", *dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := CreateTablesWith(db); err != nil {
		return err
	}
	logger.Info("created database", zap.String("path", *dbPath))

	dump := mwdump.Open(*dumpPath)
	defer dump.Close()

	meter := metrics.NewRegisteredMeter("pages_indexed", metrics.DefaultRegistry)

	done := make(chan struct{})
	defer close(done)
	go reportProgress(logger, meter, done)

	// The reader and the writer run as a two-stage pipeline: dump pages
	// flow through a channel into batched transactions.
	g, ctx := errgroup.WithContext(context.Background())
	pages := make(chan *export.Page, 256)

	g.Go(func() error {
		defer close(pages)
		var n int64
		for {
			if *limit > 0 && n >= *limit {
				return nil
			}
			page, err := dump.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			n++
			select {
			case pages <- page:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	g.Go(func() error {
		return insertPages(db, pages, *batchSize, *withText, meter)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("dump indexed",
		zap.String("dump", *dumpPath),
		zap.Int64("pages", meter.Count()))
	return nil
}

// reportProgress logs the indexing rate every few seconds until done
// closes. Long dumps take hours; silence that long looks like a hang.
func reportProgress(logger *zap.Logger, meter metrics.Meter, done <-chan struct{}) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			logger.Info("indexing",
				zap.Int64("pages", meter.Count()),
				zap.Float64("pages_per_sec", meter.Rate1()))
		}
	}
}
