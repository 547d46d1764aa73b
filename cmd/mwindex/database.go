package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/rcrowley/go-metrics"

	"github.com/mwdump/mwdump/export"
)

// Preparer is the subset of sql.DB and sql.Tx the statement helpers need.
type Preparer interface {
	Prepare(query string) (*sql.Stmt, error)
}

const insertPageSQL = `
	INSERT INTO pages(namespace, title, model, format, text_bytes, text)
	VALUES($1, $2, $3, $4, $5, $6);`

// CreateEmptyFileAt truncates or creates the database file, so every run
// starts from a clean slate.
func CreateEmptyFileAt(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating database file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing created database file: %w", err)
	}
	return nil
}

// CreateTablesWith creates the pages table and its index.
func CreateTablesWith(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}

	if err := createPagesTable(tx); err != nil {
		return rollbackBecauseOf(err, tx)
	}

	if err := createTitleIndex(tx); err != nil {
		return rollbackBecauseOf(err, tx)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}

	return nil
}

// insertPages drains the pages channel into the database. Inserts are
// grouped into transactions of batch pages each; one transaction per page
// would slow the load down by orders of magnitude.
func insertPages(db *sql.DB, pages <-chan *export.Page, batch int, storeText bool, meter metrics.Meter) error {
	if batch < 1 {
		batch = 1
	}

	tx, stmt, err := beginBatch(db)
	if err != nil {
		return err
	}

	inBatch := 0
	for page := range pages {
		var text any
		if storeText {
			text = page.Text
		}

		_, err := stmt.Exec(
			int64(page.Namespace),
			page.Title,
			page.Model,
			page.Format,
			int64(len(page.Text)),
			text,
		)
		if err != nil {
			return rollbackBecauseOf(fmt.Errorf("inserting page %q: %w", page.Title, err), tx)
		}
		meter.Mark(1)

		inBatch++
		if inBatch >= batch {
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("committing batch: %w", err)
			}
			if tx, stmt, err = beginBatch(db); err != nil {
				return err
			}
			inBatch = 0
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing final batch: %w", err)
	}

	return nil
}

// beginBatch starts a transaction with the page insert statement prepared
// on it.
func beginBatch(db *sql.DB) (*sql.Tx, *sql.Stmt, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("starting transaction: %w", err)
	}
	stmt, err := tx.Prepare(insertPageSQL)
	if err != nil {
		tx.Rollback()
		return nil, nil, fmt.Errorf("preparing insert: %w", err)
	}
	return tx, stmt, nil
}

func createPagesTable(db Preparer) error {
	sql := `
		CREATE TABLE pages (
			id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
			namespace INTEGER NOT NULL,
			title TEXT NOT NULL,
			model TEXT,
			format TEXT,
			text_bytes INTEGER NOT NULL,
			text TEXT
		);`

	return execute(db, sql)
}

func createTitleIndex(db Preparer) error {
	sql := `CREATE INDEX index_pages_namespace_title ON pages(namespace, title);`
	return execute(db, sql)
}

func execute(db Preparer, query string, args ...any) error {
	statement, err := db.Prepare(query)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer statement.Close()

	if _, err := statement.Exec(args...); err != nil {
		return fmt.Errorf("executing statement: %w", err)
	}

	return nil
}

// rollbackBecauseOf rolls back tx because dbError occurred. Returns the
// error that should travel up to the caller.
func rollbackBecauseOf(dbError error, tx *sql.Tx) error {
	if rollbackError := tx.Rollback(); rollbackError != nil {
		return fmt.Errorf("bad rollback (%v) after: %w", rollbackError, dbError)
	}
	return dbError
}
