// Package sqlite persists detected features into a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mzsweep/mzsweep/internal/domain/model"
	"github.com/mzsweep/mzsweep/pkg/logger"
)

const runDateFormat = time.RFC3339

// Writer handles writing runs and their features to a SQLite file.
type Writer struct {
	db          *sql.DB
	outputPath  string
	featureStmt *sql.Stmt
	logger      logger.Logger
}

// NewWriter opens (or creates) the database at outputPath and prepares
// the schema and insert statements.
func NewWriter(outputPath string) (*Writer, error) {
	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	w := &Writer{
		db:         db,
		outputPath: outputPath,
		logger:     logger.Get().Named("sqlite-writer"),
	}

	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	if err := w.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	return w, nil
}

func (w *Writer) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS RunTable (
		RunId INTEGER PRIMARY KEY AUTOINCREMENT,
		SourcePath TEXT,
		ScanCount INTEGER,
		MaxCharge INTEGER,
		CreationDate TEXT
	);

	CREATE TABLE IF NOT EXISTS FeatureTable (
		FeatureId INTEGER PRIMARY KEY AUTOINCREMENT,
		RunId INTEGER REFERENCES RunTable(RunId),
		MZ DOUBLE,
		Charge INTEGER,
		RTStart DOUBLE,
		RTEnd DOUBLE,
		Intensity DOUBLE,
		Score DOUBLE,
		ScanCount INTEGER
	);
	`

	if _, err := w.db.Exec(schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	return nil
}

func (w *Writer) prepareStatements() error {
	var err error

	w.featureStmt, err = w.db.Prepare(`
		INSERT INTO FeatureTable (
			RunId, MZ, Charge, RTStart, RTEnd, Intensity, Score, ScanCount
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare feature statement: %w", err)
	}

	return nil
}

// WriteRun inserts a run row plus all its features and returns the run
// id assigned by the database.
func (w *Writer) WriteRun(ctx context.Context, sourcePath string, scanCount, maxCharge int, features []model.Feature) (int64, error) {
	res, err := w.db.ExecContext(ctx, `
		INSERT INTO RunTable (SourcePath, ScanCount, MaxCharge, CreationDate)
		VALUES (?, ?, ?, ?)
	`, sourcePath, scanCount, maxCharge, time.Now().Format(runDateFormat))
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	for _, f := range features {
		_, err := w.featureStmt.ExecContext(ctx,
			runID, f.MZ, f.Charge, f.RTStart, f.RTEnd, f.Intensity, f.Score, f.Scans,
		)
		if err != nil {
			return 0, fmt.Errorf("insert feature: %w", err)
		}
	}

	w.logger.Info(ctx, "run persisted",
		logger.String("path", w.outputPath),
		logger.Int("features", len(features)),
	)

	return runID, nil
}

// Finalize closes the prepared statements and the database.
func (w *Writer) Finalize() error {
	if w.featureStmt != nil {
		w.featureStmt.Close()
	}

	if err := w.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	return nil
}

// Close closes the database connection (alias for Finalize).
func (w *Writer) Close() error {
	return w.Finalize()
}
