package db

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"nhanes-ci/internal/dataset"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS datasets (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    tag TEXT NOT NULL UNIQUE,
    source TEXT NOT NULL,
    label TEXT,
    imported_at TEXT NOT NULL,
    row_count INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_datasets_imported ON datasets(imported_at);

CREATE TABLE IF NOT EXISTS persons (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    dataset_id INTEGER NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
    seqn INTEGER NOT NULL,
    sex INTEGER NOT NULL DEFAULT 0,
    age INTEGER NOT NULL DEFAULT 0,
    education INTEGER NOT NULL DEFAULT 0,
    marital INTEGER NOT NULL DEFAULT 0,
    height REAL,
    weight REAL,
    bmi REAL,
    smoker INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_persons_dataset ON persons(dataset_id);

CREATE TABLE IF NOT EXISTS analyses (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    dataset_id INTEGER NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
    kind TEXT NOT NULL,
    variable TEXT NOT NULL,
    group_by TEXT,
    level REAL NOT NULL DEFAULT 0.95,
    created_at TEXT NOT NULL,
    notes TEXT
);
CREATE INDEX IF NOT EXISTS idx_analyses_dataset ON analyses(dataset_id);
CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_at);

CREATE TABLE IF NOT EXISTS estimates (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    analysis_id INTEGER NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
    group_label TEXT NOT NULL,
    n INTEGER NOT NULL,
    estimate REAL NOT NULL,
    se REAL NOT NULL,
    lower REAL NOT NULL,
    upper REAL NOT NULL,
    method TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_estimates_analysis ON estimates(analysis_id);
`

type DB struct {
	*sql.DB
	path string
}

func (db *DB) Path() string {
	return db.path
}

func Open(dbPath string) (*DB, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	dsn := dbPath
	if strings.Contains(dbPath, "?") {
		dsn += "&_pragma=foreign_keys(1)"
	} else {
		dsn += "?_pragma=foreign_keys(1)"
	}

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	database := &DB{DB: sqlDB, path: dbPath}

	if _, err := sqlDB.Exec(schemaSQL); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return database, nil
}

type Dataset struct {
	ID         int64
	Tag        string
	Source     string
	Label      string
	ImportedAt string
	RowCount   int64
}

type Analysis struct {
	ID        int64
	DatasetID int64
	Kind      string
	Variable  string
	GroupBy   string
	Level     float64
	CreatedAt string
	Notes     string
}

type Estimate struct {
	ID         int64
	AnalysisID int64
	GroupLabel string
	N          int64
	Estimate   float64
	SE         float64
	Lower      float64
	Upper      float64
	Method     string
}

func (db *DB) InsertDataset(ds *Dataset) (int64, error) {
	res, err := db.Exec(`
		INSERT INTO datasets (tag, source, label, imported_at, row_count)
		VALUES (?, ?, ?, ?, ?)`,
		ds.Tag, ds.Source, ds.Label, ds.ImportedAt, ds.RowCount)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// InsertPersons stores the parsed records in one transaction. NaN measures
// become NULL columns.
func (db *DB) InsertPersons(datasetID int64, persons []dataset.Person) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO persons (dataset_id, seqn, sex, age, education, marital, height, weight, bmi, smoker)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range persons {
		if _, err := stmt.Exec(datasetID, p.SEQN, p.Sex, p.Age, p.Education, p.Marital,
			nullFloat(p.Height), nullFloat(p.Weight), nullFloat(p.BMI), int(p.Smoker)); err != nil {
			return fmt.Errorf("insert person %d: %w", p.SEQN, err)
		}
	}

	return tx.Commit()
}

func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func (db *DB) ListDatasets(limit int) ([]Dataset, error) {
	query := `SELECT id, tag, source, label, imported_at, row_count FROM datasets ORDER BY imported_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var datasets []Dataset
	for rows.Next() {
		var d Dataset
		var label sql.NullString
		if err := rows.Scan(&d.ID, &d.Tag, &d.Source, &label, &d.ImportedAt, &d.RowCount); err != nil {
			return nil, err
		}
		d.Label = label.String
		datasets = append(datasets, d)
	}
	return datasets, rows.Err()
}

func (db *DB) GetDataset(id int64) (*Dataset, error) {
	return db.scanDataset(db.QueryRow(`
		SELECT id, tag, source, label, imported_at, row_count
		FROM datasets WHERE id = ?`, id))
}

// GetDatasetByRef resolves either a numeric id or a tag prefix.
func (db *DB) GetDatasetByRef(ref string) (*Dataset, error) {
	if id, err := parseID(ref); err == nil {
		return db.GetDataset(id)
	}
	return db.scanDataset(db.QueryRow(`
		SELECT id, tag, source, label, imported_at, row_count
		FROM datasets WHERE tag LIKE ? ORDER BY imported_at DESC LIMIT 1`, ref+"%"))
}

func (db *DB) GetLatestDataset() (*Dataset, error) {
	return db.scanDataset(db.QueryRow(`
		SELECT id, tag, source, label, imported_at, row_count
		FROM datasets ORDER BY imported_at DESC LIMIT 1`))
}

type row interface {
	Scan(dest ...interface{}) error
}

func (db *DB) scanDataset(r row) (*Dataset, error) {
	var d Dataset
	var label sql.NullString
	if err := r.Scan(&d.ID, &d.Tag, &d.Source, &label, &d.ImportedAt, &d.RowCount); err != nil {
		return nil, err
	}
	d.Label = label.String
	return &d, nil
}

func (db *DB) DeleteDataset(id int64) error {
	_, err := db.Exec(`DELETE FROM datasets WHERE id = ?`, id)
	return err
}

// LoadPersons reconstructs the parsed records for a dataset. NULL measures
// come back as NaN, matching the dataset package's missing convention.
func (db *DB) LoadPersons(datasetID int64) ([]dataset.Person, error) {
	rows, err := db.Query(`
		SELECT seqn, sex, age, education, marital, height, weight, bmi, smoker
		FROM persons WHERE dataset_id = ? ORDER BY seqn`, datasetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var persons []dataset.Person
	for rows.Next() {
		var p dataset.Person
		var height, weight, bmi sql.NullFloat64
		var smoker int
		if err := rows.Scan(&p.SEQN, &p.Sex, &p.Age, &p.Education, &p.Marital,
			&height, &weight, &bmi, &smoker); err != nil {
			return nil, err
		}
		p.Height = floatOrNaN(height)
		p.Weight = floatOrNaN(weight)
		p.BMI = floatOrNaN(bmi)
		p.Smoker = dataset.SmokeStatus(smoker)
		persons = append(persons, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(persons) == 0 {
		return nil, sql.ErrNoRows
	}
	return persons, nil
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func (db *DB) InsertAnalysis(a *Analysis) (int64, error) {
	res, err := db.Exec(`
		INSERT INTO analyses (dataset_id, kind, variable, group_by, level, created_at, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.DatasetID, a.Kind, a.Variable, a.GroupBy, a.Level, a.CreatedAt, a.Notes)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (db *DB) InsertEstimate(e *Estimate) (int64, error) {
	res, err := db.Exec(`
		INSERT INTO estimates (analysis_id, group_label, n, estimate, se, lower, upper, method)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.AnalysisID, e.GroupLabel, e.N, e.Estimate, e.SE, e.Lower, e.Upper, e.Method)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (db *DB) ListAnalyses(datasetID int64, limit int) ([]Analysis, error) {
	query := `SELECT id, dataset_id, kind, variable, group_by, level, created_at, notes FROM analyses WHERE 1=1`
	args := []interface{}{}

	if datasetID > 0 {
		query += " AND dataset_id = ?"
		args = append(args, datasetID)
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var analyses []Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, *a)
	}
	return analyses, rows.Err()
}

func (db *DB) GetAnalysis(id int64) (*Analysis, error) {
	return scanAnalysis(db.QueryRow(`
		SELECT id, dataset_id, kind, variable, group_by, level, created_at, notes
		FROM analyses WHERE id = ?`, id))
}

func scanAnalysis(r row) (*Analysis, error) {
	var a Analysis
	var groupBy, notes sql.NullString
	if err := r.Scan(&a.ID, &a.DatasetID, &a.Kind, &a.Variable, &groupBy, &a.Level, &a.CreatedAt, &notes); err != nil {
		return nil, err
	}
	a.GroupBy = groupBy.String
	a.Notes = notes.String
	return &a, nil
}

func (db *DB) DeleteAnalysis(id int64) error {
	_, err := db.Exec(`DELETE FROM analyses WHERE id = ?`, id)
	return err
}

func (db *DB) GetEstimatesForAnalysis(analysisID int64) ([]Estimate, error) {
	rows, err := db.Query(`
		SELECT id, analysis_id, group_label, n, estimate, se, lower, upper, method
		FROM estimates WHERE analysis_id = ? ORDER BY id`, analysisID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var estimates []Estimate
	for rows.Next() {
		var e Estimate
		if err := rows.Scan(&e.ID, &e.AnalysisID, &e.GroupLabel, &e.N,
			&e.Estimate, &e.SE, &e.Lower, &e.Upper, &e.Method); err != nil {
			return nil, err
		}
		estimates = append(estimates, e)
	}
	return estimates, rows.Err()
}

func (db *DB) CountAnalysesForDataset(datasetID int64) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM analyses WHERE dataset_id = ?`, datasetID).Scan(&count)
	return count, err
}

func parseID(s string) (int64, error) {
	var id int64
	if _, err := fmt.Sscanf(s, "%d", &id); err != nil {
		return 0, err
	}
	// Reject refs like "1abc" that Sscanf would accept.
	if fmt.Sprintf("%d", id) != s {
		return 0, fmt.Errorf("not a numeric id: %s", s)
	}
	return id, nil
}
