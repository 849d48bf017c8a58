package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DBFile is the name of the cache database inside the data directory.
const DBFile = "algorithm.db"

var (
	// ErrNotFound is returned when an algorithm is not cached locally.
	ErrNotFound = errors.New("algorithm not found")
	// ErrAlreadyExists is returned when inserting an algorithm that is
	// already cached.
	ErrAlreadyExists = errors.New("algorithm already exists")
)

// Store is the local algorithm cache backed by SQLite.
type Store struct {
	db      *sql.DB
	dataDir string
}

// Open opens (or creates) the cache database in dataDir and runs migrations.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBFile)
	db, err := sql.Open("sqlite3", "file:"+dbPath+dsnPragmas)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	return &Store{db: db, dataDir: dataDir}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DataDir returns the base data directory.
func (s *Store) DataDir() string {
	return s.dataDir
}

// ListAlgorithmInfos returns every cached algorithm ordered by name.
func (s *Store) ListAlgorithmInfos(ctx context.Context) ([]AlgorithmInfoEntity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT algorithm_name, title, description FROM algorithms ORDER BY algorithm_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list algorithms: %w", err)
	}
	defer rows.Close()

	var infos []AlgorithmInfoEntity
	for rows.Next() {
		var i AlgorithmInfoEntity
		if err := rows.Scan(&i.Name, &i.Title, &i.Description); err != nil {
			return nil, fmt.Errorf("scan algorithm: %w", err)
		}
		infos = append(infos, i)
	}
	return infos, rows.Err()
}

// GetAlgorithm loads a cached algorithm with its parameter and output rows.
// It returns ErrNotFound if the algorithm is not cached.
func (s *Store) GetAlgorithm(ctx context.Context, name string) (*AlgorithmEntity, error) {
	var e AlgorithmEntity
	err := s.db.QueryRowContext(ctx,
		`SELECT algorithm_name, title, description FROM algorithms WHERE algorithm_name = ?`, name,
	).Scan(&e.Info.Name, &e.Info.Title, &e.Info.Description)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("algorithm %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup algorithm %q: %w", name, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT data_id, algorithm_name, is_input, algorithm_field_name, title, description,
		        data_shape, data_type, default_value
		 FROM algorithm_data WHERE algorithm_name = ? ORDER BY data_id`, name,
	)
	if err != nil {
		return nil, fmt.Errorf("query algorithm data: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d AlgorithmDataEntity
		if err := rows.Scan(&d.DataID, &d.AlgorithmName, &d.IsInput, &d.FieldName, &d.Title,
			&d.Description, &d.DataShape, &d.DataType, &d.DefaultValue); err != nil {
			return nil, fmt.Errorf("scan algorithm data: %w", err)
		}
		if d.IsInput {
			e.Parameters = append(e.Parameters, d)
		} else {
			e.Outputs = append(e.Outputs, d)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &e, nil
}

// InsertAlgorithm caches a new algorithm and its data rows in one
// transaction. It returns ErrAlreadyExists if the name is already cached.
func (s *Store) InsertAlgorithm(ctx context.Context, info AlgorithmInfoEntity, data []AlgorithmDataEntity) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM algorithms WHERE algorithm_name = ?`, info.Name).Scan(&exists)
	if err == nil {
		return fmt.Errorf("algorithm %q: %w", info.Name, ErrAlreadyExists)
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("lookup algorithm %q: %w", info.Name, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO algorithms (algorithm_name, title, description) VALUES (?, ?, ?)`,
		info.Name, info.Title, info.Description,
	); err != nil {
		return fmt.Errorf("insert algorithm %q: %w", info.Name, err)
	}

	for _, d := range data {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO algorithm_data (algorithm_name, is_input, algorithm_field_name, title, description,
			                             data_shape, data_type, default_value)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			info.Name, d.IsInput, d.FieldName, d.Title, d.Description, d.DataShape, d.DataType, d.DefaultValue,
		); err != nil {
			return fmt.Errorf("insert data %q of %q: %w", d.FieldName, info.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// UpdateAlgorithm refreshes an already cached algorithm. Data rows are
// matched by field name and direction; nothing is inserted, so an algorithm
// that was never cached stays absent. It reports whether the algorithm row
// existed.
func (s *Store) UpdateAlgorithm(ctx context.Context, info AlgorithmInfoEntity, data []AlgorithmDataEntity) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE algorithms SET title = ?, description = ? WHERE algorithm_name = ?`,
		info.Title, info.Description, info.Name,
	)
	if err != nil {
		return false, fmt.Errorf("update algorithm %q: %w", info.Name, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return false, nil
	}

	for _, d := range data {
		if _, err := tx.ExecContext(ctx,
			`UPDATE algorithm_data SET title = ?, description = ?, data_shape = ?, data_type = ?, default_value = ?
			 WHERE algorithm_name = ? AND is_input = ? AND algorithm_field_name = ?`,
			d.Title, d.Description, d.DataShape, d.DataType, d.DefaultValue,
			info.Name, d.IsInput, d.FieldName,
		); err != nil {
			return false, fmt.Errorf("update data %q of %q: %w", d.FieldName, info.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

// DeleteAlgorithm removes the algorithm row and all of its data rows.
func (s *Store) DeleteAlgorithm(ctx context.Context, e *AlgorithmEntity) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, d := range e.Rows() {
		if _, err := tx.ExecContext(ctx, `DELETE FROM algorithm_data WHERE data_id = ?`, d.DataID); err != nil {
			return fmt.Errorf("delete data %q of %q: %w", d.FieldName, e.Info.Name, err)
		}
	}
	// Rows written by another client since the entity was loaded.
	if _, err := tx.ExecContext(ctx, `DELETE FROM algorithm_data WHERE algorithm_name = ?`, e.Info.Name); err != nil {
		return fmt.Errorf("delete data of %q: %w", e.Info.Name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM algorithms WHERE algorithm_name = ?`, e.Info.Name); err != nil {
		return fmt.Errorf("delete algorithm %q: %w", e.Info.Name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// CountData returns the number of data rows cached for name.
func (s *Store) CountData(ctx context.Context, name string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM algorithm_data WHERE algorithm_name = ?`, name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count data of %q: %w", name, err)
	}
	return n, nil
}
