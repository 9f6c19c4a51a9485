package metrics

import (
	"database/sql"
	"math"
	"sync"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Store is a Writer that keeps everything in a SQLite database, so that the series of a search
// outlive the process.
//
// Writer methods can't return errors, so the first one encountered is kept, and returned by Err
// and Close. A failed write does not stop later ones. NaN is stored as NULL, and read back as NaN.
type Store struct {
	db *sql.DB

	mu  sync.Mutex
	err error
}

// OpenStore opens (or creates) the database at the given path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to open database %q", path)
	}

	stmts := []string{
		`PRAGMA journal_mode=WAL`,
		`CREATE TABLE IF NOT EXISTS scalars(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tag TEXT NOT NULL,
			step INTEGER NOT NULL,
			value REAL
		)`,
		`CREATE TABLE IF NOT EXISTS texts(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tag TEXT NOT NULL,
			step INTEGER NOT NULL,
			text TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS scalars_tag ON scalars(tag, step)`,
	}

	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "Failed to set up database %q", path)
		}
	}

	return &Store{db: db}, nil
}

func (s *Store) setError(err error) {
	if s.err == nil {
		s.err = err
	}
}

// Err returns the first error encountered while writing, if there was one.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Store) exec(query string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(query, args...); err != nil {
		s.setError(errors.Wrap(err, "Failed to write to metrics database"))
	}
}

func (s *Store) AddScalar(tag string, value float64, step int) {
	v := sql.NullFloat64{Float64: value, Valid: !math.IsNaN(value)}
	s.exec(`INSERT INTO scalars(tag, step, value) VALUES(?, ?, ?)`, tag, step, v)
}

func (s *Store) AddText(tag, text string, step int) {
	s.exec(`INSERT INTO texts(tag, step, text) VALUES(?, ?, ?)`, tag, step, text)
}

// Scalars returns the series with the given tag, by step, then order of writing.
func (s *Store) Scalars(tag string) ([]Point, error) {
	rows, err := s.db.Query(`SELECT step, value, id FROM scalars WHERE tag = ? ORDER BY step, id`, tag)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to query series %q", tag)
	}
	defer rows.Close()

	var ps []Point
	for rows.Next() {
		p := Point{Tag: tag}
		var v sql.NullFloat64
		if err := rows.Scan(&p.Step, &v, &p.seq); err != nil {
			return nil, errors.Wrapf(err, "Failed to read series %q", tag)
		}

		p.Value = math.NaN()
		if v.Valid {
			p.Value = v.Float64
		}
		ps = append(ps, p)
	}

	return ps, errors.Wrapf(rows.Err(), "Failed to read series %q", tag)
}

// Texts returns the text entries with the given tag, by step, then order of writing.
func (s *Store) Texts(tag string) ([]Text, error) {
	rows, err := s.db.Query(`SELECT step, text, id FROM texts WHERE tag = ? ORDER BY step, id`, tag)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to query texts %q", tag)
	}
	defer rows.Close()

	var ts []Text
	for rows.Next() {
		t := Text{Tag: tag}
		if err := rows.Scan(&t.Step, &t.Text, &t.seq); err != nil {
			return nil, errors.Wrapf(err, "Failed to read texts %q", tag)
		}
		ts = append(ts, t)
	}

	return ts, errors.Wrapf(rows.Err(), "Failed to read texts %q", tag)
}

// Close closes the database, returning the first error encountered while writing, if any.
func (s *Store) Close() error {
	cerr := s.db.Close()
	if err := s.Err(); err != nil {
		return err
	}
	return errors.Wrap(cerr, "Failed to close metrics database")
}
