// Package storage provides SQLite implementation of the Source interface.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dukiAleksey/sqlite2elasticsearch/internal/models"
)

// movieQuery is the extraction query. The CTE aggregates the cast join in a
// single scan so actors_ids and actors_names stay positionally aligned; the
// CASE rewrites legacy single-writer rows (empty writers column, id in the
// writer column) into the same JSON array shape modern rows carry, so the
// normalizer only ever sees one shape.
const movieQuery = `
WITH movie_cast AS (
    SELECT m.id,
           group_concat(a.id)   AS actors_ids,
           group_concat(a.name) AS actors_names
      FROM movies m
           LEFT JOIN movie_actors ma ON m.id = ma.movie_id
           LEFT JOIN actors a ON ma.actor_id = a.id
     GROUP BY m.id
)
SELECT m.id,
       m.genre,
       m.director,
       m.title,
       m.plot,
       m.imdb_rating,
       mc.actors_ids,
       mc.actors_names,
       CASE
           WHEN m.writers = '' THEN '[{"id": "' || m.writer || '"}]'
           ELSE m.writers
       END AS writers
  FROM movies m
       LEFT JOIN movie_cast mc ON m.id = mc.id`

const writersQuery = `SELECT DISTINCT id, name FROM writers`

// SQLiteSource implements Source using a SQLite database file.
type SQLiteSource struct {
	db *sql.DB
}

// NewSQLiteSource opens the database at dbPath read-only. The file must
// already exist: the driver would otherwise create an empty database and a
// run against a mistyped path would report zero movies instead of failing.
func NewSQLiteSource(dbPath string) (*SQLiteSource, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("failed to stat database: %w", err)
	}
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &SQLiteSource{db: db}, nil
}

// LoadWriters returns the writer directory keyed by id. DISTINCT collapses
// exact duplicate rows; if an id still appears under different names, the
// last scanned row wins.
func (s *SQLiteSource) LoadWriters(ctx context.Context) (map[string]models.Person, error) {
	rows, err := s.db.QueryContext(ctx, writersQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query writers: %w", err)
	}
	defer rows.Close()

	writers := make(map[string]models.Person)
	for rows.Next() {
		var p models.Person
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan writer: %w", err)
		}
		writers[p.ID] = p
	}
	return writers, rows.Err()
}

// EachMovie runs the extraction query and feeds every row to fn. The cursor
// is closed on all paths, including an early error return from fn.
func (s *SQLiteSource) EachMovie(ctx context.Context, fn func(*models.MovieRow) error) error {
	rows, err := s.db.QueryContext(ctx, movieQuery)
	if err != nil {
		return fmt.Errorf("failed to query movies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row models.MovieRow
		if err := rows.Scan(
			&row.ID,
			&row.Genre,
			&row.Director,
			&row.Title,
			&row.Plot,
			&row.IMDBRating,
			&row.ActorIDs,
			&row.ActorNames,
			&row.Writers,
		); err != nil {
			return fmt.Errorf("failed to scan movie: %w", err)
		}
		if err := fn(&row); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Close closes the database connection.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}
