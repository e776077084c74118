// Package e2e provides end-to-end tests: a real SQLite fixture database run
// through the full pipeline against a fake Elasticsearch.
package e2e

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// fixtureSchema mirrors the legacy movies database: writers has no primary
// key (the real table carries duplicate rows), movies keeps both the legacy
// single-writer column and the JSON writers column.
const fixtureSchema = `
CREATE TABLE movies (
	id TEXT PRIMARY KEY,
	genre TEXT,
	director TEXT,
	writer TEXT,
	title TEXT,
	plot TEXT,
	imdb_rating TEXT,
	writers TEXT
);
CREATE TABLE actors (id TEXT PRIMARY KEY, name TEXT);
CREATE TABLE movie_actors (movie_id TEXT NOT NULL, actor_id TEXT NOT NULL);
CREATE TABLE writers (id TEXT, name TEXT);
`

// fixtureInserts covers every normalization path in one small corpus:
// m1 is a fully-populated modern row with a duplicated writer entry and a
// sentinel-named co-writer; m2 uses the legacy single-writer shorthand and
// sentinels everywhere else; m3 has no cast and an empty writers array.
var fixtureInserts = []string{
	`INSERT INTO movies VALUES ('m1', 'Action, Sci-Fi', ' Jane Smith , John Ford', '', 'First Movie', 'A plot.', '7.5', '[{"id": "w1"}, {"id": "w1"}, {"id": "w2"}]')`,
	`INSERT INTO movies VALUES ('m2', 'Drama', 'N/A', 'w1', 'Second Movie', 'N/A', 'N/A', '')`,
	`INSERT INTO movies VALUES ('m3', 'Horror', 'Jane Smith', '', 'Third Movie', 'Another plot.', '5.0', '[]')`,
	`INSERT INTO actors VALUES ('a1', 'Ann Actor')`,
	`INSERT INTO actors VALUES ('a2', 'N/A')`,
	`INSERT INTO movie_actors VALUES ('m1', 'a1')`,
	`INSERT INTO movie_actors VALUES ('m1', 'a2')`,
	`INSERT INTO writers VALUES ('w1', 'Jane Doe')`,
	`INSERT INTO writers VALUES ('w1', 'Jane Doe')`,
	`INSERT INTO writers VALUES ('w2', 'N/A')`,
}

// createFixtureDB builds the fixture database in a temp dir and returns its path.
func createFixtureDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movies.sqlite")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, err := db.Exec(fixtureSchema); err != nil {
		t.Fatal(err)
	}
	for _, stmt := range fixtureInserts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("fixture insert failed: %v\n%s", err, stmt)
		}
	}
	return path
}
