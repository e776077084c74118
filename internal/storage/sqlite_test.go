package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dukiAleksey/sqlite2elasticsearch/internal/models"
)

// createFixture builds a legacy movies database in a temp dir and returns its
// path. The writers table deliberately has no primary key: the legacy store
// carries duplicate rows, which LoadWriters must collapse.
func createFixture(t *testing.T, inserts []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movies.sqlite")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	schema := `
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
	if _, err := db.Exec(schema); err != nil {
		t.Fatal(err)
	}
	for _, stmt := range inserts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("fixture insert failed: %v\n%s", err, stmt)
		}
	}
	return path
}

func TestNewSQLiteSource_MissingFile(t *testing.T) {
	_, err := NewSQLiteSource(filepath.Join(t.TempDir(), "absent.sqlite"))
	if err == nil {
		t.Fatal("expected error for a missing database file")
	}
}

func TestSQLiteSource_LoadWriters(t *testing.T) {
	path := createFixture(t, []string{
		`INSERT INTO writers VALUES ('w1', 'Alice')`,
		`INSERT INTO writers VALUES ('w1', 'Alice')`,
		`INSERT INTO writers VALUES ('w2', 'Bob')`,
	})
	src, err := NewSQLiteSource(path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	writers, err := src.LoadWriters(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(writers) != 2 {
		t.Fatalf("expected 2 writers after dedup, got %d: %v", len(writers), writers)
	}
	if writers["w1"] != (models.Person{ID: "w1", Name: "Alice"}) {
		t.Errorf("w1 = %+v", writers["w1"])
	}
	if writers["w2"] != (models.Person{ID: "w2", Name: "Bob"}) {
		t.Errorf("w2 = %+v", writers["w2"])
	}
}

func TestSQLiteSource_EachMovie(t *testing.T) {
	path := createFixture(t, []string{
		`INSERT INTO movies VALUES ('m1', 'Action, Sci-Fi', 'John Ford', '', 'First', 'Plot one', '7.5', '[{"id": "w1"}, {"id": "w2"}]')`,
		`INSERT INTO movies VALUES ('m2', 'Drama', 'N/A', 'w9', 'Second', 'N/A', 'N/A', '')`,
		`INSERT INTO movies VALUES ('m3', 'Horror', 'Jane Doe', '', 'Third', 'Plot three', '5.0', '[]')`,
		`INSERT INTO actors VALUES ('a1', 'Ann')`,
		`INSERT INTO actors VALUES ('a2', 'Ben')`,
		`INSERT INTO movie_actors VALUES ('m1', 'a1')`,
		`INSERT INTO movie_actors VALUES ('m1', 'a2')`,
	})
	src, err := NewSQLiteSource(path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	rows := make(map[string]*models.MovieRow)
	err = src.EachMovie(context.Background(), func(row *models.MovieRow) error {
		copied := *row
		rows[row.ID] = &copied
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	m1 := rows["m1"]
	if m1.Genre != "Action, Sci-Fi" || m1.Title != "First" || m1.IMDBRating != "7.5" {
		t.Errorf("m1 scalars: %+v", m1)
	}
	if m1.Writers != `[{"id": "w1"}, {"id": "w2"}]` {
		t.Errorf("m1 writers passthrough: %q", m1.Writers)
	}
	if m1.ActorIDs == nil || m1.ActorNames == nil {
		t.Fatal("m1 aggregates should be present")
	}
	// Element order inside the aggregates is not contractual, but the two
	// columns must pair up positionally.
	ids := strings.Split(*m1.ActorIDs, ",")
	names := strings.Split(*m1.ActorNames, ",")
	if len(ids) != 2 || len(names) != 2 {
		t.Fatalf("m1 aggregates: %q / %q", *m1.ActorIDs, *m1.ActorNames)
	}
	pairs := map[string]string{}
	for i := range ids {
		pairs[ids[i]] = names[i]
	}
	if pairs["a1"] != "Ann" || pairs["a2"] != "Ben" {
		t.Errorf("m1 id/name pairing broken: %v", pairs)
	}

	// Legacy single-writer shorthand is rewritten by the query.
	m2 := rows["m2"]
	if m2.Writers != `[{"id": "w9"}]` {
		t.Errorf("m2 synthesized writers = %q", m2.Writers)
	}
	if m2.Director != "N/A" || m2.Plot != "N/A" || m2.IMDBRating != "N/A" {
		t.Errorf("m2 sentinels should pass through raw: %+v", m2)
	}

	// No cast: NULL aggregates, and an explicit writers array passes through.
	m3 := rows["m3"]
	if m3.ActorIDs != nil || m3.ActorNames != nil {
		t.Errorf("m3 aggregates should be nil: %+v", m3)
	}
	if m3.Writers != `[]` {
		t.Errorf("m3 writers = %q", m3.Writers)
	}
}

func TestSQLiteSource_EachMovie_CallbackErrorStopsIteration(t *testing.T) {
	path := createFixture(t, []string{
		`INSERT INTO movies VALUES ('m1', 'Drama', 'N/A', '', 'First', 'N/A', 'N/A', '[]')`,
		`INSERT INTO movies VALUES ('m2', 'Drama', 'N/A', '', 'Second', 'N/A', 'N/A', '[]')`,
	})
	src, err := NewSQLiteSource(path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	boom := errors.New("boom")
	var seen int
	err = src.EachMovie(context.Background(), func(*models.MovieRow) error {
		seen++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected callback error to propagate unchanged, got %v", err)
	}
	if seen != 1 {
		t.Errorf("iteration should stop after the failing row, saw %d", seen)
	}
}
