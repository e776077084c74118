// Package models defines the data structures that flow through the migration pipeline.
package models

// Person identifies a writer or an actor attached to a movie.
type Person struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MovieRow is one row of the extraction query: a denormalized movie record as
// stored in the legacy database. Text columns are never NULL at the source;
// absent values are the literal string "N/A".
type MovieRow struct {
	ID         string
	Genre      string
	Director   string
	Title      string
	Plot       string
	IMDBRating string
	// Writers holds a JSON array of {"id": ...} objects. Legacy rows that
	// only filled the single writer column arrive here already rewritten
	// into the same one-element array shape by the extraction query.
	Writers string
	// ActorIDs and ActorNames are comma-joined aggregates over the cast
	// join, positionally aligned with each other. Both are nil for movies
	// with no cast.
	ActorIDs   *string
	ActorNames *string
}
