// Package transform normalizes extraction rows into search documents.
package transform

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dukiAleksey/sqlite2elasticsearch/internal/models"
)

// notAvailable is the marker the legacy database stores where a value is
// absent. It appears in rating, director, plot and person-name columns and
// must never leak into a document.
const notAvailable = "N/A"

// Document normalizes one extraction row into a search document. Pure, no
// I/O. The failure modes are malformed input (writers JSON, rating) and a
// writer id missing from the directory; the latter is a data-integrity fault
// and fails the row rather than dropping the entry.
func Document(row *models.MovieRow, writers map[string]models.Person) (*models.SearchDocument, error) {
	movieWriters, err := resolveWriters(row.ID, row.Writers, writers)
	if err != nil {
		return nil, err
	}

	rating, err := optionalRating(row.IMDBRating)
	if err != nil {
		return nil, fmt.Errorf("movie %s: %w", row.ID, err)
	}

	actors, actorNames := zipActors(row.ActorIDs, row.ActorNames)

	writerNames := make([]string, 0, len(movieWriters))
	for _, w := range movieWriters {
		writerNames = append(writerNames, w.Name)
	}

	return &models.SearchDocument{
		ID:           row.ID,
		Genre:        splitGenres(row.Genre),
		Writers:      movieWriters,
		ActorsNames:  actorNames,
		WritersNames: writerNames,
		Actors:       actors,
		IMDBRating:   rating,
		Title:        row.Title,
		Director:     splitDirectors(row.Director),
		Description:  optionalText(row.Plot),
	}, nil
}

// splitGenres drops every space from the whole string before splitting: the
// source stores "Action, Drama" without meaning the space.
func splitGenres(genre string) []string {
	return strings.Split(strings.ReplaceAll(genre, " ", ""), ",")
}

// resolveWriters parses the writers JSON array and resolves each entry
// through the directory. Entries whose resolved name is the sentinel are
// skipped; the rest are deduplicated by id keeping first-seen order.
// Resolution runs before the dedup check, so a repeated unknown id still
// faults.
func resolveWriters(movieID, writersJSON string, directory map[string]models.Person) ([]models.Person, error) {
	var refs []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(writersJSON), &refs); err != nil {
		return nil, fmt.Errorf("movie %s: failed to parse writers: %w", movieID, err)
	}

	result := make([]models.Person, 0, len(refs))
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		writer, ok := directory[ref.ID]
		if !ok {
			return nil, fmt.Errorf("movie %s: unknown writer id %q", movieID, ref.ID)
		}
		if writer.Name == notAvailable || seen[ref.ID] {
			continue
		}
		seen[ref.ID] = true
		result = append(result, writer)
	}
	return result, nil
}

// zipActors splits both aggregates on "," and pairs them positionally. The
// zip runs before the sentinel filter so dropping an unknown name never
// shifts correspondence. Either aggregate being nil means the movie has no
// cast; both outputs are empty, not nil, per the document contract.
func zipActors(ids, names *string) ([]models.Person, []string) {
	actors := []models.Person{}
	actorNames := []string{}
	if ids == nil || names == nil {
		return actors, actorNames
	}
	idList := strings.Split(*ids, ",")
	nameList := strings.Split(*names, ",")
	n := len(idList)
	if len(nameList) < n {
		n = len(nameList)
	}
	for i := 0; i < n; i++ {
		if nameList[i] == notAvailable {
			continue
		}
		actors = append(actors, models.Person{ID: idList[i], Name: nameList[i]})
		actorNames = append(actorNames, nameList[i])
	}
	return actors, actorNames
}

// optionalText maps the sentinel to nil.
func optionalText(s string) *string {
	if s == notAvailable {
		return nil
	}
	return &s
}

// optionalRating maps the sentinel to nil and parses anything else. A
// non-numeric, non-sentinel value is a fault, not a null.
func optionalRating(s string) (*float64, error) {
	if s == notAvailable {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse imdb_rating %q: %w", s, err)
	}
	return &v, nil
}

// splitDirectors returns nil for the sentinel, so the field marshals as JSON
// null rather than an empty list. Otherwise splits on "," and trims
// surrounding whitespace from each name.
func splitDirectors(director string) []string {
	if director == notAvailable {
		return nil
	}
	parts := strings.Split(director, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}
