package models

// SearchDocument is a normalized movie ready for the search index. Its JSON
// shape is the index contract: collections marshal as [] when empty, while
// IMDBRating, Director and Description use null to mean "unknown".
type SearchDocument struct {
	ID           string   `json:"id"`
	Genre        []string `json:"genre"`
	Writers      []Person `json:"writers"`
	ActorsNames  []string `json:"actors_names"`
	WritersNames []string `json:"writers_names"`
	Actors       []Person `json:"actors"`
	IMDBRating   *float64 `json:"imdb_rating"`
	Title        string   `json:"title"`
	Director     []string `json:"director"`
	Description  *string  `json:"description"`
}
