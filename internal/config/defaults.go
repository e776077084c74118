package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Source.DatabasePath == "" {
		cfg.Source.DatabasePath = "db.sqlite"
	}
	if cfg.Elasticsearch.URL == "" {
		cfg.Elasticsearch.URL = "http://127.0.0.1:9200"
	}
	if cfg.Elasticsearch.Index == "" {
		cfg.Elasticsearch.Index = "movies"
	}
	if cfg.Metrics.Job == "" {
		cfg.Metrics.Job = "sqlite2es"
	}
}
