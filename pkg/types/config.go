package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "channel-evidence/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SelectionConfig controls which rows of the target table are kept.
type SelectionConfig struct {
	// TargetsFile is the path to the IDG target CSV.
	TargetsFile string `json:"targets_file" yaml:"targets_file"`

	// Family is the required value of the family column (default "Ion Channel").
	Family string `json:"family" yaml:"family"`

	// TargetOnly keeps only rows whose target flag is true.
	TargetOnly bool `json:"target_only" yaml:"target_only"`

	// Column names; empty values use the IDG defaults (idgFamily, idgTarget, gene).
	FamilyColumn string `json:"family_column,omitempty" yaml:"family_column,omitempty"`
	TargetColumn string `json:"target_column,omitempty" yaml:"target_column,omitempty"`
	GeneColumn   string `json:"gene_column,omitempty" yaml:"gene_column,omitempty"`
}

// FetchConfig holds settings for the statement database client.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the INDRA DB REST endpoint (default https://db.indra.bio).
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey is sent as the api_key query parameter when set.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// EvidenceLimit caps the evidence returned per statement (default 100).
	EvidenceLimit int `json:"ev_limit" yaml:"ev_limit"`

	// BestFirst asks the database to order statements by evidence count.
	BestFirst bool `json:"best_first" yaml:"best_first"`

	// MaxPages bounds offset paging per gene (default 10).
	MaxPages int `json:"max_pages" yaml:"max_pages"`

	// MaxRetries is the number of retries on throttling or gateway errors (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RequestsPerSecond paces requests to the database (default 2).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`

	// CacheTTL is how long fetched responses are reused within a run (default 1h).
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl"`
}

// FilterConfig names the evidence source removed from every statement.
type FilterConfig struct {
	// ExcludedSource is the low-precision source (default "medscan").
	ExcludedSource string `json:"excluded_source" yaml:"excluded_source"`
}

// CollectConfig holds settings for the per-gene collection loop.
type CollectConfig struct {
	FilterConfig `yaml:",inline"`

	// Concurrency is the number of genes fetched in parallel (default 1).
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

// StoreConfig holds settings for the local statement database.
type StoreConfig struct {
	// DBDir is the directory holding statements.db and exports.
	DBDir string `json:"db_dir" yaml:"db_dir"`

	// MaxResults is the default maximum number of query results (default 50).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Selection SelectionConfig `json:"selection" yaml:"selection"`
	Fetch     FetchConfig     `json:"fetch" yaml:"fetch"`
	Collect   CollectConfig   `json:"collect" yaml:"collect"`
	Store     StoreConfig     `json:"store" yaml:"store"`

	// Output is the path of the binary result artifact.
	Output string `json:"output" yaml:"output"`
}
