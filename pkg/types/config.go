// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "bibcheck/0.1"). CrossRef routes polite traffic by it.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetchConfig holds settings shared by all metadata provider clients.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// SemanticScholarAPIKey is an optional API key for higher resolver rate
	// limits. Keyed and keyless traffic pace against separate quotas.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// MaxRetries is the number of attempts per HTTP request (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// VerifyConfig holds settings for the verification stage.
type VerifyConfig struct {
	FetchConfig `yaml:",inline"`

	// MaxAgeDays bounds how old a verification annotation may be before the
	// entry is re-verified. Negative: any prior verification is fresh.
	// Zero: always re-verify. Positive: re-verify entries older than this.
	MaxAgeDays int `json:"max_age_days" yaml:"max_age_days"`

	// ArxivCheck enables the independent arXiv author cross-check for
	// entries whose selected source is not arXiv.
	ArxivCheck bool `json:"arxiv_check" yaml:"arxiv_check"`

	// AutoFindIDs enables falling back to the doi and eprint fields when an
	// entry has no paper_id comment.
	AutoFindIDs bool `json:"auto_find_ids" yaml:"auto_find_ids"`
}

// ResolveConfig holds settings for the paper-ID resolution stage.
type ResolveConfig struct {
	FetchConfig `yaml:",inline"`

	// MinConfidence is the minimum title similarity for accepting a
	// title-search candidate (default 0.85).
	MinConfidence float64 `json:"min_confidence" yaml:"min_confidence"`
}
