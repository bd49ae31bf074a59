// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Status is the outcome severity of a verification run. Higher is worse;
// the numeric value doubles as the process exit code.
type Status int

const (
	StatusPass    Status = 0
	StatusWarning Status = 1
	StatusFail    Status = 2
)

// String returns the status name in upper case (PASS, WARNING, FAIL).
func (s Status) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusWarning:
		return "WARNING"
	default:
		return "FAIL"
	}
}

// FieldMismatch records one field whose bibtex value differs from the
// fetched value.
type FieldMismatch struct {
	// Field is the bibtex field name (title, author, year, venue).
	Field string `json:"field" yaml:"field"`

	BibtexValue  string `json:"bibtex_value" yaml:"bibtex_value"`
	FetchedValue string `json:"fetched_value" yaml:"fetched_value"`

	// Source names the metadata source the fetched value came from.
	Source string `json:"source" yaml:"source"`

	// Similarity is the normalized edit-distance similarity in [0,1] for
	// title mismatches, 0 when not computed.
	Similarity float64 `json:"similarity,omitempty" yaml:"similarity,omitempty"`

	// IsWarning marks a stylistic difference (casing, markup, name order,
	// venue alias) rather than a content mismatch.
	IsWarning bool `json:"is_warning" yaml:"is_warning"`
}

// VerificationResult is the per-entry outcome of a verification run.
type VerificationResult struct {
	EntryKey string `json:"entry_key" yaml:"entry_key"`

	// Success means the entry was processed to completion: the paper was
	// resolved and fetched and its fields were compared. A completed entry
	// can still FAIL on mismatches.
	Success bool   `json:"success" yaml:"success"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// PaperID is the identifier used for resolution, with Source recording
	// where it came from (comment, doi, eprint).
	PaperID       string `json:"paper_id,omitempty" yaml:"paper_id,omitempty"`
	PaperIDSource string `json:"paper_id_source,omitempty" yaml:"paper_id_source,omitempty"`

	AlreadyVerified bool `json:"already_verified" yaml:"already_verified"`
	NoPaperID       bool `json:"no_paper_id" yaml:"no_paper_id"`

	// MissingDate marks the malformed annotation "verified via X" with no
	// date. It is a distinct error state, not a plain failure.
	MissingDate bool `json:"missing_date" yaml:"missing_date"`

	// ArxivConflict mirrors FetchBundle.ArxivConflict for this entry.
	ArxivConflict bool `json:"arxiv_conflict" yaml:"arxiv_conflict"`

	Mismatches []FieldMismatch `json:"mismatches" yaml:"mismatches"`
	Warnings   []FieldMismatch `json:"warnings" yaml:"warnings"`

	// Metadata is the selected source-of-truth record, when fetched.
	Metadata *PaperMetadata            `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Sources  map[string]*PaperMetadata `json:"sources,omitempty" yaml:"sources,omitempty"`
}

// NewVerificationResult returns a result for entryKey with the mismatch
// collections initialized.
func NewVerificationResult(entryKey string) VerificationResult {
	return VerificationResult{
		EntryKey:   entryKey,
		Mismatches: []FieldMismatch{},
		Warnings:   []FieldMismatch{},
	}
}

// Status derives the entry outcome. Hard mismatches, a missing verification
// date, and unprocessed entries (other than skips and missing paper IDs)
// FAIL; stylistic warnings and missing paper IDs WARN; everything else
// passes.
func (r *VerificationResult) Status() Status {
	if r.MissingDate {
		return StatusFail
	}
	if len(r.Mismatches) > 0 {
		return StatusFail
	}
	if !r.Success && !r.AlreadyVerified && !r.NoPaperID {
		return StatusFail
	}
	if len(r.Warnings) > 0 || r.NoPaperID {
		return StatusWarning
	}
	return StatusPass
}

// VerificationReport aggregates per-entry results for one file run.
type VerificationReport struct {
	TotalEntries         int `json:"total_entries" yaml:"total_entries"`
	Verified             int `json:"verified" yaml:"verified"`
	VerifiedWithWarnings int `json:"verified_with_warnings" yaml:"verified_with_warnings"`
	AlreadyVerified      int `json:"already_verified" yaml:"already_verified"`
	Failed               int `json:"failed" yaml:"failed"`
	NoPaperID            int `json:"no_paper_id" yaml:"no_paper_id"`
	MissingDate          int `json:"missing_date" yaml:"missing_date"`

	Results []VerificationResult `json:"results" yaml:"results"`
}

// NewVerificationReport returns an empty report with the result slice
// initialized.
func NewVerificationReport() *VerificationReport {
	return &VerificationReport{Results: []VerificationResult{}}
}

// Add appends the result and updates the counters. Each entry increments
// exactly one outcome counter; a missing date counts as both MissingDate
// and Failed.
func (rep *VerificationReport) Add(r VerificationResult) {
	rep.Results = append(rep.Results, r)
	rep.TotalEntries++

	switch {
	case r.AlreadyVerified:
		rep.AlreadyVerified++
	case r.MissingDate:
		rep.MissingDate++
		rep.Failed++
	case r.NoPaperID:
		rep.NoPaperID++
	case r.Success && len(r.Mismatches) == 0:
		if len(r.Warnings) > 0 {
			rep.VerifiedWithWarnings++
		} else {
			rep.Verified++
		}
	default:
		rep.Failed++
	}
}

// OverallStatus is the worst per-entry status in the report.
func (rep *VerificationReport) OverallStatus() Status {
	worst := StatusPass
	for i := range rep.Results {
		if s := rep.Results[i].Status(); s > worst {
			worst = s
		}
	}
	return worst
}

// ResolveResult is the per-entry outcome of a paper-ID resolution run.
type ResolveResult struct {
	EntryKey string `json:"entry_key" yaml:"entry_key"`
	Success  bool   `json:"success" yaml:"success"`
	Message  string `json:"message,omitempty" yaml:"message,omitempty"`

	// PaperID is the identifier that was found, with Source recording how
	// (existing, doi, eprint, title).
	PaperID string `json:"paper_id,omitempty" yaml:"paper_id,omitempty"`
	Source  string `json:"source,omitempty" yaml:"source,omitempty"`

	// Confidence is the title-match similarity for title-based resolution,
	// 1.0 for identifier-based resolution.
	Confidence float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`

	// AlreadyAnnotated means the entry already carried a paper_id comment.
	AlreadyAnnotated bool `json:"already_annotated" yaml:"already_annotated"`
}

// ResolveReport aggregates resolution results for one file run.
type ResolveReport struct {
	TotalEntries     int `json:"total_entries" yaml:"total_entries"`
	Resolved         int `json:"resolved" yaml:"resolved"`
	AlreadyAnnotated int `json:"already_annotated" yaml:"already_annotated"`
	Unresolved       int `json:"unresolved" yaml:"unresolved"`

	Results []ResolveResult `json:"results" yaml:"results"`
}

// NewResolveReport returns an empty report with the result slice initialized.
func NewResolveReport() *ResolveReport {
	return &ResolveReport{Results: []ResolveResult{}}
}

// Add appends the result and updates the counters.
func (rep *ResolveReport) Add(r ResolveResult) {
	rep.Results = append(rep.Results, r)
	rep.TotalEntries++

	switch {
	case r.AlreadyAnnotated:
		rep.AlreadyAnnotated++
	case r.Success:
		rep.Resolved++
	default:
		rep.Unresolved++
	}
}
