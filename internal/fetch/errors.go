// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"errors"
	"fmt"
)

// ProviderError reports a provider request that failed after retries were
// exhausted. A paper that a provider definitively does not have is not an
// error; clients return (nil, nil) for that.
type ProviderError struct {
	// Provider is the source name (crossref, dblp, arxiv, semantic-scholar).
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// DataIntegrityError reports a DOI that the resolver attributes to a paper
// but that CrossRef has no record for. The identifier data is inconsistent,
// so silently falling through to another source would verify against the
// wrong record.
type DataIntegrityError struct {
	DOI string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("DOI %s not found in CrossRef; identifier data is inconsistent", e.DOI)
}

// IsProviderError reports whether err is (or wraps) a ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// IsDataIntegrityError reports whether err is (or wraps) a DataIntegrityError.
func IsDataIntegrityError(err error) bool {
	var de *DataIntegrityError
	return errors.As(err, &de)
}
