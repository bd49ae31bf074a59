// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import "github.com/pdiddy/bibcheck/pkg/types"

// Exit codes mirror the worst per-entry verification status, so CI can
// gate on warnings and failures separately.
const (
	ExitPass    = 0 // every entry verified clean
	ExitWarning = 1 // stylistic differences or entries without paper IDs
	ExitFail    = 2 // mismatches, malformed annotations, or fetch failures
)

// statusExitCode maps a verification status to the process exit code.
func statusExitCode(status types.Status) int {
	switch status {
	case types.StatusFail:
		return ExitFail
	case types.StatusWarning:
		return ExitWarning
	default:
		return ExitPass
	}
}
