package utils

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// GenerateRunID creates a human-readable batch run ID.
// Format: run-{8charHexUUID}, e.g. "run-a3f8e2b1"
func GenerateRunID() string {
	return "run-" + generateShortUUID()
}

// GenerateJobID creates a job ID from the input identifier.
// Format: {inputStem}-{8charHexUUID}
//
// Examples:
//   - "/data/2019/MCD64A1_h19v10.tif" -> "MCD64A1_h19v10-3c1d09fa"
//   - "" -> "job-3c1d09fa"
func GenerateJobID(input string) string {
	stem := inputStem(input)
	if stem == "" {
		stem = "job"
	}
	return stem + "-" + generateShortUUID()
}

// inputStem strips directories and extension and replaces characters that
// are awkward in IDs.
func inputStem(input string) string {
	base := filepath.Base(input)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == ':' || r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, base)
}

// generateShortUUID creates an 8-character hex string from a UUID.
func generateShortUUID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:8]
}
