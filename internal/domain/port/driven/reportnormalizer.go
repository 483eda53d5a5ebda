// Package driven defines secondary port interfaces for external adapters.
package driven

import "github.com/ericfisherdev/ciannotate/internal/domain/model"

// ReportNormalizer turns one test report format into the canonical model.
// Implementations are pure: Normalize performs no I/O and keeps no state
// between calls.
type ReportNormalizer interface {
	// Format returns the registry name of the variant, e.g. "jest".
	Format() string
	// Normalize parses doc. It returns an error wrapping model.ErrFormatMismatch
	// when doc does not have this variant's shape.
	Normalize(doc []byte) (*model.TestReport, error)
}

// ReportNormalizerRegistry resolves normalizers by name or by sniffing a document.
type ReportNormalizerRegistry interface {
	// Lookup returns the named variant or an error wrapping model.ErrUnknownFormat.
	Lookup(format string) (ReportNormalizer, error)
	// Detect returns the variant whose signature matches doc, or an error
	// wrapping model.ErrFormatMismatch.
	Detect(doc []byte) (ReportNormalizer, error)
}
