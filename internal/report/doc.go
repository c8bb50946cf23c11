// Package report defines the structured medical-report input consumed by the
// composition engine.
//
// An Input is immutable for the duration of one composition. Validate checks
// the input contract up front so that composition either starts from a
// well-formed value or fails before any page content is produced.
package report
