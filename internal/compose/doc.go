// Package compose turns a validated report input into a finished one-page
// PDF and hands it to a content-addressed store.
//
// # Composition
//
// Assembler.Compose draws a report in a fixed order:
//
//  1. Header band, logo (or a text fallback when the logo is unavailable), title
//  2. Issuer section: name, specialization, affiliation, contact, license
//  3. Subject section: identifier, report date, report title
//  4. Findings section: summary, critical findings, recommended tests,
//     suggested treatment, urgency
//  5. Signature block, footer band, watermark
//
// Sections 2 to 4 flow down the page through a layout.Cursor. Everything else
// sits at fixed coordinates derived from the page size.
//
// Composition is atomic. Input is validated before a surface is created, and
// any failure after that discards the surface, so callers get either a
// complete Document or an error. The only tolerated failure is the logo: if it
// cannot be fetched or embedded, the brand label is drawn in its place and
// Document.LogoFallback is set.
//
// # Publishing
//
// Publisher.Publish uploads a Document through an Uploader and records the
// returned content identifier alongside the report metadata. Upload errors are
// wrapped, never swallowed; the Document stays valid for a retry.
//
// # Determinism
//
// Given the same input, logo bytes, clock and ID generator, Compose produces
// the same layout. Tests inject testutil clocks and fixed IDs for golden
// comparisons.
package compose
