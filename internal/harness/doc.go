// Package harness runs report composition scenarios.
//
// A scenario composes one report on a recording surface instead of a PDF,
// then checks the outcome and the recorded drawing calls. Scenarios that set
// publish also upload the document into an in-memory store, so the records
// table can be asserted on.
//
// # Scenario Format
//
//	name: critical_block_present
//	description: "High urgency reports get the critical findings block"
//	report: ../reports/high_urgency.yaml
//	logo: ok
//	composed_at: "2025-03-14T09:30:00Z"
//	report_id: rep-001
//	publish: true
//	expect:
//	  logo_fallback: false
//	  filename: Medical_Report_P001_2025_03_14T09_30_00_000Z.pdf
//	assertions:
//	  - type: text_contains
//	    text: "Critical Findings:"
//	  - type: text_order
//	    texts: ["Summary:", "Critical Findings:", "Urgency Level:"]
//	  - type: op_count
//	    kind: circle
//	    count: 1
//	  - type: final_state
//	    table: reports
//	    where: { id: rep-001 }
//	    expect: { urgency: High }
//
// # Assertion Types
//
//   - text_contains: some text op contains the text (optionally at y, in color)
//   - text_absent: no text op contains the text
//   - text_order: the texts first appear in the given order
//   - op_count: exactly count ops of a kind were drawn
//   - final_state: a row of a store table holds the expected values
//
// # Deterministic Testing
//
// Every scenario runs with a frozen clock, a fixed composition ID and a stub
// logo, so traces are identical across runs and can be compared with golden
// files (see RunWithGolden).
package harness
