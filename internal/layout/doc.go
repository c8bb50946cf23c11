// Package layout implements the cursor-based page layout model used to
// compose report documents.
//
// Coordinates are in points with the origin at the bottom-left corner of the
// page, so the vertical cursor starts near the top and decreases as content
// is drawn.
//
// LAYOUT MODEL:
//
// Content blocks are pure functions of the current vertical position: a block
// receives y, issues draw calls against a Canvas at that position and returns
// the next y. Cursor folds a sequence of blocks and is the only place the
// position is stored. Header, footer, signature and watermark are drawn at
// absolute coordinates derived from the page size and never touch the cursor.
//
// Drawing and measuring go through the Canvas, Metrics and ImageEmbedder
// interfaces; internal/render provides the PDF implementation and Recorder
// provides an in-memory one for tests and previews.
//
// Nothing in this package is safe for concurrent use, and nothing needs to be:
// each composition owns its own Canvas, Composer and Cursor.
package layout
