package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedID_ReturnsSameID(t *testing.T) {
	gen := NewFixedID("report-123")

	assert.Equal(t, "report-123", gen.Generate())
	assert.Equal(t, "report-123", gen.Generate())
}

func TestFixedID_EmptyDefault(t *testing.T) {
	assert.Equal(t, "test-report-default", NewFixedID("").Generate())
}

func TestSequenceID_Counts(t *testing.T) {
	gen := NewSequenceID("doc")

	assert.Equal(t, "doc-1", gen.Generate())
	assert.Equal(t, "doc-2", gen.Generate())
	assert.Equal(t, "doc-3", gen.Generate())
}
