package harness

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_MinimalLow(t *testing.T) {
	// Regenerate with:
	//   go test ./internal/harness -run TestRunWithGolden_MinimalLow -update
	err := RunWithGolden(t, loadTestScenario(t, "minimal_low"))
	require.NoError(t, err)
}

func TestAssertGolden_ReusesResult(t *testing.T) {
	result, err := Run(loadTestScenario(t, "minimal_low"))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	require.NoError(t, AssertGolden(t, "minimal_low", result))
}

func TestRunWithGolden_PropagatesRunError(t *testing.T) {
	s := &Scenario{Name: "broken", Description: "bad clock", Input: inlineInput(), ComposedAt: "yesterday"}

	err := RunWithGolden(t, s)
	require.Error(t, err)
}
