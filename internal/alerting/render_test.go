package alerting

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestRenderDescriptionEmbedsQuoteDetails(t *testing.T) {
	desc := RenderDescription(record("5.75", "2.50"), policy)

	require.Contains(t, desc, "**Current value:** 5.75 BRL")
	require.Contains(t, desc, "**Change:** 2.50% 📈")
	require.Contains(t, desc, "**Threshold:** 5.50 BRL")
	require.Contains(t, desc, "**Observed at:** 2024-01-15 13:30:00 UTC")
}

func TestRenderDescriptionTrend(t *testing.T) {
	require.Contains(t, RenderDescription(record("5.75", "-0.30"), policy), "-0.30% 📉")
	require.Contains(t, RenderDescription(record("5.75", "0"), policy), "0.00% ➖")
}

func TestRenderTitleEmbedsAmount(t *testing.T) {
	require.Contains(t, RenderTitle(record("5.7512", "1")), "5.75")
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
