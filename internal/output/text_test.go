package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kostyay/kaspamon/internal/model"
	"github.com/kostyay/kaspamon/internal/reconcile"
)

func TestStatusLine(t *testing.T) {
	got := StatusLine(testSnapshot())
	assert.Equal(t, "node=Syncing sync=Syncing DAG Blocks... 50% daa=1,234,567 cpu=12.5% rss=512 MiB peers=8 btc=0.000003 usd=0.123400", got)
}

func TestStatusLine_Synced(t *testing.T) {
	snap := reconcile.Snapshot{
		NodePhase: model.PhaseSynced,
		State:     model.State{Synced: model.Ptr(true)},
	}
	assert.Equal(t, "node=Synced sync=synced", StatusLine(snap))
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "65,432.1", FormatPrice(65432.1))
	assert.Equal(t, "1.50", FormatPrice(1.5))
	assert.Equal(t, "0.123400", FormatPrice(0.1234))
}

func TestFormatCompact(t *testing.T) {
	assert.Equal(t, "3.2B", FormatCompact(3.2e9))
	assert.Equal(t, "15M", FormatCompact(15e6))
	assert.Equal(t, "999", FormatCompact(999))
}

func TestRenderCurrencies(t *testing.T) {
	var buf bytes.Buffer
	err := RenderCurrencies(&buf, []model.CurrencyDescriptor{
		{ID: "kaspa", Symbol: "kas", Name: "Kaspa"},
		{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"},
		{ID: "usd-coin", Symbol: "usdc", Name: "USDC"},
	})
	require.NoError(t, err)
	assert.Equal(t, "kas   Kaspa (kaspa)\nbtc   Bitcoin (bitcoin)\nusdc  USDC (usd-coin)\n", buf.String())
}
