package calculation

import (
	"errors"
	"testing"

	"github.com/rpgo/lifesim/internal/domain"
	"github.com/rpgo/lifesim/pkg/dateutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPricePathDerivesBuckets(t *testing.T) {
	path := constantPath(t, 0.01, month(2025, 1), month(2026, 12))
	require.Len(t, path, 24)

	first, err := path.At(month(2025, 1))
	require.NoError(t, err)
	assert.Equal(t, "1.01", first.Long.String())
	assert.Equal(t, "1.006", first.Mid.String())
	assert.Equal(t, "1.0015", first.Short.String())
	assert.Equal(t, "0.006", first.MidGrowth.String())

	second, err := path.At(month(2025, 2))
	require.NoError(t, err)
	assert.Equal(t, "1.0201", second.Long.String())

	_, err = path.At(month(2027, 1))
	assert.True(t, errors.Is(err, domain.ErrDataIntegrity))
}

func TestBuildPricePathWrapsBlocksCircularly(t *testing.T) {
	history := []decimal.Decimal{d(0.01), d(0.02), d(0.03)}
	path, err := BuildPricePath(history, month(2025, 1), month(2026, 12), domain.PriceTrackConfig{}, 7)
	require.NoError(t, err)

	next := map[string]string{"0.01": "0.02", "0.02": "0.03", "0.03": "0.01"}
	prev, err := path.At(month(2025, 1))
	require.NoError(t, err)
	for i := 1; i < 24; i++ {
		cur, err := path.At(dateutil.AddMonths(month(2025, 1), i))
		require.NoError(t, err)
		assert.Equal(t, next[prev.LongGrowth.String()], cur.LongGrowth.String(), "month %d", i)
		prev = cur
	}
}

func TestBuildPricePathIsDeterministic(t *testing.T) {
	history := []decimal.Decimal{d(0.01), d(-0.02), d(0.03), d(0.005), d(-0.04)}
	cfg := domain.PriceTrackConfig{BlockMonths: 2}
	a, err := BuildPricePath(history, month(2025, 1), month(2030, 12), cfg, 42)
	require.NoError(t, err)
	b, err := BuildPricePath(history, month(2025, 1), month(2030, 12), cfg, 42)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	paths, err := BuildPricePaths(history, month(2025, 1), month(2030, 12), cfg, 40, 3)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, a, paths[2], "life i uses seed + i")
}

func TestBuildPricePathRejectsBadInput(t *testing.T) {
	_, err := BuildPricePath(nil, month(2025, 1), month(2025, 2), domain.PriceTrackConfig{}, 1)
	assert.True(t, errors.Is(err, domain.ErrDataIntegrity))

	_, err = BuildPricePath([]decimal.Decimal{d(0.01)}, month(2025, 2), month(2025, 1), domain.PriceTrackConfig{}, 1)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestPriceTrackAdvanceDoesNotShareHistory(t *testing.T) {
	base := PriceTrack{}.Advance(PricePoint{Long: d(1)})
	a := base.Advance(PricePoint{Long: d(2)})
	b := base.Advance(PricePoint{Long: d(3)})

	require.Len(t, base.LongHistory, 1)
	assert.Equal(t, "2", a.LongHistory[1].String())
	assert.Equal(t, "3", b.LongHistory[1].String())
	assert.Equal(t, "3", b.Current.Long.String())
}
