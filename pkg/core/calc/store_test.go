package calc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricStore_ResolvesAliases(t *testing.T) {
	s := NewMetricStore([]Entry{
		{Label: "資產總計", Value: 1000},
		{Label: "稅後淨利", Value: 80},
		{Label: "研發費用", Value: 12},
	})

	v, ok := s.Get("TotalAssets")
	require.True(t, ok)
	assert.Equal(t, 1000.0, v)
	assert.True(t, s.Has("NetIncome"))
	assert.True(t, s.Has("研發費用"))
	assert.Equal(t, []string{"研發費用"}, s.Unrecognized())
	assert.Equal(t, 2, s.CanonicalCount())

	src, ok := s.Source("NetIncome")
	require.True(t, ok)
	assert.Equal(t, "稅後淨利", src)
}

func TestNewMetricStore_LastWriteWins(t *testing.T) {
	s := NewMetricStore([]Entry{
		{Label: "營收", Value: 100},
		{Label: "營業收入淨額", Value: 120},
	})

	v, _ := s.Get("Revenue")
	assert.Equal(t, 120.0, v)
	assert.Equal(t, 1, s.Len())
	src, _ := s.Source("Revenue")
	assert.Equal(t, "營業收入淨額", src)
}

func TestNewMetricStoreFromMap_DeterministicCollisions(t *testing.T) {
	raw := map[string]float64{"營收": 100, "銷貨收入": 200, "Revenue": 300}
	first, _ := NewMetricStoreFromMap(raw).Get("Revenue")
	for i := 0; i < 20; i++ {
		again, _ := NewMetricStoreFromMap(raw).Get("Revenue")
		require.Equal(t, first, again)
	}
}

func TestNewStrictMetricStore_RejectsCollision(t *testing.T) {
	_, err := NewStrictMetricStore([]Entry{
		{Label: "淨利", Value: 1},
		{Label: "本期淨利", Value: 2},
	})

	var collision *CollisionError
	require.True(t, errors.As(err, &collision))
	assert.Equal(t, "NetIncome", collision.Key)
	assert.Equal(t, "淨利", collision.First)
	assert.Equal(t, "本期淨利", collision.Second)

	s, err := NewStrictMetricStore([]Entry{{Label: "淨利", Value: 1}, {Label: "總資產", Value: 2}})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
}

func TestNewStrictMetricStoreFromMap_SortedLabels(t *testing.T) {
	_, err := NewStrictMetricStoreFromMap(map[string]float64{"淨利": 1, "本期淨利": 2})

	var collision *CollisionError
	require.True(t, errors.As(err, &collision))
	assert.Equal(t, "NetIncome", collision.Key)
	assert.Equal(t, "本期淨利", collision.First)
	assert.Equal(t, "淨利", collision.Second)

	s, err := NewStrictMetricStoreFromMap(map[string]float64{"淨利": 1, "總資產": 2})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
}

func TestMetricStore_NilSafe(t *testing.T) {
	var s *MetricStore
	_, ok := s.Get("Revenue")
	assert.False(t, ok)
	assert.Zero(t, s.Len())
	assert.Empty(t, s.Values())
	assert.Zero(t, s.CanonicalCount())
}

func TestMetricStore_IndicatorsPreferRatios(t *testing.T) {
	s := NewMetricStoreFromMap(map[string]float64{"GrossMargin": 0.3, "Revenue": 10, "GrossProfit": 4})
	ind := s.Indicators(NewEngine(s).ExtractAll())

	assert.InDelta(t, 0.4, ind["GrossMargin"], 1e-9)
	assert.Equal(t, 10.0, ind["Revenue"])
}

func TestMetricStore_ValuesIsACopy(t *testing.T) {
	s := NewMetricStore([]Entry{{Label: "Revenue", Value: 1}})
	vals := s.Values()
	vals["Revenue"] = 99

	v, _ := s.Get("Revenue")
	assert.Equal(t, 1.0, v)
}
