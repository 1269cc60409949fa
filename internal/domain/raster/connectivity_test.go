package raster_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/floodfill-go/internal/domain/raster"
	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
)

func TestConnected(t *testing.T) {
	temporal := raster.DefaultParams()
	temporal.Window = 10
	spatial := raster.SpatialParams(raster.Adjacency8)

	tests := []struct {
		name   string
		a, b   raster.Pixel
		params raster.Params
		want   bool
	}{
		{"both unburned", raster.Unburned(), raster.Unburned(), temporal, false},
		{"first unburned", raster.Unburned(), raster.BurnedOn(3), temporal, false},
		{"second unburned", raster.BurnedOn(3), raster.Unburned(), temporal, false},
		{"both burned undated", raster.BurnedUndated(), raster.BurnedUndated(), temporal, true},
		{"dates within window", raster.BurnedOn(100), raster.BurnedOn(110), temporal, true},
		{"dates beyond window", raster.BurnedOn(100), raster.BurnedOn(111), temporal, false},
		{"window is symmetric", raster.BurnedOn(111), raster.BurnedOn(100), temporal, false},
		{"one date missing skips test", raster.BurnedOn(1), raster.BurnedUndated(), temporal, true},
		{"spatial only ignores dates", raster.BurnedOn(1), raster.BurnedOn(300), spatial, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, raster.Connected(tt.a, tt.b, tt.params))
		})
	}
}

func TestParams_Validate(t *testing.T) {
	negative := raster.DefaultParams()
	negative.Window = -1

	badAdjacency := raster.DefaultParams()
	badAdjacency.Adjacency = 6

	seedUnion := raster.DefaultParams()
	seedUnion.Mode = raster.TemporalSeed
	seedUnion.Strategy = raster.StrategyUnionFind

	spatialSeedUnion := seedUnion
	spatialSeedUnion.Temporal = false

	zero := raster.Params{Adjacency: raster.Adjacency4}

	tests := []struct {
		name    string
		params  raster.Params
		wantErr string
	}{
		{"defaults", raster.DefaultParams(), ""},
		{"zero mode and strategy fall back", zero, ""},
		{"negative window", negative, "temporal window"},
		{"unknown adjacency", badAdjacency, "adjacency"},
		{"unionfind with seed mode", seedUnion, "strategy"},
		{"unionfind with seed mode but spatial only", spatialSeedUnion, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, shared.IsConfigError(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseAdjacency(t *testing.T) {
	a, err := raster.ParseAdjacency("4")
	require.NoError(t, err)
	assert.Equal(t, raster.Adjacency4, a)

	a, err = raster.ParseAdjacency(" 8 ")
	require.NoError(t, err)
	assert.Equal(t, raster.Adjacency8, a)

	_, err = raster.ParseAdjacency("6")
	assert.Equal(t, shared.KindConfigError, shared.ErrorKind(err))
}

func TestParseStrategyAndMode(t *testing.T) {
	s, err := raster.ParseStrategy("UnionFind")
	require.NoError(t, err)
	assert.Equal(t, raster.StrategyUnionFind, s)

	_, err = raster.ParseStrategy("watershed")
	assert.True(t, shared.IsConfigError(err))

	m, err := raster.ParseTemporalMode("seed")
	require.NoError(t, err)
	assert.Equal(t, raster.TemporalSeed, m)

	_, err = raster.ParseTemporalMode("global")
	assert.True(t, shared.IsConfigError(err))
}
