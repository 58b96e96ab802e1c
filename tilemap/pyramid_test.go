package tilemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTileIDAncestor(t *testing.T) {
	tests := []struct {
		name  string
		id    TileID
		level int
		want  TileID
	}{
		{name: "parent", id: TileID{Level: 3, Column: 13, Row: 6}, level: 2, want: TileID{Level: 2, Column: 6, Row: 3}},
		{name: "root", id: TileID{Level: 3, Column: 13, Row: 6}, level: 0, want: TileID{Level: 0, Column: 1, Row: 0}},
		{name: "same level", id: TileID{Level: 3, Column: 13, Row: 6}, level: 3, want: TileID{Level: 3, Column: 13, Row: 6}},
		{name: "finer level", id: TileID{Level: 1, Column: 1, Row: 1}, level: 4, want: TileID{Level: 1, Column: 1, Row: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.id.Ancestor(tt.level))
		})
	}
	assert.Equal(t, "3/13/6", TileID{Level: 3, Column: 13, Row: 6}.String())
}

func TestPyramidExtent(t *testing.T) {
	p := DefaultPyramid(5)
	assert.NoError(t, p.Validate())
	assert.Equal(t, 2, p.Columns(0))
	assert.Equal(t, 1, p.Rows(0))
	assert.Equal(t, 16, p.Columns(3))
	assert.Equal(t, 8, p.Rows(3))
	assert.Equal(t, 4096, p.GlobalWidth(3))
	assert.Equal(t, 2048, p.GlobalHeight(3))
}

func TestPyramidNormalize(t *testing.T) {
	p := DefaultPyramid(2)
	tests := []struct {
		name string
		in   TileID
		want TileID
	}{
		{name: "valid", in: TileID{Level: 1, Column: 3, Row: 1}, want: TileID{Level: 1, Column: 3, Row: 1}},
		{name: "column wraps east", in: TileID{Level: 1, Column: 4, Row: 0}, want: TileID{Level: 1, Column: 0, Row: 0}},
		{name: "column wraps west", in: TileID{Level: 1, Column: -1, Row: 0}, want: TileID{Level: 1, Column: 3, Row: 0}},
		{name: "row clamps south", in: TileID{Level: 1, Column: 0, Row: 9}, want: TileID{Level: 1, Column: 0, Row: 1}},
		{name: "row clamps north", in: TileID{Level: 0, Column: 0, Row: -2}, want: TileID{Level: 0, Column: 0, Row: 0}},
		{name: "level clamps", in: TileID{Level: 7, Column: 8, Row: 3}, want: TileID{Level: 2, Column: 0, Row: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Normalize(tt.in)
			assert.Equal(t, tt.want, got)
			assert.True(t, p.Contains(got))
		})
	}
}

func TestPyramidValidate(t *testing.T) {
	bad := Pyramid{TileWidth: 0, TileHeight: 256, LevelZeroColumns: 0, LevelZeroRows: 1, MaxLevel: -1}
	err := bad.Validate()
	assert.ErrorContains(t, err, "tile size")
	assert.ErrorContains(t, err, "level zero grid")
	assert.ErrorContains(t, err, "max level")
}

func TestEuclideanMod(t *testing.T) {
	assert.Equal(t, 3, EuclideanMod(-1, 4))
	assert.Equal(t, 0, EuclideanMod(8, 4))
	assert.Equal(t, 1, EuclideanMod(-7, 4))
}

func TestParseProjection(t *testing.T) {
	p, err := ParseProjection("Mercator")
	assert.NoError(t, err)
	assert.Equal(t, Mercator, p)
	p, err = ParseProjection("")
	assert.NoError(t, err)
	assert.Equal(t, Equirectangular, p)
	_, err = ParseProjection("polar")
	assert.Error(t, err)
}
