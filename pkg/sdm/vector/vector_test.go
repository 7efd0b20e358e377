package vector

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const squareGeoJSON = `{
	"type": "FeatureCollection",
	"features": [{
		"type": "Feature",
		"properties": {"name": "study area"},
		"geometry": {
			"type": "Polygon",
			"coordinates": [[[0,0],[4,0],[4,4],[0,4],[0,0]]]
		}
	}]
}`

const squareKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Placemark>
      <Polygon>
        <outerBoundaryIs>
          <LinearRing>
            <coordinates>
              0,0,0 4,0,0 4,4,0 0,4,0 0,0,0
            </coordinates>
          </LinearRing>
        </outerBoundaryIs>
      </Polygon>
    </Placemark>
  </Document>
</kml>`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0666))
	return path
}

func TestReadGeoJSON(t *testing.T) {
	b, err := Read(writeTemp(t, "area.geojson", squareGeoJSON))
	require.NoError(t, err)
	assert.Equal(t, WGS84, b.Proj)
	assert.True(t, b.Contains(2, 2))
	assert.False(t, b.Contains(5, 2))
	bound := b.Bound()
	assert.Equal(t, 0.0, bound.Min[0])
	assert.Equal(t, 4.0, bound.Max[1])
}

func TestReadKML(t *testing.T) {
	b, err := Read(writeTemp(t, "area.kml", squareKML))
	require.NoError(t, err)
	assert.Equal(t, WGS84, b.Proj)
	assert.True(t, b.Contains(2, 2))
	assert.False(t, b.Contains(-1, 2))
}

func TestReadNoPolygon(t *testing.T) {
	_, err := Read(writeTemp(t, "pt.geojson",
		`{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]}}`))
	assert.Error(t, err)
}

func TestReadMissing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.geojson"))
	assert.Error(t, err)
}

func TestReprojectRoundTrip(t *testing.T) {
	b, err := Read(writeTemp(t, "area.geojson", squareGeoJSON))
	require.NoError(t, err)
	merc, err := b.Reproject(Mercator)
	require.NoError(t, err)
	assert.Equal(t, Mercator, merc.Proj)
	back, err := merc.Reproject(WGS84)
	require.NoError(t, err)
	for i, ring := range back.Geom[0] {
		for j, p := range ring {
			assert.InDelta(t, b.Geom[0][i][j][0], p[0], 1e-6)
			assert.InDelta(t, b.Geom[0][i][j][1], p[1], 1e-6)
		}
	}
	// The original boundary must stay untouched.
	assert.Equal(t, WGS84, b.Proj)
	assert.Equal(t, 0.0, b.Geom[0][0][0][0])
}

func TestReprojectUnsupported(t *testing.T) {
	b, err := Read(writeTemp(t, "area.geojson", squareGeoJSON))
	require.NoError(t, err)
	_, err = b.Reproject("EPSG:32617")
	assert.True(t, errors.Is(err, ErrProjection))
}
