package cachesaver

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/royalcat/pointpattern/geomodel"
	"github.com/stretchr/testify/require"
)

const testCRS = "+proj=tmerc +lat_0=49 +lon_0=-2"

func testDataset() *geomodel.Dataset {
	square := func(x, y float64) orb.MultiPolygon {
		return orb.MultiPolygon{{{{x, y}, {x, y + 1}, {x + 1, y + 1}, {x + 1, y}, {x, y}}}}
	}
	return &geomodel.Dataset{
		Metadata: geomodel.Metadata{
			Version:     1,
			RunID:       "0b4e7c1e",
			CRS:         testCRS,
			DateCreated: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
			Sources:     []string{"points.csv", "fine.geojson", "coarse.geojson"},
		},
		Points: geomodel.PointSet{CRS: testCRS, Points: []geomodel.Point{
			{Location: orb.Point{0.5, 0.5}, Attributes: map[string]string{"type": "burglary"}},
			{Location: orb.Point{1.5, 0.5}},
		}},
		Fine: geomodel.RegionSet{CRS: testCRS, Regions: []geomodel.Region{
			{ID: "a", Geometry: square(0, 0), Count: 1, Attributes: map[string]string{"name": "west"}},
			{ID: "b", Geometry: square(1, 0), Count: 1},
		}},
		Coarse: geomodel.RegionSet{CRS: testCRS, Regions: []geomodel.Region{
			{ID: "all", Geometry: orb.MultiPolygon{{{{0, 0}, {0, 1}, {2, 1}, {2, 0}, {0, 0}}}}, Count: 2},
		}},
		Study: orb.MultiPolygon{{{{0, 0}, {0, 1}, {2, 1}, {2, 0}, {0, 0}}}},
	}
}

func requireSameDataset(t *testing.T, expected, actual *geomodel.Dataset) {
	t.Helper()
	require.True(t, expected.Metadata.DateCreated.Equal(actual.Metadata.DateCreated))
	expectedMeta, actualMeta := expected.Metadata, actual.Metadata
	expectedMeta.DateCreated, actualMeta.DateCreated = time.Time{}, time.Time{}
	require.Equal(t, expectedMeta, actualMeta)
	require.Equal(t, expected.Points, actual.Points)
	require.Equal(t, expected.Fine, actual.Fine)
	require.Equal(t, expected.Coarse, actual.Coarse)
	require.Equal(t, expected.Study, actual.Study)
}

func TestRoundTrip(t *testing.T) {
	d := testDataset()

	var buf bytes.Buffer
	require.NoError(t, Save(d, &buf))

	loaded, err := LoadFromReader(&buf, slog.Default())
	require.NoError(t, err)
	requireSameDataset(t, d, loaded)
}

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	d := testDataset()

	for _, name := range []string{"snapshot.bin", "snapshot.bin.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, SaveFile(d, path))

			_, err := os.Stat(path + ".tmp")
			require.True(t, os.IsNotExist(err))

			loaded, err := LoadFile(path, slog.Default())
			require.NoError(t, err)
			requireSameDataset(t, d, loaded)
		})
	}
}

func TestSaveRejectsMixedCRS(t *testing.T) {
	d := testDataset()
	d.Fine.CRS = "+proj=longlat +datum=WGS84"

	var buf bytes.Buffer
	require.ErrorIs(t, Save(d, &buf), geomodel.ErrCRSMismatch)
	require.Zero(t, buf.Len())
}

func TestLoadErrors(t *testing.T) {
	_, err := LoadFromReader(bytes.NewReader([]byte("not a snapshot at all")), slog.Default())
	require.ErrorIs(t, err, ErrNotSnapshot)

	var buf bytes.Buffer
	buf.Write(MAGIC_BYTES)
	buf.Write([]byte{99, 0, 0, 0})
	_, err = LoadFromReader(&buf, slog.Default())
	require.ErrorIs(t, err, ErrUnsupportedVersion)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.bin"), slog.Default())
	require.Error(t, err)
}
