package vector

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/project"
)

// Projection identifiers understood by Reproject.
const (
	WGS84    = "EPSG:4326"
	Mercator = "EPSG:3857"
)

// ErrProjection marks an unsupported projection pair.
var ErrProjection = errors.New("unsupported projection")

// Boundary is an immutable polygon boundary with its projection.
type Boundary struct {
	Geom orb.MultiPolygon
	Proj string
}

// Read reads a boundary from a GeoJSON or KML file.  Both formats
// carry WGS84 coordinates.
func Read(path string) (*Boundary, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".kml":
		return readKML(path)
	default:
		return readGeoJSON(path)
	}
}

func readGeoJSON(path string) (*Boundary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read boundary %s: %w", path, err)
	}
	var geoms []orb.Geometry
	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil {
		for _, f := range fc.Features {
			geoms = append(geoms, f.Geometry)
		}
	} else if f, err := geojson.UnmarshalFeature(data); err == nil {
		geoms = append(geoms, f.Geometry)
	} else {
		return nil, fmt.Errorf("read boundary %s: %v", path, err)
	}
	var mp orb.MultiPolygon
	for _, g := range geoms {
		switch g := g.(type) {
		case orb.Polygon:
			mp = append(mp, g)
		case orb.MultiPolygon:
			mp = append(mp, g...)
		}
	}
	if len(mp) == 0 {
		return nil, fmt.Errorf("read boundary %s: no polygon geometry", path)
	}
	return &Boundary{Geom: mp, Proj: WGS84}, nil
}

// readKML reads the outer rings of all polygons in a KML document.
// Inner rings (holes) are honored per polygon.
func readKML(path string) (*Boundary, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read boundary %s: %w", path, err)
	}
	defer in.Close()
	doc, err := xmlquery.Parse(in)
	if err != nil {
		return nil, fmt.Errorf("read boundary %s: %v", path, err)
	}
	var mp orb.MultiPolygon
	for _, poly := range xmlquery.Find(doc, "//Polygon") {
		var p orb.Polygon
		outer := xmlquery.FindOne(poly, "./outerBoundaryIs/LinearRing/coordinates")
		if outer == nil {
			continue
		}
		ring, err := parseKMLRing(outer.InnerText())
		if err != nil {
			return nil, fmt.Errorf("read boundary %s: %v", path, err)
		}
		p = append(p, ring)
		for _, inner := range xmlquery.Find(poly, "./innerBoundaryIs/LinearRing/coordinates") {
			ring, err := parseKMLRing(inner.InnerText())
			if err != nil {
				return nil, fmt.Errorf("read boundary %s: %v", path, err)
			}
			p = append(p, ring)
		}
		mp = append(mp, p)
	}
	if len(mp) == 0 {
		return nil, fmt.Errorf("read boundary %s: no polygon geometry", path)
	}
	return &Boundary{Geom: mp, Proj: WGS84}, nil
}

// parseKMLRing parses a KML coordinates blob of whitespace separated
// lon,lat[,alt] tuples into a closed ring.
func parseKMLRing(text string) (orb.Ring, error) {
	var ring orb.Ring
	for _, tuple := range strings.Fields(text) {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 {
			return nil, fmt.Errorf("bad coordinate tuple %q", tuple)
		}
		lon, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("bad longitude %q", parts[0])
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("bad latitude %q", parts[1])
		}
		ring = append(ring, orb.Point{lon, lat})
	}
	if len(ring) < 3 {
		return nil, fmt.Errorf("ring with %d coordinates", len(ring))
	}
	if ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	return ring, nil
}

// Contains reports whether the coordinate lies inside the boundary.
func (b *Boundary) Contains(x, y float64) bool {
	return planar.MultiPolygonContains(b.Geom, orb.Point{x, y})
}

// Bound returns the boundary's bounding box.
func (b *Boundary) Bound() orb.Bound {
	return b.Geom.Bound()
}

// Reproject returns a copy of the boundary in the target projection.
// Only WGS84 and web mercator are supported; anything else reports
// ErrProjection.
func (b *Boundary) Reproject(proj string) (*Boundary, error) {
	if proj == b.Proj {
		return &Boundary{Geom: b.Geom.Clone(), Proj: b.Proj}, nil
	}
	switch {
	case b.Proj == WGS84 && proj == Mercator:
		return &Boundary{Geom: project.MultiPolygon(b.Geom.Clone(), project.WGS84.ToMercator), Proj: proj}, nil
	case b.Proj == Mercator && proj == WGS84:
		return &Boundary{Geom: project.MultiPolygon(b.Geom.Clone(), project.Mercator.ToWGS84), Proj: proj}, nil
	}
	return nil, fmt.Errorf("reproject %s to %s: %w", b.Proj, proj, ErrProjection)
}
