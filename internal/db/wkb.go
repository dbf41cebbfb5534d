package db

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

// EncodePoint converts a lat/lon pair to EWKB bytes with SRID 4326.
// EWKB stores coordinates as (X, Y) = (longitude, latitude).
func EncodePoint(lat, lon float64) ([]byte, error) {
	p := geom.NewPointFlat(geom.XY, []float64{lon, lat}).SetSRID(4326)
	data, err := ewkb.Marshal(p, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "db: encode point")
	}
	return data, nil
}

// DecodePoint extracts a lat/lon pair from EWKB point bytes.
func DecodePoint(data []byte) (lat, lon float64, err error) {
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return 0, 0, eris.Wrap(err, "db: decode point")
	}
	p, ok := g.(*geom.Point)
	if !ok {
		return 0, 0, eris.Errorf("db: expected point geometry, got %T", g)
	}
	coords := p.Coords()
	if len(coords) < 2 {
		return 0, 0, eris.New("db: point has no coordinates")
	}
	return coords[1], coords[0], nil
}
