// Package venue converts optional venue coordinates between the GeoJSON
// accepted by the API and the WKB stored alongside a session.
package venue

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"
)

var (
	ErrNotPoint    = errors.New("venue location must be a GeoJSON Point")
	ErrEmptyPoint  = errors.New("venue location has no coordinates")
	ErrOutOfBounds = errors.New("venue location is outside longitude/latitude bounds")
)

// EncodePoint parses a GeoJSON Point and returns its little-endian WKB form.
// An empty or null document yields nil, meaning "no location".
func EncodePoint(raw []byte) ([]byte, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var g geom.T
	if err := gjson.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("parse venue location: %w", err)
	}
	p, ok := g.(*geom.Point)
	if !ok {
		return nil, ErrNotPoint
	}
	if p.Empty() {
		return nil, ErrEmptyPoint
	}
	lng, lat := p.X(), p.Y()
	if lng < -180 || lng > 180 || lat < -90 || lat > 90 {
		return nil, ErrOutOfBounds
	}
	return wkb.Marshal(p, binary.LittleEndian)
}

// DecodePoint converts stored WKB back to GeoJSON. Nil input yields nil.
func DecodePoint(wkbBytes []byte) (json.RawMessage, error) {
	if len(wkbBytes) == 0 {
		return nil, nil
	}
	g, err := wkb.Unmarshal(wkbBytes)
	if err != nil {
		return nil, fmt.Errorf("decode venue location: %w", err)
	}
	b, err := gjson.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("encode venue location: %w", err)
	}
	return b, nil
}
