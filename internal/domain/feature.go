package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// DefaultHeight is used when a feature has no usable height property.
const DefaultHeight = 3.0

var (
	ErrUnsupportedGeometry = errors.New("unsupported geometry type")
	ErrMissingGeometry     = errors.New("feature has no geometry")
	ErrInvalidHeight       = errors.New("invalid height")
)

// GeometryKind tags which GeoJSON geometry a feature was decoded from.
type GeometryKind string

const (
	KindPolygon      GeometryKind = "Polygon"
	KindMultiPolygon GeometryKind = "MultiPolygon"
)

// Feature is one building footprint. A Polygon feature carries exactly one
// entry in Polygons; a MultiPolygon carries one per constituent polygon.
// Within each polygon ring 0 is the exterior and the rest are holes.
type Feature struct {
	ID       string // empty when the service sent no id
	Kind     GeometryKind
	Polygons []orb.Polygon
	Height   float64
}

// HasID reports whether the feature takes part in deduplication.
func (f Feature) HasID() bool { return f.ID != "" }

// FeatureIssue records a feature that was skipped or adjusted while decoding.
type FeatureIssue struct {
	Index   int // position within the tile's features array
	ID      string
	Skipped bool
	Err     error
}

func (i FeatureIssue) Error() string {
	action := "adjusted"
	if i.Skipped {
		action = "skipped"
	}
	if i.ID != "" {
		return fmt.Sprintf("feature %d (%s) %s: %v", i.Index, i.ID, action, i.Err)
	}
	return fmt.Sprintf("feature %d %s: %v", i.Index, action, i.Err)
}

func (i FeatureIssue) Unwrap() error { return i.Err }

type featureCollection struct {
	Features []json.RawMessage `json:"features"`
}

// ParseFeatureCollection decodes a WFS GeoJSON response. A body that is not a
// JSON object fails as a whole; individual features that cannot be decoded or
// carry unsupported geometry are reported as issues and left out, so one bad
// record never empties the tile. A missing features array yields no features.
func ParseFeatureCollection(body []byte) ([]Feature, []FeatureIssue, error) {
	var fc featureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, nil, fmt.Errorf("parse feature collection: %w", err)
	}

	features := make([]Feature, 0, len(fc.Features))
	var issues []FeatureIssue
	for i, raw := range fc.Features {
		f, err := geojson.UnmarshalFeature(raw)
		if err != nil {
			issues = append(issues, FeatureIssue{Index: i, Skipped: true, Err: fmt.Errorf("decode feature: %w", err)})
			continue
		}

		id := normalizeID(f.ID)
		feature, err := newFeature(id, f)
		if err != nil {
			issues = append(issues, FeatureIssue{Index: i, ID: id, Skipped: true, Err: err})
			continue
		}

		height, err := parseHeight(f.Properties)
		if err != nil {
			issues = append(issues, FeatureIssue{Index: i, ID: id, Err: err})
		}
		feature.Height = height

		features = append(features, feature)
	}
	return features, issues, nil
}

func newFeature(id string, f *geojson.Feature) (Feature, error) {
	feature := Feature{ID: id}
	switch g := f.Geometry.(type) {
	case nil:
		return Feature{}, ErrMissingGeometry
	case orb.Polygon:
		feature.Kind = KindPolygon
		feature.Polygons = []orb.Polygon{g}
	case orb.MultiPolygon:
		feature.Kind = KindMultiPolygon
		feature.Polygons = []orb.Polygon(g)
	default:
		return Feature{}, fmt.Errorf("%w: %s", ErrUnsupportedGeometry, g.GeoJSONType())
	}
	return feature, nil
}

// normalizeID turns the GeoJSON id (string, number or absent) into a string.
// Null and empty ids mean "no id".
func normalizeID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return fmt.Sprint(id)
	}
}

// parseHeight reads properties.height as a number or numeric string. Missing
// heights default silently; unusable ones default with an error describing why.
func parseHeight(props geojson.Properties) (float64, error) {
	v, ok := props["height"]
	if !ok || v == nil {
		return DefaultHeight, nil
	}

	var h float64
	switch x := v.(type) {
	case float64:
		h = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return DefaultHeight, fmt.Errorf("%w: %q, using %v", ErrInvalidHeight, x, DefaultHeight)
		}
		h = parsed
	default:
		return DefaultHeight, fmt.Errorf("%w: %v, using %v", ErrInvalidHeight, v, DefaultHeight)
	}

	if math.IsNaN(h) || math.IsInf(h, 0) || h <= 0 {
		return DefaultHeight, fmt.Errorf("%w: %v, using %v", ErrInvalidHeight, h, DefaultHeight)
	}
	return h, nil
}
