// Package domain models building footprints and the steps that turn them into
// extruded solids.
//
// # Data Source
//
// Footprints come from a WFS feature service queried with GetFeature and
// outputFormat=application/json. Each response is a GeoJSON FeatureCollection
// in EPSG:4326 whose features carry an optional id, an optional
// properties.height in metres, and a Polygon or MultiPolygon geometry.
//
// # Request Area
//
// A request is a centre point and a radius in metres. [CalculateBBox] turns it
// into a box on a sphere of radius [EarthRadius]:
//
//	latOffset = radius / R            (radians)
//	lonOffset = radius / (R·cos(lat)) (radians)
//
// The longitude offset diverges towards the poles, so latitudes beyond
// [DefaultMaxAbsLatitude] are rejected.
//
// Large boxes are split into a grid of tiles ([GridSteps], [PlanTiles]):
//
//	radius ≤ 251 m  →  1×1
//	radius ≤ 500 m  →  2×2
//	otherwise       →  4×4
//
// Tiles are ordered row (latitude) first, column (longitude) second. That
// order, followed by each tile's feature order, fixes the order of the output.
//
// # Feature Conventions
//
// Ring 0 of a polygon is the exterior; further rings are holes. Ids may be
// strings or numbers and are compared as strings; a feature without an id is
// never treated as a duplicate. Heights may be numbers or numeric strings.
// A missing height means [DefaultHeight]; a zero, negative or unparsable
// height is replaced by [DefaultHeight] and reported as a [FeatureIssue].
//
// # Local Frame
//
// All solids of a run share one [Projector] centred on the requested point.
// It scales degrees to metres with the ellipsoid series at the centre
// latitude:
//
//	m/°lat = 111132.92 − 559.82·cos 2φ + 1.175·cos 4φ
//	m/°lon = 111412.84·cos φ − 93.5·cos 3φ + 0.118·cos 5φ
//
// # Solids
//
// [Reconstructor] hands each projected polygon to a [GeometryKernel], which
// builds a planar surface and extrudes it upwards by the feature height. A
// polygon that fails is skipped on its own; the rest of the feature and the
// run carry on.
package domain
