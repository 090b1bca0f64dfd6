package postgres

import (
	"database/sql"
	"fmt"

	"github.com/paulmach/orb/geojson"
)

// SRID4326 - WGS84, в нем хранятся все геометрии
const SRID4326 = 4326

// FloodplainSimplifyTolerance - толерантность ST_SimplifyPreserveTopology для полигонов зоны затопления
const FloodplainSimplifyTolerance = 0.00001

// featureRow - строка с геометрией в виде ST_AsGeoJSON
type featureRow struct {
	Geometry string `db:"geometry_json"`
}

// decodeFeature собирает feature из ST_AsGeoJSON
func decodeFeature(geometryJSON string) (*geojson.Feature, error) {
	g, err := geojson.UnmarshalGeometry([]byte(geometryJSON))
	if err != nil {
		return nil, fmt.Errorf("decode geometry: %w", err)
	}
	return geojson.NewFeature(g.Geometry()), nil
}

// setOptional записывает непустое свойство
func setOptional(props geojson.Properties, key string, value sql.NullString) {
	if value.Valid && value.String != "" {
		props[key] = value.String
	}
}
