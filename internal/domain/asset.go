package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Имена свойств объектов в источниках данных
const (
	PropUniqueID     = "UNIQUE_ID"
	PropCategory     = "ASSET"
	PropMunicipality = "MUN"
	PropName         = "NAME"
	PropCounty       = "COUNTY"
)

// AssetFeature - публичный объект в зоне затопления
type AssetFeature struct {
	UniqueID     string   `json:"unique_id"`
	Category     Category `json:"category"`
	Municipality string   `json:"municipality"`
	Name         string   `json:"name,omitempty"`
	County       string   `json:"county,omitempty"`
	Lon          float64  `json:"lon"`
	Lat          float64  `json:"lat"`
}

// Point возвращает координаты объекта
func (a AssetFeature) Point() orb.Point {
	return orb.Point{a.Lon, a.Lat}
}

// AssetFromFeature извлекает объект из GeoJSON feature.
// Для непрямых геометрий берется центр bounding box.
func AssetFromFeature(f *geojson.Feature) AssetFeature {
	a := AssetFeature{
		UniqueID:     PropertyString(f.Properties, PropUniqueID),
		Category:     CategoryOf(PropertyString(f.Properties, PropCategory)),
		Municipality: PropertyString(f.Properties, PropMunicipality),
		Name:         PropertyString(f.Properties, PropName),
		County:       PropertyString(f.Properties, PropCounty),
	}

	switch g := f.Geometry.(type) {
	case orb.Point:
		a.Lon, a.Lat = g.Lon(), g.Lat()
	case nil:
	default:
		c := g.Bound().Center()
		a.Lon, a.Lat = c.Lon(), c.Lat()
	}

	return a
}

// NormalizeCategories проставляет ASSET=UNKNOWN объектам без категории и возвращает их число
func NormalizeCategories(fc *geojson.FeatureCollection) int {
	if fc == nil {
		return 0
	}
	n := 0
	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		if f.Properties == nil {
			f.Properties = geojson.Properties{}
		}
		if strings.TrimSpace(PropertyString(f.Properties, PropCategory)) == "" {
			f.Properties[PropCategory] = string(CategoryUnknown)
			n++
		}
	}
	return n
}

// ToFeature собирает GeoJSON feature для источника карты
func (a AssetFeature) ToFeature() *geojson.Feature {
	f := geojson.NewFeature(a.Point())
	f.Properties[PropUniqueID] = a.UniqueID
	f.Properties[PropCategory] = string(a.Category)
	f.Properties[PropMunicipality] = a.Municipality
	if a.Name != "" {
		f.Properties[PropName] = a.Name
	}
	if a.County != "" {
		f.Properties[PropCounty] = a.County
	}
	return f
}

// PropertyString читает свойство как строку. Числа форматируются без экспоненты.
func PropertyString(props geojson.Properties, key string) string {
	if props == nil {
		return ""
	}
	v, ok := props[key]
	if !ok || v == nil {
		return ""
	}

	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}
