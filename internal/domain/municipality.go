package domain

import (
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// DefaultMunicipality - муниципалитет, выбранный при старте сессии
const DefaultMunicipality = "NEWARK CITY"

// Municipality - муниципалитет из справочника
type Municipality struct {
	Key    string        `json:"key"`
	Label  string        `json:"label"`
	Bounds *LngLatBounds `json:"bounds,omitempty"`
}

// LngLatBounds - прямоугольник [[west, south], [east, north]]
type LngLatBounds [2][2]float64

// NewLngLatBounds конвертирует orb.Bound
func NewLngLatBounds(b orb.Bound) LngLatBounds {
	return LngLatBounds{
		{b.Min.Lon(), b.Min.Lat()},
		{b.Max.Lon(), b.Max.Lat()},
	}
}

// Bound конвертирует обратно в orb.Bound
func (b LngLatBounds) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b[0][0], b[0][1]},
		Max: orb.Point{b[1][0], b[1][1]},
	}
}

var municipalityOrder = []string{
	"NEWARK CITY",
	"ELIZABETH CITY",
	"CAMDEN CITY",
	"TRENTON CITY",
	"JERSEY CITY",
	"PATERSON CITY",
	"ASBURY PARK CITY",
	"ATLANTIC CITY",
}

var municipalityLabels = map[string]string{
	"NEWARK CITY":      "Newark",
	"ELIZABETH CITY":   "Elizabeth",
	"CAMDEN CITY":      "Camden",
	"TRENTON CITY":     "Trenton",
	"JERSEY CITY":      "Jersey City",
	"PATERSON CITY":    "Paterson",
	"ASBURY PARK CITY": "Asbury Park",
	"ATLANTIC CITY":    "Atlantic City",
}

// MunicipalityLabel возвращает отображаемое имя, для неизвестного ключа - сам ключ
func MunicipalityLabel(key string) string {
	if label, ok := municipalityLabels[key]; ok {
		return label
	}
	return key
}

// IsKnownMunicipality проверяет ключ по справочнику
func IsKnownMunicipality(key string) bool {
	_, ok := municipalityLabels[key]
	return ok
}

// NormalizeMunicipality приводит ключ к виду свойства MUN
func NormalizeMunicipality(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// KnownMunicipalities возвращает справочник, bounds подставляются из индекса если есть
func KnownMunicipalities(index BoundsIndex) []Municipality {
	out := make([]Municipality, 0, len(municipalityOrder))
	for _, key := range municipalityOrder {
		m := Municipality{Key: key, Label: municipalityLabels[key]}
		if b, ok := index[key]; ok {
			lb := NewLngLatBounds(b)
			m.Bounds = &lb
		}
		out = append(out, m)
	}
	return out
}

// BoundsIndex - предрассчитанные bounding box муниципалитетов по ключу MUN
type BoundsIndex map[string]orb.Bound

// Lookup возвращает bounds муниципалитета
func (idx BoundsIndex) Lookup(key string) (orb.Bound, bool) {
	if idx == nil {
		return orb.Bound{}, false
	}
	b, ok := idx[key]
	return b, ok
}

// BuildBoundsIndex считает bounds по внешним кольцам полигонов.
// Несколько объектов одного муниципалитета объединяются.
func BuildBoundsIndex(fc *geojson.FeatureCollection) BoundsIndex {
	idx := make(BoundsIndex)
	if fc == nil {
		return idx
	}

	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		key := PropertyString(f.Properties, PropMunicipality)
		if key == "" {
			continue
		}

		b, ok := outerRingBound(f.Geometry)
		if !ok {
			continue
		}

		if existing, found := idx[key]; found {
			b = existing.Union(b)
		}
		idx[key] = b
	}

	return idx
}

func outerRingBound(g orb.Geometry) (orb.Bound, bool) {
	switch geom := g.(type) {
	case orb.Polygon:
		if len(geom) == 0 || len(geom[0]) == 0 {
			return orb.Bound{}, false
		}
		return geom[0].Bound(), true
	case orb.MultiPolygon:
		var (
			b     orb.Bound
			found bool
		)
		for _, p := range geom {
			if len(p) == 0 || len(p[0]) == 0 {
				continue
			}
			if !found {
				b = p[0].Bound()
				found = true
				continue
			}
			b = b.Union(p[0].Bound())
		}
		return b, found
	default:
		return orb.Bound{}, false
	}
}
