package domain

import "strings"

// Category - код типа публичного объекта из свойства ASSET
type Category string

const (
	CategoryAirport     Category = "AIRPORT"
	CategoryHospital    Category = "HOSPITAL"
	CategoryKCS         Category = "KCS"
	CategoryLibrary     Category = "LIBRARY"
	CategoryPark        Category = "PARK"
	CategoryPowerplant  Category = "POWERPLANT"
	CategorySchool      Category = "SCHOOL"
	CategorySolidHazard Category = "SOLIDHAZARD"
	CategorySolidWaste  Category = "SOLIDWASTE"
	CategorySuperfund   Category = "SUPERFUND"
	CategoryWastewater  Category = "WASTEWATER"

	// CategoryUnknown - объект без свойства ASSET
	CategoryUnknown Category = "UNKNOWN"
)

// UnknownLabel - подпись категории и пустых полей выгрузки
const UnknownLabel = "Unknown"

const (
	// FallbackLegendColor - цвет строки легенды и баров для неизвестной категории
	FallbackLegendColor = "#999"
	// FallbackMapColor - цвет точки на карте для неизвестной категории
	FallbackMapColor = "#cccccc"
)

// CategoryMetadata описывает отображение категории в легенде и на карте
type CategoryMetadata struct {
	ID    Category `json:"id"`
	Label string   `json:"label"`
	Color string   `json:"color"`
	Icon  string   `json:"icon,omitempty"`
	Known bool     `json:"known"`
}

// MapColor возвращает цвет для слоя карты
func (m CategoryMetadata) MapColor() string {
	if !m.Known {
		return FallbackMapColor
	}
	return m.Color
}

var categoryRegistry = []CategoryMetadata{
	{ID: CategoryAirport, Label: "Airport", Color: "#111111", Icon: "airport", Known: true},
	{ID: CategoryHospital, Label: "Hospital", Color: "#D7263D", Icon: "hospital", Known: true},
	{ID: CategoryKCS, Label: "Known Contaminated Site", Color: "#FF8700", Icon: "kcs", Known: true},
	{ID: CategoryLibrary, Label: "Library", Color: "#FFD100", Icon: "library", Known: true},
	{ID: CategoryPark, Label: "Park", Color: "#3FB950", Icon: "park", Known: true},
	{ID: CategoryPowerplant, Label: "Powerplant", Color: "#8C1EFF", Icon: "powerplant", Known: true},
	{ID: CategorySchool, Label: "School", Color: "#FF5EBF", Icon: "school", Known: true},
	{ID: CategorySolidHazard, Label: "Solid & Hazard Waste Site", Color: "#A15500", Icon: "solidhazard", Known: true},
	{ID: CategorySolidWaste, Label: "Solid Waste Landfill", Color: "#FF3D00", Icon: "solidwaste", Known: true},
	{ID: CategorySuperfund, Label: "Superfund", Color: "#C10087", Icon: "superfund", Known: true},
	{ID: CategoryWastewater, Label: "Wastewater Treatment Plant", Color: "#5A5A5A", Icon: "wastewater", Known: true},
}

var categoryIndex = func() map[Category]CategoryMetadata {
	idx := make(map[Category]CategoryMetadata, len(categoryRegistry))
	for _, m := range categoryRegistry {
		idx[m.ID] = m
	}
	return idx
}()

// Categories возвращает все известные категории в порядке реестра
func Categories() []CategoryMetadata {
	out := make([]CategoryMetadata, len(categoryRegistry))
	copy(out, categoryRegistry)
	return out
}

// LookupCategory возвращает метаданные категории.
// Для неизвестного кода подставляется нейтральный цвет и сам код в качестве подписи.
func LookupCategory(c Category) CategoryMetadata {
	if m, ok := categoryIndex[c]; ok {
		return m
	}
	if c == CategoryUnknown {
		return CategoryMetadata{ID: c, Label: UnknownLabel, Color: FallbackLegendColor}
	}
	return CategoryMetadata{
		ID:    c,
		Label: string(c),
		Color: FallbackLegendColor,
	}
}

// Label - человекочитаемое название категории
func (c Category) Label() string {
	return LookupCategory(c).Label
}

// IsKnown проверяет, есть ли категория в реестре
func (c Category) IsKnown() bool {
	_, ok := categoryIndex[c]
	return ok
}

// CategoryOf приводит значение ASSET к категории. Пустое значение дает CategoryUnknown.
func CategoryOf(v string) Category {
	if strings.TrimSpace(v) == "" {
		return CategoryUnknown
	}
	return Category(v)
}

// ParseCategory распознает категорию по коду или по подписи (без учета регистра)
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	code := Category(strings.ToUpper(s))
	if code.IsKnown() || code == CategoryUnknown {
		return code, true
	}
	for _, m := range categoryRegistry {
		if strings.EqualFold(m.Label, s) {
			return m.ID, true
		}
	}
	return "", false
}
