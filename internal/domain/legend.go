package domain

// LegendHeader - заголовок легенды
type LegendHeader struct {
	Title             string  `json:"title"`
	Municipality      string  `json:"municipality"`
	MunicipalityLabel string  `json:"municipality_label"`
	ActiveYear        Year    `json:"active_year"`
	ExposedCount      int     `json:"exposed_count"`
	OverallTotal      int     `json:"overall_total"`
	Pct2025           float64 `json:"pct_2025"`
	Pct2050           float64 `json:"pct_2050"`
	Text              string  `json:"text"`
}

// LegendRow - строка легенды по категории
type LegendRow struct {
	Category  Category       `json:"category"`
	Label     string         `json:"label"`
	Color     string         `json:"color"`
	Icon      string         `json:"icon,omitempty"`
	Count2025 int            `json:"count_2025"`
	Count2050 int            `json:"count_2050"`
	Total     int            `json:"total"`
	Bar2025   int            `json:"bar_2025"`
	Bar2050   int            `json:"bar_2050"`
	Hidden    bool           `json:"hidden"`
	Toggle    ToggleCategory `json:"toggle"`
}

// LegendView - отрисованная легенда
type LegendView struct {
	Header   LegendHeader `json:"header"`
	Rows     []LegendRow  `json:"rows"`
	Revision int          `json:"revision"`
}
