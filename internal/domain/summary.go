package domain

// CategoryCounts - количество уникальных объектов по категории
type CategoryCounts map[Category]int

// Total - сумма по всем категориям
func (c CategoryCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// GroundTruthTotal - итог по категории из эталонной таблицы
type GroundTruthTotal struct {
	Total      int     `json:"total"`
	Percent    float64 `json:"percent,omitempty"`
	HasPercent bool    `json:"has_percent"`
}

// GroundTruth - эталонные итоги: муниципалитет -> категория -> итог
type GroundTruth map[string]map[Category]GroundTruthTotal

// Totals возвращает итоги муниципалитета. Пустая карта, если данных нет.
func (g GroundTruth) Totals(municipality string) map[Category]int {
	out := make(map[Category]int)
	if g == nil {
		return out
	}
	for c, t := range g[municipality] {
		out[c] = t.Total
	}
	return out
}

// Set добавляет итог, создавая вложенную карту при необходимости
func (g GroundTruth) Set(municipality string, c Category, t GroundTruthTotal) {
	m, ok := g[municipality]
	if !ok {
		m = make(map[Category]GroundTruthTotal)
		g[municipality] = m
	}
	m[c] = t
}

// SummaryRow - строка сводки по категории
type SummaryRow struct {
	Category       Category `json:"category"`
	Count2025      int      `json:"count_2025"`
	Count2050      int      `json:"count_2050"`
	GroundTruth    int      `json:"ground_truth"`
	HasGroundTruth bool     `json:"has_ground_truth"`
	RowTotal       int      `json:"row_total"`
	Bar2025        int      `json:"bar_2025"`
	Bar2050        int      `json:"bar_2050"`
}

// Count возвращает счетчик для года
func (r SummaryRow) Count(y Year) int {
	if y == Year2050 {
		return r.Count2050
	}
	return r.Count2025
}

// Bar возвращает ширину бара в процентах для года
func (r SummaryRow) Bar(y Year) int {
	if y == Year2050 {
		return r.Bar2050
	}
	return r.Bar2025
}

// Summary - агрегированная сводка по муниципалитету
type Summary struct {
	Total2025    int          `json:"total_2025"`
	Total2050    int          `json:"total_2050"`
	OverallTotal int          `json:"overall_total"`
	Pct2025      float64      `json:"pct_2025"`
	Pct2050      float64      `json:"pct_2050"`
	Rows         []SummaryRow `json:"rows"`
}

// Exposed - число объектов в зоне затопления для года
func (s Summary) Exposed(y Year) int {
	if y == Year2050 {
		return s.Total2050
	}
	return s.Total2025
}

// Pct - доля объектов в зоне затопления для года
func (s Summary) Pct(y Year) float64 {
	if y == Year2050 {
		return s.Pct2050
	}
	return s.Pct2025
}
