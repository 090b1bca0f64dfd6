package domain

import "time"

// Statistics представляет общую статистику по загруженным наборам данных
type Statistics struct {
	Assets       AssetStats          `json:"assets"`
	Municipality []MunicipalityStats `json:"municipalities"`
	Coverage     CoverageStats       `json:"coverage"`
	LastUpdated  time.Time           `json:"last_updated"`
}

// AssetStats статистика по объектам
type AssetStats struct {
	ByYear     map[Year]int     `json:"by_year"`
	ByCategory map[Category]int `json:"by_category"`
	Unknown    int              `json:"unknown_categories"`
}

// MunicipalityStats статистика по муниципалитету
type MunicipalityStats struct {
	Key              string `json:"key"`
	Label            string `json:"label"`
	Assets2025       int    `json:"assets_2025"`
	Assets2050       int    `json:"assets_2050"`
	GroundTruthTotal int    `json:"ground_truth_total"`
	HasBounds        bool   `json:"has_bounds"`
}

// CoverageStats состояние загрузки наборов данных
type CoverageStats struct {
	BoundariesLoaded  bool `json:"boundaries_loaded"`
	GroundTruthLoaded bool `json:"ground_truth_loaded"`
	Municipalities    int  `json:"municipalities"`
}
