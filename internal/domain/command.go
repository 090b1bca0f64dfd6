package domain

import "github.com/paulmach/orb/geojson"

// Command - входное событие машины состояний сценария
type Command interface {
	commandName() string
}

// CommandName возвращает имя команды для логов
func CommandName(c Command) string {
	if c == nil {
		return "<nil>"
	}
	return c.commandName()
}

// SetYear - смена активного года
type SetYear struct {
	Year Year `json:"year"`
}

// SetMunicipality - смена муниципалитета
type SetMunicipality struct {
	Municipality string `json:"municipality"`
}

// ToggleCategory - переключение видимости категории
type ToggleCategory struct {
	Category Category `json:"category"`
}

// Resize - изменение размера окна клиента
type Resize struct {
	Viewport Viewport `json:"viewport"`
}

// BoundariesLoaded - данные границ муниципалитетов загружены
type BoundariesLoaded struct {
	Collection *geojson.FeatureCollection `json:"-"`
	Bounds     BoundsIndex                `json:"-"`
}

// GroundTruthLoaded - эталонные итоги загружены
type GroundTruthLoaded struct {
	Totals GroundTruth `json:"-"`
}

func (SetYear) commandName() string           { return "set_year" }
func (SetMunicipality) commandName() string   { return "set_municipality" }
func (ToggleCategory) commandName() string    { return "toggle_category" }
func (Resize) commandName() string            { return "resize" }
func (BoundariesLoaded) commandName() string  { return "boundaries_loaded" }
func (GroundTruthLoaded) commandName() string { return "ground_truth_loaded" }
