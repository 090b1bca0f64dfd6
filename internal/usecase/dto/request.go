package dto

// ViewportRequest - размер окна клиента
type ViewportRequest struct {
	Width  float64 `json:"width" validate:"required,gt=0,max=20000"`
	Height float64 `json:"height" validate:"required,gt=0,max=20000"`
}

// CreateSessionRequest - запрос на создание сессии просмотра
type CreateSessionRequest struct {
	Year         int              `json:"year,omitempty" validate:"omitempty,oneof=2025 2050"`
	Municipality string           `json:"municipality,omitempty" validate:"omitempty,max=64"`
	Hidden       []string         `json:"hidden,omitempty" validate:"omitempty,max=32,dive,required,max=32"`
	Viewport     *ViewportRequest `json:"viewport,omitempty" validate:"omitempty"`
}

// SetYearRequest - смена сценарного года
type SetYearRequest struct {
	Year int `json:"year" validate:"required,oneof=2025 2050"`
}

// SetMunicipalityRequest - смена муниципалитета
type SetMunicipalityRequest struct {
	Municipality string `json:"municipality" validate:"required,max=64"`
}

// HoverRequest - координаты курсора
type HoverRequest struct {
	Lon float64 `query:"lon" validate:"min=-180,max=180"`
	Lat float64 `query:"lat" validate:"min=-90,max=90"`
}

// ExportRequest - запрос на фоновую выгрузку CSV
type ExportRequest struct {
	Municipality string `json:"municipality" validate:"required,max=64"`
	Years        []int  `json:"years,omitempty" validate:"omitempty,max=2,dive,oneof=2025 2050"`
}
