package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Year - сценарный год прогноза затопления
type Year int

const (
	Year2025 Year = 2025
	Year2050 Year = 2050

	// DefaultYear - активный год при старте сессии
	DefaultYear = Year2025
)

// ScenarioYears - все поддерживаемые сценарии в порядке возрастания
var ScenarioYears = []Year{Year2025, Year2050}

// Valid проверяет, что год входит в набор сценариев
func (y Year) Valid() bool {
	for _, s := range ScenarioYears {
		if s == y {
			return true
		}
	}
	return false
}

func (y Year) String() string {
	return strconv.Itoa(int(y))
}

// ParseYear разбирает строковое значение года
func ParseYear(s string) (Year, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse year %q: %w", s, err)
	}
	y := Year(n)
	if !y.Valid() {
		return 0, fmt.Errorf("unsupported scenario year %d", n)
	}
	return y, nil
}

// NormalizeYears убирает дубликаты и сортирует по возрастанию
func NormalizeYears(years []Year) []Year {
	seen := make(map[Year]struct{}, len(years))
	out := make([]Year, 0, len(years))
	for _, y := range years {
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		out = append(out, y)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Selection - текущее состояние сценария сессии.
// Значение неизменяемое: все модификации возвращают новую копию.
type Selection struct {
	year         Year
	municipality string
	hidden       []Category // отсортирован, без дубликатов
}

// NewSelection создает выбор без скрытых категорий
func NewSelection(year Year, municipality string) Selection {
	return Selection{year: year, municipality: municipality}
}

// DefaultSelection - состояние при старте
func DefaultSelection() Selection {
	return NewSelection(DefaultYear, DefaultMunicipality)
}

func (s Selection) Year() Year           { return s.year }
func (s Selection) Municipality() string { return s.municipality }

// Hidden возвращает копию множества скрытых категорий
func (s Selection) Hidden() []Category {
	if len(s.hidden) == 0 {
		return nil
	}
	out := make([]Category, len(s.hidden))
	copy(out, s.hidden)
	return out
}

// IsHidden проверяет, скрыта ли категория
func (s Selection) IsHidden(c Category) bool {
	i := sort.Search(len(s.hidden), func(i int) bool { return s.hidden[i] >= c })
	return i < len(s.hidden) && s.hidden[i] == c
}

// WithYear возвращает копию с другим активным годом
func (s Selection) WithYear(y Year) Selection {
	s.hidden = s.Hidden()
	s.year = y
	return s
}

// WithMunicipality возвращает копию с другим муниципалитетом
func (s Selection) WithMunicipality(key string) Selection {
	s.hidden = s.Hidden()
	s.municipality = key
	return s
}

// Toggle переключает видимость категории. Двойной вызов возвращает исходное состояние.
func (s Selection) Toggle(c Category) Selection {
	next := make([]Category, 0, len(s.hidden)+1)
	removed := false
	for _, h := range s.hidden {
		if h == c {
			removed = true
			continue
		}
		next = append(next, h)
	}
	if !removed {
		next = append(next, c)
		sort.Slice(next, func(i, j int) bool { return next[i] < next[j] })
	}
	if len(next) == 0 {
		next = nil
	}
	s.hidden = next
	return s
}

// WithHidden возвращает копию с заданным множеством скрытых категорий
func (s Selection) WithHidden(hidden []Category) Selection {
	set := make(map[Category]struct{}, len(hidden))
	next := make([]Category, 0, len(hidden))
	for _, c := range hidden {
		if _, ok := set[c]; ok {
			continue
		}
		set[c] = struct{}{}
		next = append(next, c)
	}
	sort.Slice(next, func(i, j int) bool { return next[i] < next[j] })
	if len(next) == 0 {
		next = nil
	}
	s.hidden = next
	return s
}

type selectionJSON struct {
	Year         Year       `json:"year"`
	Municipality string     `json:"municipality"`
	Label        string     `json:"municipality_label"`
	Hidden       []Category `json:"hidden"`
}

// MarshalJSON сериализует выбор для API
func (s Selection) MarshalJSON() ([]byte, error) {
	hidden := s.Hidden()
	if hidden == nil {
		hidden = []Category{}
	}
	return json.Marshal(selectionJSON{
		Year:         s.year,
		Municipality: s.municipality,
		Label:        MunicipalityLabel(s.municipality),
		Hidden:       hidden,
	})
}

// UnmarshalJSON восстанавливает выбор, например из события в стриме
func (s *Selection) UnmarshalJSON(data []byte) error {
	var raw selectionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = NewSelection(raw.Year, raw.Municipality).WithHidden(raw.Hidden)
	return nil
}
