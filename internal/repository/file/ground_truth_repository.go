package file

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/flood-exposure-viewer/internal/domain/repository"
	"go.uber.org/zap"
)

// Колонки таблицы итогов: MUN, ASSET, TOTAL и необязательная PERCENT
const (
	colMunicipality = "MUN"
	colCategory     = "ASSET"
	colTotal        = "TOTAL"
	colPercent      = "PERCENT"
)

type groundTruthRepository struct {
	layout Layout
	logger *zap.Logger
}

// NewGroundTruthRepository создает новый экземпляр GroundTruthRepository поверх CSV
func NewGroundTruthRepository(layout Layout, logger *zap.Logger) repository.GroundTruthRepository {
	return &groundTruthRepository{
		layout: layout,
		logger: logger,
	}
}

func (r *groundTruthRepository) LoadGroundTruth(ctx context.Context) (domain.GroundTruth, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := r.layout.path(r.layout.GroundTruthFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	totals, skipped, err := ParseGroundTruth(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if skipped > 0 {
		r.logger.Warn("Ground truth rows skipped", zap.String("path", path), zap.Int("rows", skipped))
	}

	return totals, nil
}

// ParseGroundTruth читает таблицу итогов в одном из двух видов.
//
// Плоский: строки MUN, ASSET, TOTAL[, PERCENT], заголовок необязателен и
// задает порядок колонок.
//
// Секционный: строка, в которой заполнена только первая колонка, открывает
// секцию муниципалитета, за ней идут строки ASSET, TOTAL[, PERCENT]. Первая
// нечисловая строка секции считается подписью колонок.
//
// Итоговые строки Total и All не попадают в таблицу и не считаются пропущенными.
//
// Строки с неверным итогом пропускаются и возвращаются счетчиком.
func ParseGroundTruth(src io.Reader) (domain.GroundTruth, int, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	p := &truthParser{
		index:  map[string]int{colMunicipality: 0, colCategory: 1, colTotal: 2, colPercent: 3},
		totals: make(domain.GroundTruth),
	}
	first := true

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, p.skipped, err
		}
		if isBlank(record) {
			continue
		}

		if first {
			first = false
			if header, ok := parseHeader(record); ok {
				p.index = header
				p.headed = true
				continue
			}
		}
		p.row(record)
	}

	return p.totals, p.skipped, nil
}

type truthParser struct {
	index   map[string]int
	headed  bool
	section string
	caption bool
	totals  domain.GroundTruth
	skipped int
}

func (p *truthParser) row(record []string) {
	if p.headed {
		p.add(field(record, p.index, colMunicipality), field(record, p.index, colCategory),
			field(record, p.index, colTotal), field(record, p.index, colPercent))
		return
	}

	if isSectionHeader(record) {
		p.section = domain.NormalizeMunicipality(record[0])
		p.caption = true
		return
	}

	caption := p.caption
	p.caption = false

	switch {
	case p.section != "" && isCount(cell(record, 1)):
		p.add(p.section, cell(record, 0), cell(record, 1), cell(record, 2))
	case isCount(cell(record, 2)):
		p.add(cell(record, 0), cell(record, 1), cell(record, 2), cell(record, 3))
	case p.section != "" && caption:
		// подпись колонок секции
	default:
		p.skipped++
	}
}

func (p *truthParser) add(municipality, category, total, percent string) {
	if isSummary(category) {
		return
	}
	mun := domain.NormalizeMunicipality(municipality)
	c := categoryOf(category)
	if mun == "" || c == "" {
		p.skipped++
		return
	}

	n, err := strconv.Atoi(total)
	if err != nil || n < 0 {
		p.skipped++
		return
	}

	t := domain.GroundTruthTotal{Total: n}
	if raw := strings.TrimSpace(strings.TrimSuffix(percent, "%")); raw != "" {
		if pct, err := strconv.ParseFloat(raw, 64); err == nil {
			t.Percent = pct
			t.HasPercent = true
		}
	}
	p.totals.Set(mun, c, t)
}

// isSummary - итоговая строка таблицы (Total, All), учитывается как подпись
func isSummary(category string) bool {
	switch strings.ToUpper(strings.TrimSpace(category)) {
	case "TOTAL", "ALL":
		return true
	}
	return false
}

// categoryOf принимает код или подпись категории, неизвестный код остается как есть
func categoryOf(s string) domain.Category {
	if c, ok := domain.ParseCategory(s); ok {
		return c
	}
	return domain.Category(strings.ToUpper(strings.TrimSpace(s)))
}

func parseHeader(record []string) (map[string]int, bool) {
	index := make(map[string]int, len(record))
	for i, name := range record {
		index[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{colMunicipality, colCategory, colTotal} {
		if _, ok := index[required]; !ok {
			return nil, false
		}
	}
	return index, true
}

func isSectionHeader(record []string) bool {
	if strings.TrimSpace(record[0]) == "" {
		return false
	}
	for _, v := range record[1:] {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func isCount(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

func cell(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func field(record []string, index map[string]int, name string) string {
	i, ok := index[name]
	if !ok {
		return ""
	}
	return cell(record, i)
}
