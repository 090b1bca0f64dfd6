package usecase

import (
	"time"

	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/flood-exposure-viewer/internal/domain/repository"
	"go.uber.org/zap"
)

// ViewportOptions - параметры подгонки камеры под муниципалитет
type ViewportOptions struct {
	DesktopPadding    domain.Padding
	DesktopOffset     [2]float64
	DesktopMaxZoom    float64
	MobileTopPadding  float64
	MobileBottomRatio float64
	MobileSidePadding float64
	MobileMaxZoom     float64
	Duration          time.Duration
}

// DefaultViewportOptions - боковая панель слева на десктопе, нижняя шторка на мобильном
func DefaultViewportOptions() ViewportOptions {
	return ViewportOptions{
		DesktopPadding:    domain.Padding{Top: 60, Bottom: 60, Left: 340, Right: 60},
		DesktopOffset:     [2]float64{-50, 0},
		DesktopMaxZoom:    14,
		MobileTopPadding:  80,
		MobileBottomRatio: 0.55,
		MobileSidePadding: 20,
		MobileMaxZoom:     12,
		Duration:          2 * time.Second,
	}
}

// FitOptionsFor подбирает отступы и зум под размер окна
func FitOptionsFor(vp domain.Viewport, opts ViewportOptions) domain.FitOptions {
	if vp.IsMobile() {
		return domain.FitOptions{
			Padding: domain.Padding{
				Top:    opts.MobileTopPadding,
				Bottom: opts.MobileBottomRatio * vp.Height,
				Left:   opts.MobileSidePadding,
				Right:  opts.MobileSidePadding,
			},
			MaxZoom:   opts.MobileMaxZoom,
			Duration:  opts.Duration,
			Linear:    false,
			Essential: true,
		}
	}

	return domain.FitOptions{
		Padding:   opts.DesktopPadding,
		Offset:    opts.DesktopOffset,
		MaxZoom:   opts.DesktopMaxZoom,
		Duration:  opts.Duration,
		Linear:    false,
		Essential: true,
	}
}

// ViewportFitter запрашивает у рендерера перелет к муниципалитету
type ViewportFitter struct {
	renderer repository.Renderer
	opts     ViewportOptions
	logger   *zap.Logger
}

// NewViewportFitter создает новый экземпляр ViewportFitter
func NewViewportFitter(renderer repository.Renderer, opts ViewportOptions, logger *zap.Logger) *ViewportFitter {
	return &ViewportFitter{
		renderer: renderer,
		opts:     opts,
		logger:   logger,
	}
}

// Fit подводит камеру к bounds муниципалитета.
// Если bounds еще не загружены, ничего не делает и возвращает false.
func (f *ViewportFitter) Fit(index domain.BoundsIndex, municipality string, vp domain.Viewport) bool {
	bounds, ok := index.Lookup(municipality)
	if !ok {
		f.logger.Debug("No bounds for municipality yet, skipping fit",
			zap.String("municipality", municipality))
		return false
	}

	f.renderer.FitBounds(bounds, FitOptionsFor(vp, f.opts))
	return true
}
