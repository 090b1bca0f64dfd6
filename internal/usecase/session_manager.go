package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/flood-exposure-viewer/internal/pkg/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionManagerConfig - ограничения и значения по умолчанию для сессий
type SessionManagerConfig struct {
	MaxSessions         int
	IdleTTL             time.Duration
	DefaultYear         domain.Year
	DefaultMunicipality string
}

// CreateSessionParams - параметры новой сессии. Нулевые значения заменяются значениями по умолчанию.
type CreateSessionParams struct {
	Year         domain.Year
	Municipality string
	Hidden       []domain.Category
	Viewport     domain.Viewport
}

// SessionManager хранит активные сессии и рассылает им уведомления загрузчиков
type SessionManager struct {
	dataset   *DatasetUseCase
	factory   RendererFactory
	opts      SessionOptions
	publisher ChangePublisher
	cfg       SessionManagerConfig
	logger    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewSessionManager создает новый экземпляр SessionManager. publisher может быть nil.
func NewSessionManager(
	dataset *DatasetUseCase,
	factory RendererFactory,
	opts SessionOptions,
	publisher ChangePublisher,
	cfg SessionManagerConfig,
	logger *zap.Logger,
) *SessionManager {
	if cfg.DefaultYear == 0 {
		cfg.DefaultYear = domain.DefaultYear
	}
	if cfg.DefaultMunicipality == "" {
		cfg.DefaultMunicipality = domain.DefaultMunicipality
	}

	if opts.Metrics == nil {
		opts.Metrics = noopMetrics{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &SessionManager{
		dataset:   dataset,
		factory:   factory,
		opts:      opts,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		sessions:  make(map[uuid.UUID]*Session),
	}

	dataset.Subscribe(m.Broadcast)
	return m
}

// Create создает и запускает сессию
func (m *SessionManager) Create(params CreateSessionParams) (*Session, error) {
	year := params.Year
	if year == 0 {
		year = m.cfg.DefaultYear
	}
	if !year.Valid() {
		return nil, errors.ErrInvalidYear
	}

	mun := domain.NormalizeMunicipality(params.Municipality)
	if mun == "" {
		mun = m.cfg.DefaultMunicipality
	}

	for _, c := range params.Hidden {
		if c == "" {
			return nil, errors.ErrInvalidCategory
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg.MaxSessions > 0 && len(m.sessions) >= m.cfg.MaxSessions {
		return nil, errors.ErrSessionLimit
	}

	sel := domain.NewSelection(year, mun).WithHidden(params.Hidden)
	s := NewSession(uuid.New(), sel, params.Viewport, m.dataset, m.factory, m.opts, m.publisher, m.logger)
	m.sessions[s.ID()] = s
	m.opts.Metrics.SetActiveSessions(len(m.sessions))
	s.Start(m.ctx)

	m.logger.Info("Session created",
		zap.String("session_id", s.ID().String()),
		zap.Int("year", int(year)),
		zap.String("municipality", mun),
		zap.Int("active_sessions", len(m.sessions)))

	return s, nil
}

// Detached запускает сессию вне реестра: без лимита, без публикации событий.
// Вызывающий закрывает ее сам.
func (m *SessionManager) Detached(ctx context.Context, sel domain.Selection) *Session {
	s := NewSession(uuid.New(), sel, domain.Viewport{}, m.dataset, m.factory, m.opts, nil, m.logger)
	s.Start(ctx)
	return s
}

// Get возвращает сессию по строковому ID
func (m *SessionManager) Get(id string) (*Session, error) {
	sid, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.ErrInvalidSessionID
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sid]
	if !ok {
		return nil, errors.ErrSessionNotFound
	}
	return s, nil
}

// Delete останавливает и удаляет сессию
func (m *SessionManager) Delete(id string) error {
	sid, err := uuid.Parse(id)
	if err != nil {
		return errors.ErrInvalidSessionID
	}

	m.mu.Lock()
	s, ok := m.sessions[sid]
	delete(m.sessions, sid)
	m.opts.Metrics.SetActiveSessions(len(m.sessions))
	m.mu.Unlock()

	if !ok {
		return errors.ErrSessionNotFound
	}
	s.Close()
	m.logger.Info("Session deleted", zap.String("session_id", id))
	return nil
}

// Broadcast ставит команду в очередь каждой сессии
func (m *SessionManager) Broadcast(cmd domain.Command) {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		s.Notify(cmd)
	}

	m.logger.Debug("Command broadcast",
		zap.String("command", domain.CommandName(cmd)),
		zap.Int("sessions", len(sessions)))
}

// Sweep закрывает сессии без обращений дольше IdleTTL
func (m *SessionManager) Sweep(now time.Time) int {
	if m.cfg.IdleTTL <= 0 {
		return 0
	}

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if now.Sub(s.LastSeen()) > m.cfg.IdleTTL {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.opts.Metrics.SetActiveSessions(len(m.sessions))
	m.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	if len(expired) > 0 {
		m.logger.Info("Idle sessions closed", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Count - число активных сессий
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close останавливает все сессии
func (m *SessionManager) Close() {
	m.cancel()

	m.mu.Lock()
	n := len(m.sessions)
	m.sessions = make(map[uuid.UUID]*Session)
	m.opts.Metrics.SetActiveSessions(0)
	m.mu.Unlock()

	m.logger.Info("Session manager closed", zap.Int("sessions", n))
}
