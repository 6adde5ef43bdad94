// Пакет store хранит открытые сессии редактора в памяти.
// Сессия владеет экземпляром редактора и выступает для него хостом: отдаёт выделение,
// запоминает причину отказа команды и публикует изменения документа.
package store

import (
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aisa-it/aiplan-editor/internal/aiplan/apierrors"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/dto"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/attrs"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/commands"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/edtypes"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/transaction"
	"github.com/gofrs/uuid"
)

// Change изменение документа сессии.
type Change struct {
	SessionID uuid.UUID `json:"session_id"`
	Version   uint64    `json:"version"`
	HTML      string    `json:"html"`
}

// Notifier получатель изменений документов.
// CloseSession вызывается при любом удалении сессии из хранилища, в том числе по истечении TTL.
type Notifier interface {
	Publish(change Change)
	CloseSession(sessionID uuid.UUID)
}

type Options struct {
	TTL          time.Duration
	MaxSessions  int
	HistoryDepth int
}

type SessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	registry *attrs.Registry
	notifier Notifier
	opts     Options
	now      func() time.Time
}

func NewSessionStore(registry *attrs.Registry, notifier Notifier, opts Options) *SessionStore {
	return &SessionStore{
		sessions: make(map[uuid.UUID]*Session),
		registry: registry,
		notifier: notifier,
		opts:     opts,
		now:      time.Now,
	}
}

// Create открывает сессию с документом из HTML.
func (ss *SessionStore) Create(title, html string, readOnly bool) (*Session, error) {
	return ss.create(title, readOnly, func(e *editor.Editor) error {
		e.LoadDocument(html)
		return nil
	})
}

// CreateJSON открывает сессию с документом из TipTap JSON.
func (ss *SessionStore) CreateJSON(title string, data []byte, readOnly bool) (*Session, error) {
	return ss.create(title, readOnly, func(e *editor.Editor) error {
		if err := e.LoadJSON(data); err != nil {
			return apierrors.ErrInvalidDocument.WithFormattedMessage(err.Error())
		}
		return nil
	})
}

func (ss *SessionStore) create(title string, readOnly bool, load func(*editor.Editor) error) (*Session, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:        id,
		Title:     title,
		ReadOnly:  readOnly,
		CreatedAt: ss.now(),
		store:     ss,
	}
	s.lastAccess = s.CreatedAt
	s.editor = editor.New(ss.registry, s, editor.Options{HistoryDepth: ss.opts.HistoryDepth})
	if err := load(s.editor); err != nil {
		return nil, err
	}

	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.opts.MaxSessions > 0 && len(ss.sessions) >= ss.opts.MaxSessions {
		return nil, apierrors.ErrSessionLimit
	}
	ss.sessions[id] = s
	return s, nil
}

// Get возвращает сессию и продлевает её жизнь.
func (ss *SessionStore) Get(id uuid.UUID) (*Session, error) {
	ss.mu.RLock()
	s, ok := ss.sessions[id]
	ss.mu.RUnlock()
	if !ok {
		return nil, apierrors.ErrSessionNotFound
	}
	if ss.expired(s) {
		ss.Delete(id)
		return nil, apierrors.ErrSessionExpired
	}
	s.touch(ss.now())
	return s, nil
}

// Delete удаляет сессию и закрывает её подписки.
func (ss *SessionStore) Delete(id uuid.UUID) bool {
	ss.mu.Lock()
	_, ok := ss.sessions[id]
	delete(ss.sessions, id)
	ss.mu.Unlock()

	if ok {
		ss.evicted(id)
	}
	return ok
}

func (ss *SessionStore) evicted(ids ...uuid.UUID) {
	if ss.notifier == nil {
		return
	}
	for _, id := range ids {
		ss.notifier.CloseSession(id)
	}
}

func (ss *SessionStore) Len() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.sessions)
}

// List сессии в порядке открытия.
func (ss *SessionStore) List() []*Session {
	ss.mu.RLock()
	res := make([]*Session, 0, len(ss.sessions))
	for _, s := range ss.sessions {
		res = append(res, s)
	}
	ss.mu.RUnlock()

	slices.SortFunc(res, func(a, b *Session) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return res
}

// CleanExpired удаляет сессии без обращений дольше TTL.
func (ss *SessionStore) CleanExpired() {
	ss.mu.Lock()
	var removed []uuid.UUID
	for id, s := range ss.sessions {
		if ss.expired(s) {
			delete(ss.sessions, id)
			removed = append(removed, id)
		}
	}
	left := len(ss.sessions)
	ss.mu.Unlock()

	if len(removed) > 0 {
		slog.Info("Expired editor sessions removed", "count", len(removed), "left", left)
		ss.evicted(removed...)
	}
}

func (ss *SessionStore) expired(s *Session) bool {
	return ss.opts.TTL > 0 && ss.now().Sub(s.LastAccess()) > ss.opts.TTL
}

// Session открытый документ редактора.
type Session struct {
	ID        uuid.UUID
	Title     string
	ReadOnly  bool
	CreatedAt time.Time

	store  *SessionStore
	editor *editor.Editor

	// cmdMu делает установку выделения, команду и чтение причины отказа одной операцией
	cmdMu sync.Mutex

	mu         sync.RWMutex
	selection  edtypes.Selection
	lastAccess time.Time
	rejection  error
}

func (s *Session) ToLightDTO() *dto.SessionLight {
	if s == nil {
		return nil
	}
	return &dto.SessionLight{
		Id:         s.ID.String(),
		Title:      s.Title,
		ReadOnly:   s.ReadOnly,
		Version:    s.editor.CurrentVersion(),
		CreatedAt:  s.CreatedAt,
		LastAccess: s.LastAccess(),
	}
}

func (s *Session) Editor() *editor.Editor {
	return s.editor
}

func (s *Session) LastAccess() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAccess
}

func (s *Session) touch(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = t
}

func (s *Session) Selection() edtypes.Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection
}

// SetSelection ставит выделение, границы проверяются по текущему документу.
func (s *Session) SetSelection(sel edtypes.Selection) error {
	size := s.editor.Document().Size()
	if sel.From < 0 || sel.To < 0 || sel.From > size || sel.To > size {
		return apierrors.ErrSelectionOutOfRange
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = sel.Normalize(size)
	return nil
}

// Apply выполняет именованную команду. sel, если задано, ставится перед выполнением.
// При отказе возвращается причина, полученная от редактора.
func (s *Session) Apply(name string, args map[string]any, sel *edtypes.Selection) (bool, error) {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	if sel != nil {
		if err := s.SetSelection(*sel); err != nil {
			return false, err
		}
	}

	s.setRejection(nil)
	ok := s.editor.ApplyCommand(name, args)
	return ok, s.takeRejection()
}

// Can пробный прогон команды.
func (s *Session) Can(name string, args map[string]any, sel *edtypes.Selection) (bool, error) {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	if sel != nil {
		if err := s.SetSelection(*sel); err != nil {
			return false, err
		}
	}
	return s.editor.CanApplyCommand(name, args), nil
}

// Load заменяет документ сессии.
func (s *Session) Load(html string) error {
	if s.ReadOnly {
		return apierrors.ErrSessionReadOnly
	}
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	s.editor.LoadDocument(html)
	s.resetSelection()
	return nil
}

// LoadJSON заменяет документ сессии содержимым TipTap JSON.
func (s *Session) LoadJSON(data []byte) error {
	if s.ReadOnly {
		return apierrors.ErrSessionReadOnly
	}
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	if err := s.editor.LoadJSON(data); err != nil {
		return apierrors.ErrInvalidDocument.WithFormattedMessage(err.Error())
	}
	s.resetSelection()
	return nil
}

func (s *Session) resetSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = edtypes.Selection{}
}

func (s *Session) setRejection(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejection = err
}

func (s *Session) takeRejection() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.rejection
	s.rejection = nil
	return err
}

// GetSelection реализует editor.Host.
func (s *Session) GetSelection() edtypes.Selection {
	return s.Selection()
}

func (s *Session) OnDocumentChanged(html string) {
	if s.store.notifier == nil {
		return
	}
	s.store.notifier.Publish(Change{SessionID: s.ID, Version: s.editor.CurrentVersion(), HTML: html})
}

func (s *Session) OnCommandRejected(name string, reason error) {
	slog.Debug("Editor command rejected", "session", s.ID, "command", name, "err", reason)
	s.setRejection(reason)
}

// VetoTransaction реализует editor.Vetoer: сессия только для чтения отклоняет любые изменения.
func (s *Session) VetoTransaction(tx transaction.Transaction) error {
	if s.ReadOnly {
		return apierrors.ErrSessionReadOnly
	}
	return nil
}

var (
	_ editor.Host   = (*Session)(nil)
	_ editor.Vetoer = (*Session)(nil)
)

// IsVeto сообщает, что отказ вызван вето сессии.
func IsVeto(err error) bool {
	return errors.Is(err, editor.ErrHostVeto)
}

// MapError переводит причину отказа редактора в ошибку API.
func MapError(command string, err error) error {
	var defined apierrors.DefinedError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apierrors.ErrSessionReadOnly):
		return apierrors.ErrSessionReadOnly
	case errors.As(err, &defined):
		return defined
	case errors.Is(err, editor.ErrUnknownCommand):
		return apierrors.ErrUnknownCommand.WithFormattedMessage(command)
	case errors.Is(err, commands.ErrInvalidArgs):
		return apierrors.ErrInvalidCommandArgs.WithFormattedMessage(err.Error())
	case errors.Is(err, editor.ErrCommandNotApplicable):
		return apierrors.ErrCommandNotApplicable
	case IsVeto(err):
		return apierrors.ErrCommandVetoed.WithFormattedMessage(err.Error())
	}
	return err
}
