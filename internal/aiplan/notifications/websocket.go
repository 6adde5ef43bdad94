// Рассылка изменений документов редактора подписчикам по вебсокету.
// Изменения одной сессии, пришедшие чаще интервала debounce, схлопываются до последнего.
//
// Основные возможности:
//   - Поддержка множественных вебсокетных подключений к одной сессии редактора.
//   - Отправка изменений через вебсокеты с использованием JSON.
//   - Пинг для поддержания активных соединений и закрытие отвалившихся.
//   - Закрытие всех подключений сессии при её удалении.
package notifications

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	store "github.com/aisa-it/aiplan-editor/internal/aiplan/memory-store"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gofrs/uuid"
)

const (
	pingPeriod = time.Second * 20
	timeout    = time.Minute

	MsgDocumentChanged = "document_changed"
	MsgSnapshot        = "snapshot"
)

type WebsocketMsg struct {
	Type      string    `json:"type"`
	SessionID uuid.UUID `json:"session_id"`
	Version   uint64    `json:"version"`
	HTML      string    `json:"html"`
	CreatedAt time.Time `json:"created_at"`
}

func newMsg(typ string, c store.Change) WebsocketMsg {
	return WebsocketMsg{
		Type:      typ,
		SessionID: c.SessionID,
		Version:   c.Version,
		HTML:      c.HTML,
		CreatedAt: time.Now().UTC(),
	}
}

// ChangeHub реализует store.Notifier.
type ChangeHub struct {
	sessions map[uuid.UUID]map[uuid.UUID]*websocket.Conn
	mutex    sync.RWMutex

	debounce time.Duration
	pending  map[uuid.UUID]store.Change
	timers   map[uuid.UUID]*time.Timer
	pmu      sync.Mutex

	// deliver отправляет сообщение подписчикам сессии, подменяется в тестах
	deliver func(msg WebsocketMsg)
}

func NewChangeHub(debounce time.Duration) *ChangeHub {
	h := &ChangeHub{
		sessions: make(map[uuid.UUID]map[uuid.UUID]*websocket.Conn),
		debounce: debounce,
		pending:  make(map[uuid.UUID]store.Change),
		timers:   make(map[uuid.UUID]*time.Timer),
	}
	h.deliver = h.broadcast
	return h
}

// Publish ставит изменение в очередь. Вызывается под блокировкой редактора, поэтому не пишет в сеть сам.
func (h *ChangeHub) Publish(c store.Change) {
	h.pmu.Lock()
	defer h.pmu.Unlock()

	h.pending[c.SessionID] = c
	if _, ok := h.timers[c.SessionID]; ok {
		return
	}
	h.timers[c.SessionID] = time.AfterFunc(h.debounce, func() { h.flush(c.SessionID) })
}

func (h *ChangeHub) flush(sessionID uuid.UUID) {
	h.pmu.Lock()
	c, ok := h.pending[sessionID]
	delete(h.pending, sessionID)
	delete(h.timers, sessionID)
	h.pmu.Unlock()
	if !ok {
		return
	}
	h.deliver(newMsg(MsgDocumentChanged, c))
}

func (h *ChangeHub) broadcast(msg WebsocketMsg) {
	h.mutex.RLock()
	cons := make([]*websocket.Conn, 0, len(h.sessions[msg.SessionID]))
	for _, con := range h.sessions[msg.SessionID] {
		cons = append(cons, con)
	}
	h.mutex.RUnlock()

	for _, con := range cons {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		if err := wsjson.Write(ctx, con, msg); err != nil {
			slog.Error("Write change to websocket", "sessionId", msg.SessionID, "err", err)
		}
		cancel()
	}
}

// Handle держит подключение подписчика до его закрытия. snapshot, если задан, отправляется первым сообщением.
func (h *ChangeHub) Handle(sessionID uuid.UUID, snapshot *store.Change, w http.ResponseWriter, req *http.Request) {
	c, err := websocket.Accept(w, req, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Open websocket connection", "err", err)
		return
	}
	defer c.CloseNow()

	if snapshot != nil {
		ctx, cancel := context.WithTimeout(req.Context(), timeout)
		err := wsjson.Write(ctx, c, newMsg(MsgSnapshot, *snapshot))
		cancel()
		if err != nil {
			slog.Debug("Write snapshot to websocket", "sessionId", sessionID, "err", err)
			return
		}
	}

	conId := uuid.Must(uuid.NewV4())
	h.add(sessionID, conId, c)
	defer h.remove(sessionID, conId)

	go h.pingLoop(sessionID, conId, c)

	// Start read until close
	ctx := c.CloseRead(context.Background())
	<-ctx.Done()

	c.Close(websocket.StatusNormalClosure, "")
}

func (h *ChangeHub) add(sessionID, conId uuid.UUID, c *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	cons, ok := h.sessions[sessionID]
	if !ok {
		cons = make(map[uuid.UUID]*websocket.Conn)
		h.sessions[sessionID] = cons
	}
	cons[conId] = c
}

func (h *ChangeHub) remove(sessionID, conId uuid.UUID) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	cons, ok := h.sessions[sessionID]
	if !ok {
		return false
	}
	_, ok = cons[conId]
	delete(cons, conId)
	if len(cons) == 0 {
		delete(h.sessions, sessionID)
	}
	return ok
}

// Connections число подписчиков сессии.
func (h *ChangeHub) Connections(sessionID uuid.UUID) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.sessions[sessionID])
}

// CloseSession закрывает подключения удаленной сессии и отбрасывает неотправленное изменение.
// Вызывается хранилищем при удалении сессии, в том числе по истечении TTL.
func (h *ChangeHub) CloseSession(sessionID uuid.UUID) {
	h.pmu.Lock()
	if t, ok := h.timers[sessionID]; ok {
		t.Stop()
		delete(h.timers, sessionID)
	}
	delete(h.pending, sessionID)
	h.pmu.Unlock()

	h.mutex.Lock()
	cons := h.sessions[sessionID]
	delete(h.sessions, sessionID)
	h.mutex.Unlock()

	for _, con := range cons {
		con.Close(websocket.StatusNormalClosure, "editor session closed")
	}
}

func (h *ChangeHub) pingLoop(sessionID, conId uuid.UUID, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		err := conn.Ping(ctx)
		cancel()
		if err != nil {
			slog.Debug("Ping to websocket failed", "sessionId", sessionID, "err", err)
			if h.remove(sessionID, conId) {
				conn.Close(websocket.StatusNormalClosure, "Ping failed, connection closed")
			}
			return
		}
	}
}

var _ store.Notifier = (*ChangeHub)(nil)
