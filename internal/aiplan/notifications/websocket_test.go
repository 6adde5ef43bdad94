package notifications

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/attrs"
	store "github.com/aisa-it/aiplan-editor/internal/aiplan/memory-store"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDebounce(t *testing.T) {
	h := NewChangeHub(30 * time.Millisecond)

	var (
		mu  sync.Mutex
		got []WebsocketMsg
	)
	h.deliver = func(msg WebsocketMsg) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, msg)
	}

	a := uuid.Must(uuid.NewV4())
	b := uuid.Must(uuid.NewV4())
	h.Publish(store.Change{SessionID: a, Version: 1, HTML: "<p>1</p>"})
	h.Publish(store.Change{SessionID: a, Version: 2, HTML: "<p>2</p>"})
	h.Publish(store.Change{SessionID: b, Version: 7, HTML: "<p>b</p>"})

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	versions := map[uuid.UUID]uint64{}
	for _, m := range got {
		assert.Equal(t, MsgDocumentChanged, m.Type)
		versions[m.SessionID] = m.Version
	}
	assert.Equal(t, map[uuid.UUID]uint64{a: 2, b: 7}, versions)
}

func TestCloseSessionDropsPending(t *testing.T) {
	h := NewChangeHub(20 * time.Millisecond)
	delivered := make(chan WebsocketMsg, 1)
	h.deliver = func(msg WebsocketMsg) { delivered <- msg }

	id := uuid.Must(uuid.NewV4())
	h.Publish(store.Change{SessionID: id, Version: 1})
	h.CloseSession(id)

	select {
	case msg := <-delivered:
		t.Fatalf("unexpected delivery of version %d", msg.Version)
	case <-time.After(80 * time.Millisecond):
	}
}

func TestWebsocketDelivery(t *testing.T) {
	h := NewChangeHub(0)
	id := uuid.Must(uuid.NewV4())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Handle(id, &store.Change{SessionID: id, Version: 3, HTML: "<p>snap</p>"}, w, r)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	var msg WebsocketMsg
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, MsgSnapshot, msg.Type)
	assert.EqualValues(t, 3, msg.Version)

	require.Eventually(t, func() bool { return h.Connections(id) == 1 }, time.Second, 5*time.Millisecond)

	h.Publish(store.Change{SessionID: id, Version: 4, HTML: "<p>new</p>"})
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, MsgDocumentChanged, msg.Type)
	assert.EqualValues(t, 4, msg.Version)
	assert.Equal(t, "<p>new</p>", msg.HTML)

	conn.Close(websocket.StatusNormalClosure, "")
	assert.Eventually(t, func() bool { return h.Connections(id) == 0 }, time.Second, 5*time.Millisecond)
}

func TestExpiredSessionClosesSubscribers(t *testing.T) {
	reg, err := attrs.NewDefaultRegistry(attrs.DefaultConfig())
	require.NoError(t, err)

	h := NewChangeHub(0)
	ss := store.NewSessionStore(reg, h, store.Options{TTL: 20 * time.Millisecond})
	session, err := ss.Create("", "<p>x</p>", false)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Handle(session.ID, nil, w, r)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.CloseNow()
	require.Eventually(t, func() bool { return h.Connections(session.ID) == 1 }, time.Second, 5*time.Millisecond)

	readErr := make(chan error, 1)
	go func() {
		var msg WebsocketMsg
		readErr <- wsjson.Read(ctx, conn, &msg)
	}()

	time.Sleep(40 * time.Millisecond)
	ss.CleanExpired()
	assert.Zero(t, ss.Len())
	assert.Zero(t, h.Connections(session.ID))

	select {
	case err := <-readErr:
		assert.Equal(t, websocket.StatusNormalClosure, websocket.CloseStatus(err))
	case <-ctx.Done():
		t.Fatal("подписчик истекшей сессии не отключен")
	}
}
