package realtime

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityakp21/chargegrid/core/registry"
	"github.com/adityakp21/chargegrid/infra/logger"
)

// fakeConn satisfies wsConn. ReadMessage blocks until the peer closes, so
// run() stays alive the way a real connection would.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	done   chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{done: make(chan struct{})}
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.done
	return 0, nil, websocket.ErrCloseSent
}

func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.done) })
	return nil
}

func (f *fakeConn) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.frames...)
}

func (f *fakeConn) waitFrames(t *testing.T, n int) [][]byte {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if got := f.received(); len(got) >= n {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d frames, have %d", n, len(f.received()))
	return nil
}

func newTestHub(t *testing.T) (*Hub, *registry.ConnectionRegistry) {
	t.Helper()
	reg := registry.NewConnectionRegistry()
	h, err := NewHub(Config{}, reg, logger.NopLogger{})
	require.NoError(t, err)
	return h, reg
}

func connect(t *testing.T, h *Hub, reg *registry.ConnectionRegistry, userID string) (*fakeConn, func()) {
	t.Helper()
	before := len(reg.Connections(userID))
	conn := newFakeConn()
	done := make(chan struct{})
	go func() {
		h.run(userID, conn)
		close(done)
	}()
	deadline := time.Now().Add(time.Second)
	for len(reg.Connections(userID)) == before && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	require.Greater(t, len(reg.Connections(userID)), before, "connection never registered")
	return conn, func() {
		_ = conn.Close()
		<-done
	}
}

func TestHub_ConnectRegistersAndDisconnectUnregisters(t *testing.T) {
	h, reg := newTestHub(t)
	_, closeConn := connect(t, h, reg, "u1")

	assert.True(t, reg.Connected("u1"))
	assert.Equal(t, 1, reg.Size())

	closeConn()
	assert.False(t, reg.Connected("u1"))
	assert.Equal(t, 0, reg.Size())
	assert.Equal(t, 0, h.Rooms())
}

func TestHub_EmitToUserRoom(t *testing.T) {
	h, reg := newTestHub(t)
	c1, close1 := connect(t, h, reg, "u1")
	defer close1()
	c2, close2 := connect(t, h, reg, "u2")
	defer close2()

	require.NoError(t, h.EmitToRoom("u1", "notification:new", map[string]any{"eventType": "HARDWARE_FAILURE"}))

	frames := c1.waitFrames(t, 1)
	var f frame
	require.NoError(t, json.Unmarshal(frames[0], &f))
	assert.Equal(t, "notification:new", f.Event)

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, c2.received(), "other user must not receive the message")
}

func TestHub_BroadcastReachesEveryConnection(t *testing.T) {
	h, reg := newTestHub(t)
	c1, close1 := connect(t, h, reg, "u1")
	defer close1()
	c2, close2 := connect(t, h, reg, "u2")
	defer close2()

	require.NoError(t, h.EmitToRoom(BroadcastRoom, "notification:broadcast", map[string]any{"severity": "high"}))
	c1.waitFrames(t, 1)
	c2.waitFrames(t, 1)
}

func TestHub_MultipleDevicesSameUser(t *testing.T) {
	h, reg := newTestHub(t)
	c1, close1 := connect(t, h, reg, "u1")
	c2, close2 := connect(t, h, reg, "u1")
	defer close2()

	assert.Len(t, reg.Connections("u1"), 2)

	require.NoError(t, h.EmitToRoom("u1", "notification:new", nil))
	c1.waitFrames(t, 1)
	c2.waitFrames(t, 1)

	// One device going away keeps the user connected.
	close1()
	assert.True(t, reg.Connected("u1"))
}

func TestHub_EmitToEmptyRoomIsNoError(t *testing.T) {
	h, _ := newTestHub(t)
	assert.NoError(t, h.EmitToRoom("nobody", "notification:new", nil))
}
