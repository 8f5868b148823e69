package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/anicoll/waste-bin-controller/internal/pkg/model"
)

func newTestHub(t *testing.T, origins ...string) (*Hub, string) {
	t.Helper()
	h := NewHub(origins)
	h.logger = zaptest.NewLogger(t)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return h, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestHub_Broadcast(t *testing.T) {
	h, url := newTestHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	organic := model.BinOrganic
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, h.Write(context.Background(), model.BinEvents{
		{Kind: model.EventCommandAccepted, BinIndex: &organic, Status: "OK", Timestamp: ts},
	}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got model.BinEvent
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, model.EventCommandAccepted, got.Kind)
	require.NotNil(t, got.BinIndex)
	assert.Equal(t, model.BinOrganic, *got.BinIndex)
	assert.True(t, ts.Equal(got.Timestamp))
}

func TestHub_ClientGone(t *testing.T) {
	h, url := newTestHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()

	assert.Eventually(t, func() bool { return h.ClientCount() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestHub_RejectsForeignOrigin(t *testing.T) {
	_, url := newTestHub(t, "http://localhost:5173")

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://evil.example"}})

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHub_RunClosesClients(t *testing.T) {
	h, url := newTestHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://localhost:5173"}})
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, h.Run(ctx))

	assert.Equal(t, 0, h.ClientCount())
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway))
}

func TestHub_RejectsAfterRun(t *testing.T) {
	h, url := newTestHub(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, h.Run(ctx))

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Zero(t, h.ClientCount())
}
