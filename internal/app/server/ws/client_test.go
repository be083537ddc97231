package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient dials a throwaway echo server so the client runs over a real
// connection.
func newTestClient(t *testing.T) *RuntimeClient {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	return NewClient(context.Background(), NewWebSocket(context.Background(), conn), "u1")
}

func TestSendDuringCloseDoesNotPanic(t *testing.T) {
	client := newTestClient(t)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				if err := client.Send(context.Background(), []byte("frame")); err != nil {
					return
				}
			}
		}()
	}
	client.Close()
	wg.Wait()
}

func TestSendAfterCloseFails(t *testing.T) {
	client := newTestClient(t)
	client.Close()

	err := client.Send(context.Background(), []byte("frame"))
	assert.Error(t, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	client := newTestClient(t)
	client.Close()
	client.Close()
}
