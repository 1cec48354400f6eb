package infra

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type stubStream struct {
	url      string
	connects int32
	frames   int32
	last     atomic.Value
}

func (s *stubStream) GetURL() string { return s.url }
func (s *stubStream) ID() string     { return "STUB" }
func (s *stubStream) OnConnect(ctx context.Context, conn *websocket.Conn) error {
	atomic.AddInt32(&s.connects, 1)
	return nil
}
func (s *stubStream) OnMessage(ctx context.Context, msg []byte) {
	atomic.AddInt32(&s.frames, 1)
	s.last.Store(string(msg))
}
func (s *stubStream) OnPing(ctx context.Context, conn *websocket.Conn) error {
	return nil
}

func startWSServer(t *testing.T, session func(*websocket.Conn)) *httptest.Server {
	up := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		session(conn)
	}))
}

func wsURL(httpURL string) string {
	return strings.Replace(httpURL, "http://", "ws://", 1)
}

func TestWSWorker_ConnectAndReceive(t *testing.T) {
	server := startWSServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"order_book"}`))
		time.Sleep(100 * time.Millisecond)
	})
	defer server.Close()

	stream := &stubStream{url: wsURL(server.URL)}
	worker := NewWSWorker(stream)
	worker.ReadTimeout = 500 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	worker.Start(ctx)
	time.Sleep(200 * time.Millisecond)
	worker.Stop()

	if atomic.LoadInt32(&stream.connects) == 0 {
		t.Error("OnConnect was never called")
	}
	if atomic.LoadInt32(&stream.frames) == 0 {
		t.Error("OnMessage was never called")
	}
	if got, _ := stream.last.Load().(string); got != `{"type":"order_book"}` {
		t.Errorf("unexpected frame: %s", got)
	}
}

func TestWSWorker_StopDoesNotHang(t *testing.T) {
	release := make(chan struct{})
	server := startWSServer(t, func(conn *websocket.Conn) {
		<-release
	})
	defer server.Close()
	defer close(release)

	stream := &stubStream{url: wsURL(server.URL)}
	worker := NewWSWorker(stream)

	worker.Start(context.Background())
	time.Sleep(100 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		worker.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("Stop did not return")
	}
}

func TestWSWorker_WriteReachesServer(t *testing.T) {
	received := make(chan []byte, 1)
	server := startWSServer(t, func(conn *websocket.Conn) {
		_, msg, err := conn.ReadMessage()
		if err == nil {
			received <- msg
		}
		time.Sleep(100 * time.Millisecond)
	})
	defer server.Close()

	stream := &stubStream{url: wsURL(server.URL)}
	worker := NewWSWorker(stream)

	worker.Start(context.Background())
	time.Sleep(100 * time.Millisecond)

	payload := []byte(`{"action":"insert","order_id":1}`)
	if err := worker.Write(websocket.TextMessage, payload); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	select {
	case msg := <-received:
		if string(msg) != string(payload) {
			t.Errorf("server got %s, want %s", msg, payload)
		}
	case <-time.After(time.Second):
		t.Error("server never received the frame")
	}

	worker.Stop()
}

func TestWSWorker_WriteWhileDisconnected(t *testing.T) {
	stream := &stubStream{url: "ws://127.0.0.1:1"}
	worker := NewWSWorker(stream)

	if err := worker.Write(websocket.TextMessage, []byte("x")); err == nil {
		t.Error("expected an error writing without a connection")
	}
}
