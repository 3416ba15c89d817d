package rest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewlink/crewlink/internal/logging"
	"github.com/crewlink/crewlink/internal/store/rest"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// feedServer upgrades /crews/{id}/events and hands the connection to serve.
func feedServer(t *testing.T, serve func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		serve(conn)
	}))
}

func TestSubscribe_ChangeFramesTriggerOnChange(t *testing.T) {
	frames := make(chan struct{}, 4)
	srv := feedServer(t, func(conn *websocket.Conn) {
		for i := 0; i < 3; i++ {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"crew_id":"quick-river-482"}`)))
		}
		// Hold the socket open until the test is done reading.
		time.Sleep(200 * time.Millisecond)
	})
	defer srv.Close()

	c := rest.New(srv.URL, logging.SetupClient("error"))

	sub, err := c.Subscribe(context.Background(), "quick-river-482",
		func() { frames <- struct{}{} }, nil)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	for i := 0; i < 3; i++ {
		select {
		case <-frames:
		case <-time.After(time.Second):
			t.Fatalf("frame %d never arrived", i)
		}
	}
}

func TestSubscribe_ServerCloseReportsConnectionClosed(t *testing.T) {
	srv := feedServer(t, func(conn *websocket.Conn) {
		deadline := time.Now().Add(time.Second)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutting down"), deadline)
	})
	defer srv.Close()

	c := rest.New(srv.URL, logging.SetupClient("error"))

	errs := make(chan error, 1)
	sub, err := c.Subscribe(context.Background(), "quick-river-482", nil,
		func(err error) { errs <- err })
	require.NoError(t, err)
	defer sub.Unsubscribe()

	select {
	case err := <-errs:
		assert.EqualError(t, err, "connection closed")
	case <-time.After(time.Second):
		t.Fatal("onError never fired after server close")
	}
}

func TestSubscribe_UnsubscribeStaysSilent(t *testing.T) {
	release := make(chan struct{})
	srv := feedServer(t, func(conn *websocket.Conn) {
		<-release
	})
	defer srv.Close()
	defer close(release)

	c := rest.New(srv.URL, logging.SetupClient("error"))

	var errCount atomic.Int32
	sub, err := c.Subscribe(context.Background(), "quick-river-482", nil,
		func(error) { errCount.Add(1) })
	require.NoError(t, err)

	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, errCount.Load(), "locally initiated teardown must not look like a remote failure")
}

func TestSubscribe_AnswersServerPings(t *testing.T) {
	pongs := make(chan struct{}, 1)
	srv := feedServer(t, func(conn *websocket.Conn) {
		conn.SetPongHandler(func(string) error {
			select {
			case pongs <- struct{}{}:
			default:
			}
			return nil
		})
		deadline := time.Now().Add(time.Second)
		require.NoError(t, conn.WriteControl(websocket.PingMessage, []byte("ka"), deadline))
		// Pong handlers only run from inside a read; block in one.
		conn.SetReadDeadline(time.Now().Add(time.Second))
		conn.ReadMessage()
	})
	defer srv.Close()

	c := rest.New(srv.URL, logging.SetupClient("error"))

	sub, err := c.Subscribe(context.Background(), "quick-river-482", nil, nil)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	select {
	case <-pongs:
	case <-time.After(time.Second):
		t.Fatal("client never answered the keepalive ping")
	}
}

func TestSubscribe_DialFailure(t *testing.T) {
	// Plain HTTP endpoint that refuses the upgrade.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no websocket here", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := rest.New(srv.URL, logging.SetupClient("error"))

	_, err := c.Subscribe(context.Background(), "quick-river-482", nil, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to real-time updates")
}
