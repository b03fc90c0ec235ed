package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/dmitrijs2005/mediminder/internal/api"
	"github.com/dmitrijs2005/mediminder/internal/client/models"
	"github.com/dmitrijs2005/mediminder/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiveClient_ChangesURL(t *testing.T) {
	c := NewLive(Config{BaseURL: "https://api.example.com/api"}, logging.Nop())
	assert.Equal(t, "wss://api.example.com/api/v1/changes?collection=med_logs", c.changesURL(models.IntakeLogs))

	c = NewLive(Config{BaseURL: "http://127.0.0.1:8080/api"}, logging.Nop())
	assert.Equal(t, "ws://127.0.0.1:8080/api/v1/changes?collection=medications", c.changesURL(models.Medications))
}

func TestLiveClient_Subscribe_DeliversMatchingEvents(t *testing.T) {
	events := make(chan api.ChangeEvent, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/changes", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()
		for ev := range events {
			if err := wsjson.Write(r.Context(), conn, ev); err != nil {
				return
			}
		}
	}))
	defer srv.Close()
	defer close(events)

	c := NewLive(Config{BaseURL: srv.URL + "/api", Timeout: 2 * time.Second}, logging.Nop())
	fired := make(chan struct{}, 4)
	unsub, err := c.Subscribe(context.Background(), alice, models.Medications, func() { fired <- struct{}{} })
	require.NoError(t, err)
	defer unsub()

	events <- api.ChangeEvent{Collection: string(models.Appointments)}
	events <- api.ChangeEvent{Collection: string(models.Medications)}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("no change delivered")
	}
	select {
	case <-fired:
		t.Fatal("event for another collection delivered")
	case <-time.After(50 * time.Millisecond):
	}

	unsub()
	unsub()
}

func TestLiveClient_Subscribe_DialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewLive(Config{BaseURL: srv.URL + "/api", Timeout: time.Second}, logging.Nop())
	_, err := c.Subscribe(context.Background(), alice, models.Medications, func() {})
	require.Error(t, err)
}
