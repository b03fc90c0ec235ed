package rest

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/dmitrijs2005/mediminder/internal/api"
	"github.com/dmitrijs2005/mediminder/internal/client/models"
	"github.com/dmitrijs2005/mediminder/internal/client/remote"
	"github.com/dmitrijs2005/mediminder/internal/common"
	"github.com/dmitrijs2005/mediminder/internal/logging"
)

// LiveClient is a Client that also receives change events over the
// server's websocket.
type LiveClient struct {
	*Client
	reconnectDelay time.Duration
}

func NewLive(cfg Config, logger logging.Logger) *LiveClient {
	return &LiveClient{Client: New(cfg, logger), reconnectDelay: 2 * time.Second}
}

func (c *LiveClient) changesURL(col models.Collection) string {
	u := c.baseURL + api.ChangesPath + "?collection=" + url.QueryEscape(string(col))
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

func (c *LiveClient) dial(ctx context.Context, id remote.Identity, col models.Collection) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	header := http.Header{}
	header.Set(common.AuthorizationHeader, common.BearerPrefix+id.Token)
	conn, _, err := websocket.Dial(dialCtx, c.changesURL(col), &websocket.DialOptions{HTTPHeader: header})
	return conn, err
}

// Subscribe dials the changes socket for col. A dropped socket is redialed
// until unsubscribe; onChange also fires after each reconnect since events
// may have been missed meanwhile.
func (c *LiveClient) Subscribe(ctx context.Context, id remote.Identity, col models.Collection, onChange func()) (func(), error) {
	conn, err := c.dial(ctx, id, col)
	if err != nil {
		return nil, err
	}

	subCtx, stop := context.WithCancel(ctx)
	go c.listen(subCtx, id, col, conn, onChange)

	var once sync.Once
	return func() { once.Do(stop) }, nil
}

func (c *LiveClient) listen(ctx context.Context, id remote.Identity, col models.Collection, conn *websocket.Conn, onChange func()) {
	for {
		c.read(ctx, col, conn, onChange)
		conn.Close(websocket.StatusNormalClosure, "")
		if ctx.Err() != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.reconnectDelay):
			}
			var err error
			conn, err = c.dial(ctx, id, col)
			if err == nil {
				break
			}
			c.logger.Warn(ctx, "changes socket redial failed", "collection", col, "error", err)
		}
		onChange()
	}
}

func (c *LiveClient) read(ctx context.Context, col models.Collection, conn *websocket.Conn, onChange func()) {
	for {
		var ev api.ChangeEvent
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			if ctx.Err() == nil {
				c.logger.Warn(ctx, "changes socket closed", "collection", col, "error", err)
			}
			return
		}
		if ev.Collection == string(col) {
			onChange()
		}
	}
}
