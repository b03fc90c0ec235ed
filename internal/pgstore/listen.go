package pgstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ChangeChannel is the NOTIFY channel fed by the records trigger.
const ChangeChannel = "record_changes"

// Change identifies a modified collection.
type Change struct {
	UserID     string
	Collection string
}

// ParseChange decodes a "user_id:collection" notification payload.
func ParseChange(payload string) (Change, bool) {
	i := strings.LastIndexByte(payload, ':')
	if i <= 0 || i == len(payload)-1 {
		return Change{}, false
	}
	return Change{UserID: payload[:i], Collection: payload[i+1:]}, true
}

// Listener holds a dedicated connection subscribed to ChangeChannel.
type Listener struct {
	conn *pgx.Conn
}

// Listen connects to dsn and issues LISTEN.
func Listen(ctx context.Context, dsn string) (*Listener, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect listener: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{ChangeChannel}.Sanitize()); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("listen: %w", err)
	}
	return &Listener{conn: conn}, nil
}

// Run calls fn for every change until ctx is done or the connection fails,
// then closes the connection. It returns nil when ctx ended it.
func (l *Listener) Run(ctx context.Context, fn func(Change)) error {
	defer l.conn.Close(context.WithoutCancel(ctx))
	for {
		n, err := l.conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("wait for notification: %w", err)
		}
		if c, ok := ParseChange(n.Payload); ok {
			fn(c)
		}
	}
}
