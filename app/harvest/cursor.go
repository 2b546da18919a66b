package harvest

import (
	"context"
	"fmt"
	"log/slog"
)

// Cursor walks the transcript from the newest message backwards. After a
// refresh it resumes below the last message it handed out, found by ID, so
// messages arriving meanwhile do not shift it. Without an ID it falls back
// to the offset from the newest message.
type Cursor struct {
	session  Session
	messages []Message
	consumed int
	lastID   string
	scanned  int
}

func NewCursor(ctx context.Context, session Session) (*Cursor, error) {
	c := &Cursor{session: session}
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Refresh re-snapshots the transcript. Handles returned earlier become stale.
func (c *Cursor) Refresh(ctx context.Context) error {
	messages, err := c.session.Messages(ctx)
	if err != nil {
		return fmt.Errorf("failed to list messages: %w", err)
	}
	c.messages = messages

	if c.lastID == "" {
		return nil
	}
	for i, msg := range messages {
		if msg.ID() == c.lastID {
			c.consumed = len(messages) - i
			return nil
		}
	}
	slog.Debug("Cursor anchor not rendered, keeping offset", "id", c.lastID, "offset", c.consumed)
	return nil
}

// Next returns the next older message, or false once the snapshot is
// exhausted.
func (c *Cursor) Next() (Message, bool) {
	idx := len(c.messages) - 1 - c.consumed
	if idx < 0 {
		return nil, false
	}
	c.consumed++
	c.scanned++
	msg := c.messages[idx]
	c.lastID = msg.ID()
	return msg, true
}

// Position is the number of messages returned by Next so far.
func (c *Cursor) Position() int {
	return c.scanned
}
