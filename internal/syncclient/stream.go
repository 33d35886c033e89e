package syncclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	hub "github.com/dukerupert/shoplist/internal/websocket"
)

// ErrNotEligible is returned when the user should not hold a push channel for the list.
var ErrNotEligible = errors.New("list is not shared")

const ticketTTL = time.Minute

// Stream feeds server change notifications into an agent. It does not reconnect: when the
// connection fails it is torn down and the caller decides whether to dial again.
type Stream struct {
	conn   *websocket.Conn
	agent  *Agent
	logger *slog.Logger
}

// DialStream opens the push channel for the agent's list. baseURL is the server's http(s)
// address; secret signs the connection ticket.
func DialStream(ctx context.Context, baseURL, token string, secret []byte, userID int64, agent *Agent, logger *slog.Logger) (*Stream, error) {
	if !agent.Eligible(userID) {
		return nil, ErrNotEligible
	}
	ticket, err := hub.IssueTicket(secret, userID, agent.ListID(), ticketTTL, time.Now())
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += fmt.Sprintf("/api/lists/%d/stream", agent.ListID())
	u.RawQuery = url.Values{"ticket": {ticket}}.Encode()

	conn, _, err := websocket.Dial(ctx, u.String(), &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": {"Bearer " + token}},
	})
	if err != nil {
		return nil, fmt.Errorf("dial stream: %w", err)
	}
	return &Stream{
		conn:   conn,
		agent:  agent,
		logger: logger.With("component", "stream", "list_id", agent.ListID()),
	}, nil
}

// Run reads notifications until ctx ends or the connection fails.
func (s *Stream) Run(ctx context.Context) error {
	defer s.conn.CloseNow()
	for {
		var ev hub.Event
		if err := wsjson.Read(ctx, s.conn, &ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("stream closed", "error", err)
			return err
		}
		if err := s.agent.HandlePush(ctx, ev); err != nil {
			s.logger.Warn("apply push", "error", err)
		}
	}
}

func (s *Stream) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "")
}
