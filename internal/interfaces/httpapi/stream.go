package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/valyala/bytebufferpool"

	"github.com/riskibarqy/fpl-datasync/internal/usecase"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
	streamReadLimit  = 512
)

type streamMessage[T any] struct {
	Collection string    `json:"collection"`
	Sequence   uint64    `json:"sequence"`
	SentAt     time.Time `json:"sentAt"`
	Items      []T       `json:"items"`
}

// Stream upgrades to a websocket and pushes the current collection followed by every published update.
// Clients only receive; anything they send is discarded.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Stream")
	defer span.End()

	collection := r.PathValue("collection")
	start, ok := h.streamSource(collection)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: unknown collection %q", usecase.ErrNotFound, collection))
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || h.origins.allows(origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		h.logger.WarnContext(ctx, "websocket upgrade failed", "collection", collection, "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go discardIncoming(conn, cancel)

	h.logger.InfoContext(ctx, "stream opened", "collection", collection, "remote_addr", r.RemoteAddr)
	err = start(ctx, conn)
	h.logger.InfoContext(ctx, "stream closed", "collection", collection, "remote_addr", r.RemoteAddr, "error", err)
}

type streamFunc func(ctx context.Context, conn *websocket.Conn) error

func (h *Handler) streamSource(collection string) (streamFunc, bool) {
	switch collection {
	case "teams":
		return func(ctx context.Context, conn *websocket.Conn) error {
			return pump(ctx, conn, collection, h.publisher.SubscribeTeams(ctx))
		}, true
	case "players":
		return func(ctx context.Context, conn *websocket.Conn) error {
			return pump(ctx, conn, collection, h.publisher.SubscribePlayers(ctx))
		}, true
	case "players-by-points":
		return func(ctx context.Context, conn *websocket.Conn) error {
			return pump(ctx, conn, collection, h.publisher.SubscribePlayersByPoints(ctx))
		}, true
	case "fixtures":
		return func(ctx context.Context, conn *websocket.Conn) error {
			return pump(ctx, conn, collection, h.publisher.SubscribeFixtures(ctx))
		}, true
	default:
		return nil, false
	}
}

// discardIncoming reads until the peer goes away, which also processes pong and close frames.
func discardIncoming(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(streamReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

func pump[T any](ctx context.Context, conn *websocket.Conn, collection string, updates <-chan []T) error {
	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	var sequence uint64
	for {
		select {
		case <-ctx.Done():
			return writeClose(conn, websocket.CloseNormalClosure, "")
		case items, ok := <-updates:
			if !ok {
				return writeClose(conn, websocket.CloseGoingAway, "publisher closed")
			}
			sequence++
			if err := writeSnapshot(conn, streamMessage[T]{
				Collection: collection,
				Sequence:   sequence,
				SentAt:     time.Now().UTC(),
				Items:      items,
			}); err != nil {
				return err
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return fmt.Errorf("write ping: %w", err)
			}
		}
	}
}

func writeSnapshot(conn *websocket.Conn, message any) error {
	buf, err := encodeJSON(message)
	if err != nil {
		return fmt.Errorf("encode stream message: %w", err)
	}
	defer bytebufferpool.Put(buf)

	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	if err := conn.WriteMessage(websocket.TextMessage, buf.B); err != nil {
		return fmt.Errorf("write stream message: %w", err)
	}
	return nil
}

func writeClose(conn *websocket.Conn, code int, reason string) error {
	return conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(streamWriteWait))
}
