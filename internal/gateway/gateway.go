package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/Herorishi1234/chess-game/internal/auth"
	"github.com/Herorishi1234/chess-game/internal/domain"
	"github.com/Herorishi1234/chess-game/internal/match"
	"github.com/Herorishi1234/chess-game/internal/obslog"
	"github.com/Herorishi1234/chess-game/internal/rules"
	"github.com/Herorishi1234/chess-game/internal/store"
	"github.com/Herorishi1234/chess-game/pkg/gamedto"
)

const (
	sendBuffer   = 64
	writeTimeout = 5 * time.Second
	pingInterval = 15 * time.Second
)

// Gateway upgrades authenticated HTTP requests to websocket connections and
// shuttles events between clients and the coordinator.
type Gateway struct {
	coord *match.Coordinator
	auth  *auth.Manager
}

func New(coord *match.Coordinator, authMgr *auth.Manager) *Gateway {
	return &Gateway{coord: coord, auth: authMgr}
}

// client is one websocket connection. Deliver never blocks: a full send
// buffer drops the event, the next session_state snapshot resynchronizes the
// consumer.
type client struct {
	id       string
	identity auth.Identity
	send     chan *gamedto.Event

	// session this connection is currently joined to, read loop only
	sessionID string
}

func (c *client) Deliver(ev *gamedto.Event) {
	select {
	case c.send <- ev:
	default:
	}
}

// ServeWS authenticates the token query parameter, upgrades the connection,
// and runs the read loop until the peer goes away.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	identity, err := g.auth.VerifyToken(token)
	if err != nil {
		http.Error(w, "invalid or missing token", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		obslog.L().Warn("ws_accept_failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closing")

	cl := &client{
		id:       uuid.NewString(),
		identity: *identity,
		send:     make(chan *gamedto.Event, sendBuffer),
	}
	obslog.L().Info("ws_connected",
		zap.String("conn_id", cl.id),
		zap.String("account", identity.AccountID))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go g.writePump(ctx, conn, cl)
	g.readLoop(ctx, conn, cl)

	g.coord.Disconnect(cl.id)
	obslog.L().Info("ws_disconnected",
		zap.String("conn_id", cl.id),
		zap.String("account", identity.AccountID))
	conn.Close(websocket.StatusNormalClosure, "bye")
}

func (g *Gateway) writePump(ctx context.Context, conn *websocket.Conn, cl *client) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-cl.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, conn, ev)
			cancel()
			if err != nil {
				return
			}
		case <-ping.C:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(wctx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (g *Gateway) readLoop(ctx context.Context, conn *websocket.Conn, cl *client) {
	for {
		var ev gamedto.ClientEvent
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			return
		}
		g.dispatch(ctx, cl, &ev)
	}
}

func (g *Gateway) dispatch(ctx context.Context, cl *client, ev *gamedto.ClientEvent) {
	sessionID := strings.TrimSpace(ev.SessionID)
	if sessionID == "" {
		sessionID = cl.sessionID
	}

	var err error
	switch ev.Type {
	case gamedto.ClientJoin:
		seat := domain.Seat{AccountID: cl.identity.AccountID, DisplayName: cl.identity.DisplayName}
		err = g.coord.Join(ctx, sessionID, seat, cl.id, cl)
		if err == nil {
			// One membership per connection: switching sessions drops the
			// old broadcast group.
			if prev := cl.sessionID; prev != "" && prev != sessionID {
				g.coord.Detach(prev, cl.id)
			}
			cl.sessionID = sessionID
		}
	case gamedto.ClientMove:
		err = g.coord.Move(ctx, sessionID, cl.identity.AccountID, ev.From, ev.To, ev.Promotion)
	case gamedto.ClientResign:
		err = g.coord.Resign(ctx, sessionID, cl.identity.AccountID)
	case gamedto.ClientOfferDraw:
		err = g.coord.OfferDraw(ctx, sessionID, cl.identity.AccountID)
	case gamedto.ClientAcceptDraw:
		err = g.coord.AcceptDraw(ctx, sessionID, cl.identity.AccountID)
	case gamedto.ClientLeave:
		err = g.coord.Leave(ctx, sessionID, cl.identity.AccountID, cl.id)
		if err == nil && sessionID == cl.sessionID {
			cl.sessionID = ""
		}
	default:
		cl.Deliver(&gamedto.Event{
			Type:  gamedto.EventError,
			Error: &gamedto.DomainError{Code: gamedto.CodeIllegalState, Message: "unknown event type: " + ev.Type},
		})
		return
	}

	if err != nil {
		cl.Deliver(&gamedto.Event{Type: gamedto.EventError, Error: toDomainError(err)})
	}
}

// toDomainError maps internal sentinels onto the wire error taxonomy.
func toDomainError(err error) *gamedto.DomainError {
	switch {
	case errors.Is(err, match.ErrNotFound), errors.Is(err, store.ErrGameNotFound):
		return &gamedto.DomainError{Code: gamedto.CodeNotFound, Message: "session not found"}
	case errors.Is(err, match.ErrForbidden):
		return &gamedto.DomainError{Code: gamedto.CodeForbidden, Message: "not allowed"}
	case errors.Is(err, match.ErrTimeForfeit):
		return &gamedto.DomainError{Code: gamedto.CodeIllegalState, Message: "time forfeit"}
	case errors.Is(err, match.ErrIllegalState):
		return &gamedto.DomainError{Code: gamedto.CodeIllegalState, Message: err.Error()}
	case errors.Is(err, match.ErrInvalidMove), errors.Is(err, rules.ErrRejected):
		return &gamedto.DomainError{Code: gamedto.CodeInvalidMove, Message: "illegal move"}
	case errors.Is(err, auth.ErrInvalidToken):
		return &gamedto.DomainError{Code: gamedto.CodeUnauthenticated, Message: "invalid token"}
	default:
		obslog.L().Error("internal_error", zap.Error(err))
		return &gamedto.DomainError{Code: gamedto.CodeInternal, Message: "internal error"}
	}
}
