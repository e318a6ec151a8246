package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Herorishi1234/chess-game/internal/auth"
	"github.com/Herorishi1234/chess-game/internal/domain"
	"github.com/Herorishi1234/chess-game/internal/match"
	"github.com/Herorishi1234/chess-game/internal/store"
	"github.com/Herorishi1234/chess-game/pkg/gamedto"
)

type idleEngine struct{}

func (idleEngine) BestMove(ctx context.Context, fen string) (string, bool) { return "", false }

func newTestGateway(t *testing.T) (*Gateway, *auth.Manager) {
	t.Helper()
	authMgr, err := auth.NewManager("gw-secret", time.Hour)
	if err != nil {
		t.Fatalf("auth.NewManager: %v", err)
	}
	coord := match.New(store.NewMemory(), nil, idleEngine{}, match.Options{})
	t.Cleanup(coord.Close)
	return New(coord, authMgr), authMgr
}

func TestServeWS_RejectsBadToken(t *testing.T) {
	gw, _ := newTestGateway(t)
	ts := httptest.NewServer(http.HandlerFunc(gw.ServeWS))
	t.Cleanup(ts.Close)

	for _, q := range []string{"", "?token=not-a-token"} {
		resp, err := http.Get(ts.URL + "/ws" + q)
		if err != nil {
			t.Fatalf("GET %q: %v", q, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("token %q: status %d, want 401", q, resp.StatusCode)
		}
	}
}

func TestServeWS_ValidTokenUpgrades(t *testing.T) {
	gw, authMgr := newTestGateway(t)
	ts := httptest.NewServer(http.HandlerFunc(gw.ServeWS))
	t.Cleanup(ts.Close)

	token, _, err := authMgr.IssueToken("a1", "alice")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	// A plain GET with a valid token must not be turned away as
	// unauthenticated; it fails later at the upgrade handshake instead.
	resp, err := http.Get(ts.URL + "/ws?token=" + token)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		t.Fatalf("valid token rejected")
	}
}

func drainEvents(cl *client) []*gamedto.Event {
	var evs []*gamedto.Event
	for {
		select {
		case ev := <-cl.send:
			evs = append(evs, ev)
		default:
			return evs
		}
	}
}

func TestDispatch_JoinReplacesPreviousSession(t *testing.T) {
	repo := store.NewMemory()
	ctx := context.Background()
	for _, n := range []string{"alice", "bob", "carol"} {
		err := repo.CreateAccount(ctx, &domain.Account{ID: n, DisplayName: n, Rating: 1200})
		if err != nil {
			t.Fatalf("CreateAccount(%s): %v", n, err)
		}
	}
	coord := match.New(repo, nil, idleEngine{}, match.Options{})
	t.Cleanup(coord.Close)
	authMgr, err := auth.NewManager("gw-secret", time.Hour)
	if err != nil {
		t.Fatalf("auth.NewManager: %v", err)
	}
	gw := New(coord, authMgr)

	first, err := coord.Create(ctx, domain.Seat{AccountID: "alice", DisplayName: "alice"}, domain.ModePvP, nil)
	if err != nil {
		t.Fatalf("Create first: %v", err)
	}
	second, err := coord.Create(ctx, domain.Seat{AccountID: "carol", DisplayName: "carol"}, domain.ModePvP, nil)
	if err != nil {
		t.Fatalf("Create second: %v", err)
	}

	cl := &client{
		id:       "conn-bob",
		identity: auth.Identity{AccountID: "bob", DisplayName: "bob"},
		send:     make(chan *gamedto.Event, sendBuffer),
	}
	gw.dispatch(ctx, cl, &gamedto.ClientEvent{Type: gamedto.ClientJoin, SessionID: first.ID})
	gw.dispatch(ctx, cl, &gamedto.ClientEvent{Type: gamedto.ClientJoin, SessionID: second.ID})
	if cl.sessionID != second.ID {
		t.Fatalf("client tracks session %q, want %q", cl.sessionID, second.ID)
	}
	for _, ev := range drainEvents(cl) {
		if ev.Type == gamedto.EventError {
			t.Fatalf("join rejected: %+v", ev.Error)
		}
	}

	// The first game goes on without the switched connection; none of its
	// broadcasts may reach a member of another room.
	if err := coord.Move(ctx, first.ID, "alice", "e2", "e4", ""); err != nil {
		t.Fatalf("Move in first session: %v", err)
	}
	for _, ev := range drainEvents(cl) {
		if ev.Type == gamedto.EventMoveApplied {
			t.Fatalf("connection still subscribed to the session it switched away from")
		}
	}
}

func TestClientDeliver_NeverBlocks(t *testing.T) {
	cl := &client{send: make(chan *gamedto.Event, 2)}
	for i := 0; i < 10; i++ {
		cl.Deliver(&gamedto.Event{Type: gamedto.EventSessionState})
	}
	if len(cl.send) != 2 {
		t.Fatalf("buffered %d events, want 2", len(cl.send))
	}
}

func TestToDomainError(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{match.ErrNotFound, gamedto.CodeNotFound},
		{store.ErrGameNotFound, gamedto.CodeNotFound},
		{match.ErrForbidden, gamedto.CodeForbidden},
		{match.ErrIllegalState, gamedto.CodeIllegalState},
		{match.ErrTimeForfeit, gamedto.CodeIllegalState},
		{match.ErrInvalidMove, gamedto.CodeInvalidMove},
		{auth.ErrInvalidToken, gamedto.CodeUnauthenticated},
		{errors.New("boom"), gamedto.CodeInternal},
	}
	for _, tc := range cases {
		if got := toDomainError(tc.err); got.Code != tc.code {
			t.Fatalf("%v: code %s, want %s", tc.err, got.Code, tc.code)
		}
	}
}
