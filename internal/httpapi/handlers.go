package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Herorishi1234/chess-game/internal/auth"
	"github.com/Herorishi1234/chess-game/internal/domain"
	"github.com/Herorishi1234/chess-game/internal/match"
	"github.com/Herorishi1234/chess-game/internal/obslog"
	"github.com/Herorishi1234/chess-game/internal/store"
	"github.com/Herorishi1234/chess-game/pkg/gamedto"
)

const (
	maxBodyBytes   = 1 << 20
	maxNameLength  = 32
	minSecretChars = 6
)

// Server is the REST surface: account registration, login, session CRUD and
// the leaderboard. Real-time play happens on the websocket, not here.
type Server struct {
	repo  store.Repository
	coord *match.Coordinator
	auth  *auth.Manager

	openListLimit  int
	leaderboardTop int
}

func NewServer(repo store.Repository, coord *match.Coordinator, authMgr *auth.Manager, openListLimit, leaderboardTop int) *Server {
	if openListLimit <= 0 {
		openListLimit = 50
	}
	if leaderboardTop <= 0 {
		leaderboardTop = 20
	}
	return &Server{
		repo:           repo,
		coord:          coord,
		auth:           authMgr,
		openListLimit:  openListLimit,
		leaderboardTop: leaderboardTop,
	}
}

// Register installs all routes onto the mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/games", s.withAuth(s.handleCreateGame))
	mux.HandleFunc("GET /api/games/open", s.handleListOpen)
	mux.HandleFunc("GET /api/games/mine", s.withAuth(s.handleListMine))
	mux.HandleFunc("GET /api/leaderboard", s.handleLeaderboard)
}

type authedHandler func(w http.ResponseWriter, r *http.Request, id auth.Identity)

// withAuth requires a Bearer token and resolves it to an identity.
func (s *Server) withAuth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get("Authorization"))
		token, ok := strings.CutPrefix(raw, "Bearer ")
		if !ok {
			writeError(w, http.StatusUnauthorized, gamedto.CodeUnauthenticated, "missing bearer token")
			return
		}
		id, err := s.auth.VerifyToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, gamedto.CodeUnauthenticated, "invalid token")
			return
		}
		next(w, r, *id)
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req gamedto.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.DisplayName)
	if name == "" || len(name) > maxNameLength {
		writeError(w, http.StatusBadRequest, gamedto.CodeIllegalState, "display name must be 1-32 characters")
		return
	}
	if len(req.Secret) < minSecretChars {
		writeError(w, http.StatusBadRequest, gamedto.CodeIllegalState, "secret too short")
		return
	}

	hash, err := s.auth.HashSecret(req.Secret)
	if err != nil {
		writeInternal(w, err)
		return
	}
	acct := &domain.Account{
		ID:          uuid.NewString(),
		DisplayName: name,
		SecretHash:  hash,
		Rating:      1200,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.CreateAccount(r.Context(), acct); err != nil {
		if errors.Is(err, store.ErrDuplicateName) {
			writeError(w, http.StatusConflict, gamedto.CodeIllegalState, "display name already taken")
			return
		}
		writeInternal(w, err)
		return
	}

	token, _, err := s.auth.IssueToken(acct.ID, acct.DisplayName)
	if err != nil {
		writeInternal(w, err)
		return
	}
	obslog.L().Info("account_registered", zap.String("account", acct.ID))
	writeJSON(w, http.StatusCreated, gamedto.AuthResponse{
		Token:   token,
		Account: accountSummary(acct),
	})
}

// handleLogin responds identically for an unknown name and a wrong secret,
// so probing registered names through the login form tells the caller
// nothing.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req gamedto.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	acct, err := s.repo.GetAccountByName(r.Context(), strings.TrimSpace(req.DisplayName))
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			writeError(w, http.StatusUnauthorized, gamedto.CodeUnauthenticated, "invalid credentials")
			return
		}
		writeInternal(w, err)
		return
	}
	if !s.auth.CheckSecret(acct.SecretHash, req.Secret) {
		writeError(w, http.StatusUnauthorized, gamedto.CodeUnauthenticated, "invalid credentials")
		return
	}

	token, _, err := s.auth.IssueToken(acct.ID, acct.DisplayName)
	if err != nil {
		writeInternal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gamedto.AuthResponse{
		Token:   token,
		Account: accountSummary(acct),
	})
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var req gamedto.CreateSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	mode := domain.Mode(strings.ToLower(strings.TrimSpace(req.Mode)))
	if mode == "" {
		mode = domain.ModePvP
	}

	var tc *domain.TimeControl
	if req.TimeControl != nil {
		if req.TimeControl.InitialSec <= 0 || req.TimeControl.IncrementSec < 0 {
			writeError(w, http.StatusBadRequest, gamedto.CodeIllegalState, "invalid time control")
			return
		}
		tc = &domain.TimeControl{
			Initial:   time.Duration(req.TimeControl.InitialSec) * time.Second,
			Increment: time.Duration(req.TimeControl.IncrementSec) * time.Second,
		}
	}

	seat := domain.Seat{AccountID: id.AccountID, DisplayName: id.DisplayName}
	state, err := s.coord.Create(r.Context(), seat, mode, tc)
	if err != nil {
		if errors.Is(err, match.ErrIllegalState) {
			writeError(w, http.StatusBadRequest, gamedto.CodeIllegalState, err.Error())
			return
		}
		writeInternal(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, state)
}

func (s *Server) handleListOpen(w http.ResponseWriter, r *http.Request) {
	games, err := s.repo.ListOpenGames(r.Context(), s.openListLimit)
	if err != nil {
		writeInternal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionList(games))
}

func (s *Server) handleListMine(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	games, err := s.repo.ListGamesByAccount(r.Context(), id.AccountID, s.openListLimit)
	if err != nil {
		writeInternal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionList(games))
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.repo.Leaderboard(r.Context(), s.leaderboardTop)
	if err != nil {
		writeInternal(w, err)
		return
	}
	resp := gamedto.LeaderboardResponse{Accounts: make([]gamedto.AccountSummary, 0, len(accounts))}
	for _, a := range accounts {
		resp.Accounts = append(resp.Accounts, accountSummary(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

func sessionList(games []*domain.Session) gamedto.SessionListResponse {
	resp := gamedto.SessionListResponse{Sessions: make([]*gamedto.SessionState, 0, len(games))}
	for _, g := range games {
		resp.Sessions = append(resp.Sessions, match.ToState(g))
	}
	return resp
}

func accountSummary(a *domain.Account) gamedto.AccountSummary {
	return gamedto.AccountSummary{
		ID:          a.ID,
		DisplayName: a.DisplayName,
		Rating:      a.Rating,
		GamesPlayed: a.GamesPlayed,
		GamesWon:    a.GamesWon,
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, gamedto.CodeIllegalState, "malformed request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		obslog.L().Warn("response_encode_failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, gamedto.ErrorResponse{Error: msg, Code: code})
}

func writeInternal(w http.ResponseWriter, err error) {
	obslog.L().Error("request_failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, gamedto.CodeInternal, "internal error")
}
