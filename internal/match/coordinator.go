package match

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Herorishi1234/chess-game/internal/bot"
	"github.com/Herorishi1234/chess-game/internal/clock"
	"github.com/Herorishi1234/chess-game/internal/domain"
	"github.com/Herorishi1234/chess-game/internal/obslog"
	"github.com/Herorishi1234/chess-game/internal/rules"
	"github.com/Herorishi1234/chess-game/internal/store"
	"github.com/Herorishi1234/chess-game/pkg/gamedto"
)

const (
	kFactor       = 24
	defaultRating = 1200

	janitorInterval = time.Minute
)

// Options tunes the coordinator. Zero values get sensible defaults.
type Options struct {
	BotAccountID string
	BotName      string
	BotBudget    time.Duration
	Retention    time.Duration // how long terminal rooms stay resident
}

// Coordinator owns every live room and serializes all mutating events per
// session. Commits go to the repository before any subscriber hears about
// them, so a failed write leaves both memory and listeners at the prior
// state.
type Coordinator struct {
	mu    sync.Mutex
	rooms map[string]*room

	repo   store.Repository
	snaps  *store.SnapshotStore // optional
	engine bot.Engine

	opts Options
	now  func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func New(repo store.Repository, snaps *store.SnapshotStore, engine bot.Engine, opts Options) *Coordinator {
	if opts.BotAccountID == "" {
		opts.BotAccountID = "bot"
	}
	if opts.BotName == "" {
		opts.BotName = "engine"
	}
	if opts.BotBudget <= 0 {
		opts.BotBudget = 3 * time.Second
	}
	if opts.Retention <= 0 {
		opts.Retention = 30 * time.Minute
	}
	c := &Coordinator{
		rooms:  make(map[string]*room),
		repo:   repo,
		snaps:  snaps,
		engine: engine,
		opts:   opts,
		now:    time.Now,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go c.janitor()
	return c
}

func (c *Coordinator) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
}

// Create opens a new session with the caller seated as white. Bot games
// start immediately; two-player games wait in OPEN until a second account
// joins.
func (c *Coordinator) Create(ctx context.Context, creator domain.Seat, mode domain.Mode, tc *domain.TimeControl) (*gamedto.SessionState, error) {
	if creator.Empty() {
		return nil, ErrForbidden
	}
	if mode != domain.ModePvP && mode != domain.ModeBot {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrIllegalState, mode)
	}
	now := c.now()
	g := &domain.Session{
		ID:          uuid.NewString(),
		Mode:        mode,
		Status:      domain.StatusOpen,
		White:       creator,
		FEN:         rules.StartFEN,
		Turn:        domain.White,
		TimeControl: tc,
		CreatedAt:   now,
	}
	if mode == domain.ModeBot {
		g.Black = domain.Seat{AccountID: c.opts.BotAccountID, DisplayName: c.opts.BotName}
		activate(g, now)
	}
	if err := c.repo.SaveGame(ctx, g); err != nil {
		return nil, err
	}
	c.saveSnapshot(g)

	r := newRoom(g)
	c.mu.Lock()
	c.rooms[g.ID] = r
	c.mu.Unlock()

	obslog.L().Info("session_created",
		zap.String("game_id", g.ID),
		zap.String("mode", string(mode)),
		zap.String("creator", creator.AccountID))
	return ToState(g), nil
}

// Join subscribes a connection to a session's event stream. An account
// already seated simply reattaches; a stranger fills the open seat (which
// activates the game, exactly once); anyone else is rejected.
func (c *Coordinator) Join(ctx context.Context, id string, who domain.Seat, connID string, sub Subscriber) error {
	r, err := c.roomFor(ctx, id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	g := r.sess

	if _, seated := g.SeatOf(who.AccountID); !seated {
		if g.Status != domain.StatusOpen || !g.Black.Empty() || who.Empty() {
			return ErrForbidden
		}
		staged := g.Clone()
		staged.Black = who
		activate(staged, c.now())
		if err := c.commitLocked(ctx, r, staged); err != nil {
			return err
		}
		g = staged
		obslog.L().Info("session_activated",
			zap.String("game_id", g.ID),
			zap.String("black", who.AccountID))
	}

	r.subs[connID] = member{accountID: who.AccountID, sub: sub}
	r.broadcastLocked(stateEvent(g))
	return nil
}

// Move applies one candidate move for the calling account. The staged copy
// is committed only after the repository write succeeds; any error path
// leaves the session untouched, except the time-forfeit path which finalizes
// the game instead of accepting the move.
func (c *Coordinator) Move(ctx context.Context, id, accountID, from, to, promotion string) error {
	r, err := c.roomFor(ctx, id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	g := r.sess

	if g.Status != domain.StatusActive {
		return ErrIllegalState
	}
	seat, ok := g.SeatOf(accountID)
	if !ok || seat != g.Turn {
		return ErrForbidden
	}

	now := c.now()
	upd := clock.Apply(g.TimeControl, remainingFor(g, seat), g.LastTransition, now)
	if upd.Forfeit {
		staged := g.Clone()
		setRemaining(staged, seat, 0)
		finalize(staged, domain.Outcome(seat.Opponent()), "timeout", now)
		if err := c.commitLocked(ctx, r, staged); err != nil {
			return err
		}
		r.drawOfferFrom = ""
		r.broadcastLocked(endedEvent(staged))
		c.settle(ctx, staged)
		obslog.L().Info("session_timeout",
			zap.String("game_id", g.ID),
			zap.String("flagged", string(seat)))
		return ErrTimeForfeit
	}

	res, err := rules.Apply(g.FEN, from, to, promotion)
	if err != nil {
		if errors.Is(err, rules.ErrRejected) {
			return ErrInvalidMove
		}
		return err
	}

	staged := g.Clone()
	staged.FEN = res.FEN
	staged.MovesUCI = append(staged.MovesUCI, res.UCI)
	staged.MovesSAN = append(staged.MovesSAN, res.SAN)
	staged.Turn = seat.Opponent()
	if staged.TimeControl != nil {
		setRemaining(staged, seat, upd.Remaining)
		staged.LastTransition = now
	}
	if res.Terminal {
		outcome := domain.OutcomeDraw
		if res.Winner != "" {
			outcome = domain.Outcome(res.Winner)
		}
		finalize(staged, outcome, res.Method, now)
	}

	if err := c.commitLocked(ctx, r, staged); err != nil {
		return err
	}
	r.drawOfferFrom = ""
	r.broadcastLocked(moveEvent(staged, res.UCI, res.SAN, seat))
	obslog.L().Info("session_move",
		zap.String("game_id", g.ID),
		zap.String("by", string(seat)),
		zap.String("uci", res.UCI))

	if res.Terminal {
		r.broadcastLocked(endedEvent(staged))
		c.settle(ctx, staged)
		return nil
	}
	if staged.Mode == domain.ModeBot && staged.SeatFor(staged.Turn).AccountID == c.opts.BotAccountID {
		go c.playBot(staged.ID)
	}
	return nil
}

// Resign ends an active game as a loss for the caller.
func (c *Coordinator) Resign(ctx context.Context, id, accountID string) error {
	r, err := c.roomFor(ctx, id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	g := r.sess

	if g.Status != domain.StatusActive {
		return ErrIllegalState
	}
	seat, ok := g.SeatOf(accountID)
	if !ok {
		return ErrForbidden
	}

	staged := g.Clone()
	finalize(staged, domain.Outcome(seat.Opponent()), "resignation", c.now())
	if err := c.commitLocked(ctx, r, staged); err != nil {
		return err
	}
	r.drawOfferFrom = ""
	r.broadcastLocked(endedEvent(staged))
	c.settle(ctx, staged)
	obslog.L().Info("session_resigned",
		zap.String("game_id", g.ID),
		zap.String("by", string(seat)))
	return nil
}

// OfferDraw records a pending draw offer and notifies the opposing seat
// privately. The offer survives until it is accepted or any move lands.
func (c *Coordinator) OfferDraw(ctx context.Context, id, accountID string) error {
	r, err := c.roomFor(ctx, id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	g := r.sess

	if g.Status != domain.StatusActive {
		return ErrIllegalState
	}
	seat, ok := g.SeatOf(accountID)
	if !ok {
		return ErrForbidden
	}

	r.drawOfferFrom = seat
	opp := g.SeatFor(seat.Opponent())
	r.deliverToLocked(opp.AccountID, &gamedto.Event{
		Type: gamedto.EventDrawOffered,
		From: string(seat),
	})
	obslog.L().Info("draw_offered",
		zap.String("game_id", g.ID),
		zap.String("by", string(seat)))
	return nil
}

// AcceptDraw finalizes the game as a draw, but only when the opposing seat
// has a standing offer.
func (c *Coordinator) AcceptDraw(ctx context.Context, id, accountID string) error {
	r, err := c.roomFor(ctx, id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	g := r.sess

	if g.Status != domain.StatusActive {
		return ErrIllegalState
	}
	seat, ok := g.SeatOf(accountID)
	if !ok {
		return ErrForbidden
	}
	if r.drawOfferFrom == "" || r.drawOfferFrom != seat.Opponent() {
		return ErrIllegalState
	}

	staged := g.Clone()
	finalize(staged, domain.OutcomeDraw, "draw_agreed", c.now())
	if err := c.commitLocked(ctx, r, staged); err != nil {
		return err
	}
	r.drawOfferFrom = ""
	r.broadcastLocked(endedEvent(staged))
	c.settle(ctx, staged)
	obslog.L().Info("draw_agreed", zap.String("game_id", g.ID))
	return nil
}

// Leave detaches a connection. A creator leaving a still-open game aborts
// it; leaving an active game never forfeit — the seat stays reserved for a
// later rejoin.
func (c *Coordinator) Leave(ctx context.Context, id, accountID, connID string) error {
	r, err := c.roomFor(ctx, id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, connID)
	g := r.sess

	if g.Status == domain.StatusOpen && g.White.AccountID == accountID {
		staged := g.Clone()
		staged.Status = domain.StatusAborted
		staged.EndedBy = "aborted"
		staged.EndedAt = c.now()
		if err := c.commitLocked(ctx, r, staged); err != nil {
			return err
		}
		r.broadcastLocked(endedEvent(staged))
		obslog.L().Info("session_aborted", zap.String("game_id", g.ID))
	}
	return nil
}

// Detach removes a connection from one session's broadcast group. The game
// itself is untouched; a connection switching rooms detaches from the old one
// so it holds at most a single membership.
func (c *Coordinator) Detach(id, connID string) {
	c.mu.Lock()
	r, ok := c.rooms[id]
	c.mu.Unlock()
	if !ok {
		return
	}
	r.mu.Lock()
	delete(r.subs, connID)
	r.mu.Unlock()
}

// Disconnect removes a dropped connection from whatever room holds it. The
// game itself is untouched: a disconnect is never a forfeit.
func (c *Coordinator) Disconnect(connID string) {
	c.mu.Lock()
	rooms := make([]*room, 0, len(c.rooms))
	for _, r := range c.rooms {
		rooms = append(rooms, r)
	}
	c.mu.Unlock()

	for _, r := range rooms {
		r.mu.Lock()
		delete(r.subs, connID)
		r.mu.Unlock()
	}
}

// roomFor returns the resident room, rehydrating from the snapshot cache or
// the repository when the session is not in memory.
func (c *Coordinator) roomFor(ctx context.Context, id string) (*room, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}
	c.mu.Lock()
	if r, ok := c.rooms[id]; ok {
		c.mu.Unlock()
		return r, nil
	}
	c.mu.Unlock()

	g, err := c.snaps.Get(ctx, id)
	if err != nil {
		obslog.L().Warn("snapshot_read_failed", zap.String("game_id", id), zap.Error(err))
	}
	if g == nil {
		g, err = c.repo.GetGame(ctx, id)
		if errors.Is(err, store.ErrGameNotFound) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.rooms[id]; ok {
		return r, nil
	}
	r := newRoom(g)
	c.rooms[id] = r
	// A bot game loaded mid-turn would otherwise wait forever for an engine
	// reply that nothing re-requests.
	if g.Mode == domain.ModeBot && g.Status == domain.StatusActive && g.SeatFor(g.Turn).AccountID == c.opts.BotAccountID {
		go c.playBot(id)
	}
	return r, nil
}

// commitLocked persists the staged session and, only on success, swaps it in
// as the room's authoritative state. Caller holds r.mu.
func (c *Coordinator) commitLocked(ctx context.Context, r *room, staged *domain.Session) error {
	if err := c.repo.SaveGame(ctx, staged); err != nil {
		obslog.L().Error("session_persist_failed",
			zap.String("game_id", staged.ID), zap.Error(err))
		return fmt.Errorf("persist session: %w", err)
	}
	r.sess = staged
	c.saveSnapshot(staged)
	return nil
}

func (c *Coordinator) saveSnapshot(g *domain.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.snaps.Save(ctx, g); err != nil {
		obslog.L().Warn("snapshot_write_failed", zap.String("game_id", g.ID), zap.Error(err))
	}
}

// settle records the final result on both accounts. Ratings move only in
// rated two-player games; a bot opponent leaves ratings untouched but still
// counts the human's game.
func (c *Coordinator) settle(ctx context.Context, g *domain.Session) {
	if g.Status != domain.StatusFinished {
		return
	}
	white := g.White
	black := g.Black

	if g.Mode == domain.ModeBot {
		human := white
		won := g.Outcome == domain.OutcomeWhite
		if human.AccountID == c.opts.BotAccountID {
			human = black
			won = g.Outcome == domain.OutcomeBlack
		}
		acct, err := c.repo.GetAccount(ctx, human.AccountID)
		if err != nil {
			obslog.L().Warn("settle_account_missing", zap.String("account", human.AccountID), zap.Error(err))
			return
		}
		if err := c.repo.ApplyResult(ctx, human.AccountID, won, acct.Rating); err != nil {
			obslog.L().Error("settle_failed", zap.String("account", human.AccountID), zap.Error(err))
		}
		return
	}

	wa, errW := c.repo.GetAccount(ctx, white.AccountID)
	if errW != nil {
		obslog.L().Warn("settle_account_missing", zap.String("account", white.AccountID), zap.Error(errW))
	}
	ba, errB := c.repo.GetAccount(ctx, black.AccountID)
	if errB != nil {
		obslog.L().Warn("settle_account_missing", zap.String("account", black.AccountID), zap.Error(errB))
	}

	var scoreWhite float64
	switch g.Outcome {
	case domain.OutcomeWhite:
		scoreWhite = 1
	case domain.OutcomeDraw:
		scoreWhite = 0.5
	}

	// Each seat settles on its own; a failed lookup for one account must not
	// cost the other its result. Without the opponent's rating there is no
	// delta to compute, so the rating stays put.
	var newWhite, newBlack int
	if errW == nil {
		newWhite = wa.Rating
		if errB == nil {
			newWhite += eloDelta(wa.Rating, ba.Rating, scoreWhite)
		}
		if err := c.repo.ApplyResult(ctx, white.AccountID, g.Outcome == domain.OutcomeWhite, newWhite); err != nil {
			obslog.L().Error("settle_failed", zap.String("account", white.AccountID), zap.Error(err))
		}
	}
	if errB == nil {
		newBlack = ba.Rating
		if errW == nil {
			newBlack += eloDelta(ba.Rating, wa.Rating, 1-scoreWhite)
		}
		if err := c.repo.ApplyResult(ctx, black.AccountID, g.Outcome == domain.OutcomeBlack, newBlack); err != nil {
			obslog.L().Error("settle_failed", zap.String("account", black.AccountID), zap.Error(err))
		}
	}
	if errW == nil && errB == nil {
		obslog.L().Info("ratings_settled",
			zap.String("game_id", g.ID),
			zap.Int("white_rating", newWhite),
			zap.Int("black_rating", newBlack))
	}
}

func eloDelta(own, opp int, score float64) int {
	expected := 1.0 / (1.0 + math.Pow(10, float64(opp-own)/400.0))
	return int(math.Round(kFactor * (score - expected)))
}

// playBot computes and submits the engine reply. It runs outside the room
// lock, so human events interleave freely with the search; the resulting
// move re-enters through Move like any other submission.
func (c *Coordinator) playBot(id string) {
	c.mu.Lock()
	r, ok := c.rooms[id]
	c.mu.Unlock()
	if !ok {
		return
	}

	r.mu.Lock()
	g := r.sess
	fen := g.FEN
	active := g.Status == domain.StatusActive && g.SeatFor(g.Turn).AccountID == c.opts.BotAccountID
	r.mu.Unlock()
	if !active {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.opts.BotBudget)
	defer cancel()

	uci, ok := c.engine.BestMove(ctx, fen)
	if !ok || len(uci) < 4 {
		// Out of budget with nothing playable; the engine keeps the turn
		// and is asked again when the room is next rehydrated.
		obslog.L().Warn("bot_no_move", zap.String("game_id", id))
		return
	}
	from, to := uci[:2], uci[2:4]
	promo := uci[4:]

	if err := c.Move(context.Background(), id, c.opts.BotAccountID, from, to, promo); err != nil {
		obslog.L().Warn("bot_move_rejected", zap.String("game_id", id), zap.Error(err))
	}
}

// janitor evicts terminal rooms with no listeners once the retention window
// has passed. The durable record and the Redis snapshot remain readable.
func (c *Coordinator) janitor() {
	defer close(c.done)
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *Coordinator) sweep() {
	cutoff := c.now().Add(-c.opts.Retention)
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, r := range c.rooms {
		r.mu.Lock()
		evict := r.sess.Status.Terminal() && len(r.subs) == 0 && r.sess.EndedAt.Before(cutoff)
		r.mu.Unlock()
		if evict {
			delete(c.rooms, id)
			obslog.L().Debug("room_evicted", zap.String("game_id", id))
		}
	}
}

func activate(g *domain.Session, now time.Time) {
	g.Status = domain.StatusActive
	g.StartedAt = now
	g.LastTransition = now
	if g.TimeControl != nil {
		g.WhiteClock = g.TimeControl.Initial
		g.BlackClock = g.TimeControl.Initial
	}
}

func finalize(g *domain.Session, outcome domain.Outcome, reason string, now time.Time) {
	g.Status = domain.StatusFinished
	g.Outcome = outcome
	g.EndedBy = reason
	g.EndedAt = now
	g.PGN = buildPGN(g, now)
}

func remainingFor(g *domain.Session, seat domain.Color) time.Duration {
	if seat == domain.White {
		return g.WhiteClock
	}
	return g.BlackClock
}

func setRemaining(g *domain.Session, seat domain.Color, d time.Duration) {
	if seat == domain.White {
		g.WhiteClock = d
	} else {
		g.BlackClock = d
	}
}
