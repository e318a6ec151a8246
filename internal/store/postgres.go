package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/Herorishi1234/chess-game/internal/domain"
)

// Postgres is the durable Repository. One row per game, one per account.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(databaseURL string) (*Postgres, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	p := &Postgres{db: db}
	if err := p.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Postgres) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

func (p *Postgres) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL UNIQUE,
			secret_hash TEXT NOT NULL,
			rating INT NOT NULL DEFAULT 1200,
			games_played INT NOT NULL DEFAULT 0,
			games_won INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			mode TEXT NOT NULL,
			status TEXT NOT NULL,
			outcome TEXT NOT NULL DEFAULT '',
			ended_by TEXT NOT NULL DEFAULT '',
			white_id TEXT NOT NULL DEFAULT '',
			white_name TEXT NOT NULL DEFAULT '',
			black_id TEXT NOT NULL DEFAULT '',
			black_name TEXT NOT NULL DEFAULT '',
			fen TEXT NOT NULL,
			moves_uci JSONB NOT NULL DEFAULT '[]',
			moves_san JSONB NOT NULL DEFAULT '[]',
			turn TEXT NOT NULL,
			initial_ms BIGINT,
			increment_ms BIGINT,
			white_clock_ms BIGINT,
			black_clock_ms BIGINT,
			last_transition TIMESTAMPTZ,
			pgn TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			started_at TIMESTAMPTZ,
			ended_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_games_status ON games (status)`,
		`CREATE INDEX IF NOT EXISTS idx_games_white ON games (white_id)`,
		`CREATE INDEX IF NOT EXISTS idx_games_black ON games (black_id)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_rating ON accounts (rating DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// SaveGame upserts the full game record; every write replaces the row.
func (p *Postgres) SaveGame(ctx context.Context, g *domain.Session) error {
	if g == nil {
		return nil
	}
	movesUCI, err := json.Marshal(g.MovesUCI)
	if err != nil {
		return fmt.Errorf("marshal moves_uci: %w", err)
	}
	movesSAN, err := json.Marshal(g.MovesSAN)
	if err != nil {
		return fmt.Errorf("marshal moves_san: %w", err)
	}

	var initialMS, incrementMS, whiteMS, blackMS sql.NullInt64
	if g.TimeControl != nil {
		initialMS = sql.NullInt64{Int64: g.TimeControl.Initial.Milliseconds(), Valid: true}
		incrementMS = sql.NullInt64{Int64: g.TimeControl.Increment.Milliseconds(), Valid: true}
		whiteMS = sql.NullInt64{Int64: g.WhiteClock.Milliseconds(), Valid: true}
		blackMS = sql.NullInt64{Int64: g.BlackClock.Milliseconds(), Valid: true}
	}

	const q = `INSERT INTO games (
		id, mode, status, outcome, ended_by,
		white_id, white_name, black_id, black_name,
		fen, moves_uci, moves_san, turn,
		initial_ms, increment_ms, white_clock_ms, black_clock_ms,
		last_transition, pgn, created_at, started_at, ended_at
	) VALUES (
		$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11::jsonb,$12::jsonb,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22
	) ON CONFLICT (id) DO UPDATE SET
		mode=EXCLUDED.mode,
		status=EXCLUDED.status,
		outcome=EXCLUDED.outcome,
		ended_by=EXCLUDED.ended_by,
		white_id=EXCLUDED.white_id,
		white_name=EXCLUDED.white_name,
		black_id=EXCLUDED.black_id,
		black_name=EXCLUDED.black_name,
		fen=EXCLUDED.fen,
		moves_uci=EXCLUDED.moves_uci,
		moves_san=EXCLUDED.moves_san,
		turn=EXCLUDED.turn,
		initial_ms=EXCLUDED.initial_ms,
		increment_ms=EXCLUDED.increment_ms,
		white_clock_ms=EXCLUDED.white_clock_ms,
		black_clock_ms=EXCLUDED.black_clock_ms,
		last_transition=EXCLUDED.last_transition,
		pgn=EXCLUDED.pgn,
		started_at=EXCLUDED.started_at,
		ended_at=EXCLUDED.ended_at`

	_, err = p.db.ExecContext(ctx, q,
		g.ID, string(g.Mode), string(g.Status), string(g.Outcome), g.EndedBy,
		g.White.AccountID, g.White.DisplayName, g.Black.AccountID, g.Black.DisplayName,
		g.FEN, string(movesUCI), string(movesSAN), string(g.Turn),
		initialMS, incrementMS, whiteMS, blackMS,
		nullTime(g.LastTransition), g.PGN, g.CreatedAt, nullTime(g.StartedAt), nullTime(g.EndedAt),
	)
	if err != nil {
		return fmt.Errorf("save game: %w", err)
	}
	return nil
}

const gameColumns = `id, mode, status, outcome, ended_by,
	white_id, white_name, black_id, black_name,
	fen, moves_uci, moves_san, turn,
	initial_ms, increment_ms, white_clock_ms, black_clock_ms,
	last_transition, pgn, created_at, started_at, ended_at`

func (p *Postgres) GetGame(ctx context.Context, id string) (*domain.Session, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1`, id)
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select game: %w", err)
	}
	return g, nil
}

func (p *Postgres) ListOpenGames(ctx context.Context, limit int) ([]*domain.Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE status = $1 ORDER BY created_at DESC LIMIT $2`,
		string(domain.StatusOpen), limit)
	if err != nil {
		return nil, fmt.Errorf("select open games: %w", err)
	}
	defer rows.Close()
	return collectGames(rows)
}

func (p *Postgres) ListGamesByAccount(ctx context.Context, accountID string, limit int) ([]*domain.Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE white_id = $1 OR black_id = $1 ORDER BY created_at DESC LIMIT $2`,
		accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("select account games: %w", err)
	}
	defer rows.Close()
	return collectGames(rows)
}

func (p *Postgres) CreateAccount(ctx context.Context, a *domain.Account) error {
	if a == nil {
		return ErrAccountNotFound
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO accounts (id, display_name, secret_hash, rating, games_played, games_won, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		a.ID, a.DisplayName, a.SecretHash, a.Rating, a.GamesPlayed, a.GamesWon, a.CreatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicateName
	}
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

const accountColumns = `id, display_name, secret_hash, rating, games_played, games_won, created_at`

func (p *Postgres) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return p.getAccountBy(ctx, `id = $1`, id)
}

func (p *Postgres) GetAccountByName(ctx context.Context, displayName string) (*domain.Account, error) {
	return p.getAccountBy(ctx, `LOWER(display_name) = LOWER($1)`, strings.TrimSpace(displayName))
}

func (p *Postgres) getAccountBy(ctx context.Context, where, arg string) (*domain.Account, error) {
	var a domain.Account
	err := p.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE `+where, arg).
		Scan(&a.ID, &a.DisplayName, &a.SecretHash, &a.Rating, &a.GamesPlayed, &a.GamesWon, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select account: %w", err)
	}
	return &a, nil
}

func (p *Postgres) ApplyResult(ctx context.Context, accountID string, won bool, rating int) error {
	wonInc := 0
	if won {
		wonInc = 1
	}
	res, err := p.db.ExecContext(ctx,
		`UPDATE accounts SET games_played = games_played + 1, games_won = games_won + $2, rating = $3 WHERE id = $1`,
		accountID, wonInc, rating)
	if err != nil {
		return fmt.Errorf("apply result: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (p *Postgres) Leaderboard(ctx context.Context, limit int) ([]*domain.Account, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY rating DESC, display_name ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("select leaderboard: %w", err)
	}
	defer rows.Close()
	var list []*domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.DisplayName, &a.SecretHash, &a.Rating, &a.GamesPlayed, &a.GamesWon, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*domain.Session, error) {
	var (
		g            domain.Session
		mode, status string
		outcome      string
		turn         string
		movesUCI     []byte
		movesSAN     []byte
		initialMS    sql.NullInt64
		incrementMS  sql.NullInt64
		whiteMS      sql.NullInt64
		blackMS      sql.NullInt64
		lastTrans    sql.NullTime
		startedAt    sql.NullTime
		endedAt      sql.NullTime
	)
	err := row.Scan(
		&g.ID, &mode, &status, &outcome, &g.EndedBy,
		&g.White.AccountID, &g.White.DisplayName, &g.Black.AccountID, &g.Black.DisplayName,
		&g.FEN, &movesUCI, &movesSAN, &turn,
		&initialMS, &incrementMS, &whiteMS, &blackMS,
		&lastTrans, &g.PGN, &g.CreatedAt, &startedAt, &endedAt,
	)
	if err != nil {
		return nil, err
	}
	g.Mode = domain.Mode(mode)
	g.Status = domain.Status(status)
	g.Outcome = domain.Outcome(outcome)
	g.Turn = domain.Color(turn)
	if err := json.Unmarshal(movesUCI, &g.MovesUCI); err != nil {
		return nil, fmt.Errorf("unmarshal moves_uci: %w", err)
	}
	if err := json.Unmarshal(movesSAN, &g.MovesSAN); err != nil {
		return nil, fmt.Errorf("unmarshal moves_san: %w", err)
	}
	if initialMS.Valid {
		g.TimeControl = &domain.TimeControl{
			Initial:   time.Duration(initialMS.Int64) * time.Millisecond,
			Increment: time.Duration(incrementMS.Int64) * time.Millisecond,
		}
		g.WhiteClock = time.Duration(whiteMS.Int64) * time.Millisecond
		g.BlackClock = time.Duration(blackMS.Int64) * time.Millisecond
	}
	if lastTrans.Valid {
		g.LastTransition = lastTrans.Time
	}
	if startedAt.Valid {
		g.StartedAt = startedAt.Time
	}
	if endedAt.Valid {
		g.EndedAt = endedAt.Time
	}
	return &g, nil
}

func collectGames(rows *sql.Rows) ([]*domain.Session, error) {
	var list []*domain.Session
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		list = append(list, g)
	}
	return list, rows.Err()
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
