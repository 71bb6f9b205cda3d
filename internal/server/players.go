package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrNameTaken          = errors.New("name already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Player is an account or a guest. Guests have no name or password.
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Guest bool   `json:"guest"`
}

// Result is one finished game in a player's history.
type Result struct {
	Game       string `json:"game"`
	PuzzleID   string `json:"puzzleId"`
	Score      int    `json:"score"`
	MaxScore   int    `json:"maxScore"`
	Won        bool   `json:"won"`
	FinishedAt string `json:"finishedAt"`
}

// PlayerStore keeps accounts, bearer tokens and results in SQLite.
type PlayerStore struct {
	db *sql.DB
}

func NewPlayerStore(db *sql.DB) *PlayerStore {
	return &PlayerStore{db: db}
}

// SignUp creates a named account and returns it with a fresh token.
func (s *PlayerStore) SignUp(ctx context.Context, name, password string) (Player, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Player{}, "", fmt.Errorf("hashing password: %w", err)
	}

	var p Player
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO players (name, password_hash)
		VALUES (?, ?)
		RETURNING id, name
	`, name, string(hash)).Scan(&p.ID, &p.Name)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return Player{}, "", ErrNameTaken
		}
		return Player{}, "", fmt.Errorf("creating player: %w", err)
	}

	token, err := s.issueToken(ctx, p.ID)
	return p, token, err
}

// Login checks name and password and issues a new token.
func (s *PlayerStore) Login(ctx context.Context, name, password string) (Player, string, error) {
	var p Player
	var hash sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, password_hash FROM players WHERE name = ?
	`, name).Scan(&p.ID, &p.Name, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return Player{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return Player{}, "", fmt.Errorf("looking up player: %w", err)
	}
	if !hash.Valid || bcrypt.CompareHashAndPassword([]byte(hash.String), []byte(password)) != nil {
		return Player{}, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(ctx, p.ID)
	return p, token, err
}

// Guest creates an anonymous player.
func (s *PlayerStore) Guest(ctx context.Context) (Player, string, error) {
	p := Player{Guest: true}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO players (guest) VALUES (1)
		RETURNING id
	`).Scan(&p.ID)
	if err != nil {
		return Player{}, "", fmt.Errorf("creating guest: %w", err)
	}

	token, err := s.issueToken(ctx, p.ID)
	return p, token, err
}

// Local returns the password-less player called name, creating it on first
// use. Terminal play records results under it.
func (s *PlayerStore) Local(ctx context.Context, name string) (Player, error) {
	p := Player{Name: name}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO players (name) VALUES (?)
		ON CONFLICT (name) DO UPDATE SET name = excluded.name
		RETURNING id
	`, name).Scan(&p.ID)
	if err != nil {
		return Player{}, fmt.Errorf("loading local player: %w", err)
	}
	return p, nil
}

func (s *PlayerStore) issueToken(ctx context.Context, playerID string) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO player_tokens (token, player_id)
		VALUES (lower(hex(randomblob(16))), ?)
		RETURNING token
	`, playerID).Scan(&token)
	if err != nil {
		return "", fmt.Errorf("issuing token: %w", err)
	}
	return token, nil
}

// FromToken resolves a bearer token to its player.
func (s *PlayerStore) FromToken(ctx context.Context, token string) (Player, error) {
	var p Player
	var name sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT p.id, p.name, p.guest
		FROM player_tokens t
		JOIN players p ON p.id = t.player_id
		WHERE t.token = ?
	`, token).Scan(&p.ID, &name, &p.Guest)
	if errors.Is(err, sql.ErrNoRows) {
		return Player{}, ErrNotFound
	}
	if err != nil {
		return Player{}, fmt.Errorf("looking up token: %w", err)
	}
	p.Name = name.String
	return p, nil
}

// RecordResult appends a finished game to the player's history.
func (s *PlayerStore) RecordResult(ctx context.Context, playerID string, r Result) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO results (player_id, game, puzzle_id, score, max_score, won)
		VALUES (?, ?, ?, ?, ?, ?)
	`, playerID, r.Game, r.PuzzleID, r.Score, r.MaxScore, r.Won)
	if err != nil {
		return fmt.Errorf("recording result: %w", err)
	}
	return nil
}

// Results returns the player's most recent results, newest first.
func (s *PlayerStore) Results(ctx context.Context, playerID string, limit int) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT game, puzzle_id, score, max_score, won, finished_at
		FROM results
		WHERE player_id = ?
		ORDER BY finished_at DESC, id DESC
		LIMIT ?
	`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing results: %w", err)
	}
	defer rows.Close()

	out := []Result{}
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.Game, &r.PuzzleID, &r.Score, &r.MaxScore, &r.Won, &r.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
