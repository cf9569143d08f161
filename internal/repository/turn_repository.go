package repository

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"elifsite/internal/model"
)

// TurnRepository is the append-only chat archive.
type TurnRepository struct {
	DB *sql.DB
}

func (r *TurnRepository) Save(ctx context.Context, sessionID string, t model.Turn) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO chat_turns (id, session_id, speaker, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New(), sessionID, string(t.Speaker), t.Text, t.At)
	if err != nil {
		return fmt.Errorf("archive turn: %w", err)
	}
	return nil
}

func (r *TurnRepository) List(ctx context.Context, sessionID string) ([]model.Turn, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT speaker, text, created_at
		FROM chat_turns
		WHERE session_id = $1
		ORDER BY created_at, id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var list []model.Turn
	for rows.Next() {
		var (
			t       model.Turn
			speaker string
		)
		if err := rows.Scan(&speaker, &t.Text, &t.At); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.Speaker = model.Speaker(speaker)
		list = append(list, t)
	}
	return list, rows.Err()
}

// WriteTranscript prints the archived turns of a session, one per line.
func (r *TurnRepository) WriteTranscript(ctx context.Context, sessionID string, w io.Writer) error {
	turns, err := r.List(ctx, sessionID)
	if err != nil {
		return err
	}
	if len(turns) == 0 {
		return fmt.Errorf("no archived turns for session %s", sessionID)
	}
	for _, t := range turns {
		if _, err := fmt.Fprintf(w, "%s %-9s %s\n", t.At.UTC().Format(time.RFC3339), t.Speaker, t.Text); err != nil {
			return err
		}
	}
	return nil
}
