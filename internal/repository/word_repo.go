package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vocab-backend/internal/models"
)

// WordRepo is the global dictionary.
type WordRepo struct {
	pool *pgxpool.Pool
}

func NewWordRepo(pool *pgxpool.Pool) *WordRepo {
	return &WordRepo{pool: pool}
}

func (r *WordRepo) Exists(ctx context.Context, word string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM words WHERE word = $1)", word,
	).Scan(&exists)
	return exists, err
}

func (r *WordRepo) Existing(ctx context.Context, words []string) (map[string]bool, error) {
	out := make(map[string]bool, len(words))
	if len(words) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx, "SELECT word FROM words WHERE word = ANY($1)", words)
	if err != nil {
		return nil, err
	}
	found, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	for _, w := range found {
		out[w] = true
	}
	return out, nil
}

func (r *WordRepo) Delete(ctx context.Context, word string) (bool, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM words WHERE word = $1", word)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Upsert inserts or refreshes dictionary entries and returns how many rows
// were written.
func (r *WordRepo) Upsert(ctx context.Context, words []models.Word) (int, error) {
	if len(words) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, w := range words {
		batch.Queue(`
			INSERT INTO words (word, definition, part_of_speech)
			VALUES ($1, $2, $3)
			ON CONFLICT (word) DO UPDATE
			SET definition = EXCLUDED.definition, part_of_speech = EXCLUDED.part_of_speech`,
			w.Word, w.Definition, w.PartOfSpeech)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	written := 0
	for range words {
		tag, err := results.Exec()
		if err != nil {
			return written, err
		}
		written += int(tag.RowsAffected())
	}
	return written, nil
}

// WordbookRepo reads wordbook contents.
type WordbookRepo struct {
	pool *pgxpool.Pool
}

func NewWordbookRepo(pool *pgxpool.Pool) *WordbookRepo {
	return &WordbookRepo{pool: pool}
}

func (r *WordbookRepo) Words(ctx context.Context, wordbookID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT word FROM wordbook_entries
		WHERE wordbook_id = $1
		ORDER BY position, word`, wordbookID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
