// Package history keeps past transcriptions in a local SQLite database.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Angad-2002/Darwix-AI/internal/domain"
)

// ErrNotFound is returned when no transcription has the requested ID.
var ErrNotFound = errors.New("transcription not found")

type (
	// Entry summarizes one stored transcription.
	Entry struct {
		ID               int64     `json:"id"`
		Name             string    `json:"name"`
		Blake3Hash       string    `json:"blake3_hash"`
		Language         string    `json:"language"`
		DetectedLanguage *string   `json:"detected_language"`
		DurationSeconds  float64   `json:"duration"`
		SegmentCount     int       `json:"segment_count"`
		CreatedAt        time.Time `json:"created_at"`
	}

	// Record is an entry with its full result.
	Record struct {
		Entry
		Result domain.TranscriptionResult `json:"result"`
	}

	SQLiteRepo struct {
		db  *sql.DB
		now func() time.Time
	}
)

func NewSQLiteRepo(db *sql.DB) SQLiteRepo {
	return SQLiteRepo{db: db, now: time.Now}
}

// Save stores result under the audio hash; an existing entry for the same hash is replaced.
func (r SQLiteRepo) Save(ctx context.Context, name, blake3Hash, language string, result domain.TranscriptionResult) (Entry, error) {
	entry := Entry{
		Name:             name,
		Blake3Hash:       blake3Hash,
		Language:         language,
		DetectedLanguage: result.DetectedLanguage,
		DurationSeconds:  result.DurationSeconds,
		SegmentCount:     len(result.Segments),
		CreatedAt:        r.now().UTC().Truncate(time.Millisecond),
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return entry, fmt.Errorf("saving transcription: begin trx: %w", err)
	}

	if err := r.save(ctx, tx, &entry, result.Segments); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return entry, fmt.Errorf("rollback save transcription: %w", rbErr)
		}
		return entry, err
	}

	if err := tx.Commit(); err != nil {
		return entry, fmt.Errorf("saving transcription: commiting: %w", err)
	}
	return entry, nil
}

func (r SQLiteRepo) save(ctx context.Context, tx *sql.Tx, entry *Entry, segments []domain.Segment) error {
	err := tx.QueryRowContext(ctx, `
		insert into transcriptions (name, blake3_hash, language, detected_language, duration_ms, created_at)
		values ($1, $2, $3, $4, $5, $6)
		on conflict (blake3_hash) do update set
			name = excluded.name,
			language = excluded.language,
			detected_language = excluded.detected_language,
			duration_ms = excluded.duration_ms,
			created_at = excluded.created_at
		returning id`,
		entry.Name,
		entry.Blake3Hash,
		entry.Language,
		nullString(entry.DetectedLanguage),
		secondsToMs(entry.DurationSeconds),
		entry.CreatedAt.UnixMilli(),
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("persisting transcription into sqlite: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "delete from segments where transcription_id = $1", entry.ID); err != nil {
		return fmt.Errorf("clearing previous segments: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		insert into segments (id, transcription_id, text, start_ms, end_ms, confidence, speaker)
		values ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return fmt.Errorf("inserting segments: prepare: %w", err)
	}
	defer stmt.Close()

	for n, s := range segments {
		var confidence sql.NullFloat64
		if s.Confidence != nil {
			confidence = sql.NullFloat64{Float64: *s.Confidence, Valid: true}
		}
		_, err := stmt.ExecContext(ctx, n, entry.ID, s.Text, secondsToMs(s.StartSeconds), secondsToMs(s.EndSeconds), confidence, s.Speaker)
		if err != nil {
			return fmt.Errorf("inserting segment %d: %w", n, err)
		}
	}
	return nil
}

// List returns stored entries, newest first.
func (r SQLiteRepo) List(ctx context.Context) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		select t.id, t.name, t.blake3_hash, t.language, t.detected_language, t.duration_ms, t.created_at,
			(select count(*) from segments s where s.transcription_id = t.id)
		from transcriptions t
		order by t.created_at desc, t.id desc`)
	if err != nil {
		return nil, fmt.Errorf("listing transcriptions: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("listing transcriptions: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing transcriptions: %w", err)
	}
	return entries, nil
}

// Get returns the entry with id and its segments in original order.
func (r SQLiteRepo) Get(ctx context.Context, id int64) (Record, error) {
	row := r.db.QueryRowContext(ctx, `
		select t.id, t.name, t.blake3_hash, t.language, t.detected_language, t.duration_ms, t.created_at,
			(select count(*) from segments s where s.transcription_id = t.id)
		from transcriptions t
		where t.id = $1`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("get transcription %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get transcription %d: %w", id, err)
	}

	rows, err := r.db.QueryContext(ctx, `
		select text, start_ms, end_ms, confidence, speaker
		from segments
		where transcription_id = $1
		order by id`, id)
	if err != nil {
		return Record{}, fmt.Errorf("get transcription %d segments: %w", id, err)
	}
	defer rows.Close()

	segments := []domain.Segment{}
	for rows.Next() {
		var (
			seg            domain.Segment
			startMs, endMs int64
			confidence     sql.NullFloat64
		)
		if err := rows.Scan(&seg.Text, &startMs, &endMs, &confidence, &seg.Speaker); err != nil {
			return Record{}, fmt.Errorf("get transcription %d segments: %w", id, err)
		}
		seg.StartSeconds = msToSeconds(startMs)
		seg.EndSeconds = msToSeconds(endMs)
		if confidence.Valid {
			v := confidence.Float64
			seg.Confidence = &v
		}
		segments = append(segments, seg)
	}
	if err := rows.Err(); err != nil {
		return Record{}, fmt.Errorf("get transcription %d segments: %w", id, err)
	}

	return Record{
		Entry: entry,
		Result: domain.TranscriptionResult{
			DurationSeconds:  entry.DurationSeconds,
			DetectedLanguage: entry.DetectedLanguage,
			Segments:         segments,
		},
	}, nil
}

// Record hashes the submitted file and saves its result.
func (r SQLiteRepo) Record(ctx context.Context, req domain.TranscriptionRequest, result domain.TranscriptionResult) (Entry, error) {
	hash, err := HashSource(req.File.Source)
	if err != nil {
		return Entry{}, fmt.Errorf("record transcription: %w", err)
	}
	return r.Save(ctx, req.File.Name, hash, req.LanguageHint, result)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var (
		entry      Entry
		detected   sql.NullString
		durationMs int64
		createdAt  int64
	)
	err := s.Scan(&entry.ID, &entry.Name, &entry.Blake3Hash, &entry.Language, &detected, &durationMs, &createdAt, &entry.SegmentCount)
	if err != nil {
		return entry, err
	}
	if detected.Valid {
		v := detected.String
		entry.DetectedLanguage = &v
	}
	entry.DurationSeconds = msToSeconds(durationMs)
	entry.CreatedAt = time.UnixMilli(createdAt).UTC()
	return entry, nil
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func secondsToMs(seconds float64) int64 {
	return decimal.NewFromFloat(seconds).Mul(decimal.NewFromInt(1000)).Round(0).IntPart()
}

func msToSeconds(ms int64) float64 {
	return decimal.New(ms, -3).InexactFloat64()
}
