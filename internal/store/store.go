// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists RFP requirements, the answer bank, and generated
// responses in a SQLite database.
// Implements: prd005-store; docs/ARCHITECTURE § Persistence.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/rfp-engine/pkg/types"
)

// ErrRequirementNotFound reports a requirement ID with no stored record.
// Fatal at workflow start.
var ErrRequirementNotFound = errors.New("requirement not found")

// Store manages the requirement and answer-bank SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the SQLite database at cfg.DBPath and
// creates the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "rfp.db"
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS requirements (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			requirement TEXT NOT NULL,
			category TEXT,
			rfp_name TEXT,
			uploaded_by TEXT,
			openai_response TEXT,
			deepseek_response TEXT,
			anthropic_response TEXT,
			final_response TEXT,
			similar_questions TEXT,
			model_provider TEXT,
			timestamp TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS answers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			requirement TEXT NOT NULL,
			response TEXT,
			category TEXT,
			embedding TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_answers_requirement ON answers(requirement)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// LoadRequirement reads one requirement by ID. The record is read-only
// for the duration of a workflow run.
func (s *Store) LoadRequirement(ctx context.Context, id int64) (*types.Requirement, error) {
	var (
		req      types.Requirement
		category sql.NullString
		rfpName  sql.NullString
		uploader sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, requirement, category, rfp_name, uploaded_by FROM requirements WHERE id = ?`, id,
	).Scan(&req.ID, &req.Text, &category, &rfpName, &uploader)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrRequirementNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading requirement %d: %w", id, err)
	}

	req.Category = category.String
	req.RFPName = rfpName.String
	req.UploadedBy = uploader.String
	return &req, nil
}

// snapshotEntry is the stored form of one similar match. The score is a
// four-decimal string, matching the snapshot format the rest of the
// tooling reads.
type snapshotEntry struct {
	Question  string `json:"question"`
	Response  string `json:"response"`
	Reference string `json:"reference"`
	Score     string `json:"similarity_score"`
}

// encodeMatches serializes matches into the similar_questions column form.
func encodeMatches(matches []types.SimilarMatch) (string, error) {
	entries := make([]snapshotEntry, 0, len(matches))
	for _, m := range matches {
		entries = append(entries, snapshotEntry{
			Question:  m.Requirement,
			Response:  m.Response,
			Reference: m.Reference,
			Score:     fmt.Sprintf("%.4f", m.Score),
		})
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("marshaling similar matches: %w", err)
	}
	return string(data), nil
}

// decodeMatches parses a similar_questions column value.
func decodeMatches(data string) ([]types.SimilarMatch, error) {
	var entries []snapshotEntry
	if err := json.Unmarshal([]byte(data), &entries); err != nil {
		return nil, fmt.Errorf("parsing similar matches: %w", err)
	}

	matches := make([]types.SimilarMatch, 0, len(entries))
	for _, e := range entries {
		score, err := strconv.ParseFloat(e.Score, 64)
		if err != nil {
			score = 0
		}
		matches = append(matches, types.SimilarMatch{
			Requirement: e.Question,
			Response:    e.Response,
			Reference:   e.Reference,
			Score:       score,
		})
	}
	return matches, nil
}

// LoadCachedMatches returns the similar-match snapshot stored by a prior
// run, or nil when none exists.
func (s *Store) LoadCachedMatches(ctx context.Context, id int64) ([]types.SimilarMatch, error) {
	var snapshot sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT similar_questions FROM requirements WHERE id = ?`, id,
	).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrRequirementNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading cached matches for %d: %w", id, err)
	}

	if !snapshot.Valid || snapshot.String == "" {
		return nil, nil
	}
	return decodeMatches(snapshot.String)
}

// SaveMatchSnapshot stores the similar-match list for a requirement so a
// later run can replay without re-querying similarity search.
func (s *Store) SaveMatchSnapshot(ctx context.Context, id int64, matches []types.SimilarMatch) error {
	snapshot, err := encodeMatches(matches)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE requirements SET similar_questions = ? WHERE id = ?`, snapshot, id)
	if err != nil {
		return fmt.Errorf("saving match snapshot for %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: id %d", ErrRequirementNotFound, id)
	}
	return nil
}

// SaveMOAResult persists a mixture-of-agents run in one transaction: every
// provider column (NULL where that provider failed), the synthesized
// final_response, the match snapshot, and the run metadata.
func (s *Store) SaveMOAResult(ctx context.Context, id int64, result *types.GenerationResult) error {
	snapshot, err := encodeMatches(result.Matches)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE requirements
		 SET openai_response = ?,
		     deepseek_response = ?,
		     anthropic_response = ?,
		     final_response = ?,
		     similar_questions = ?,
		     model_provider = ?,
		     timestamp = ?
		 WHERE id = ?`,
		result.OpenAI, result.DeepSeek, result.Anthropic,
		result.Final, snapshot, result.Provider,
		result.Timestamp.UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("saving MOA result for %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: id %d", ErrRequirementNotFound, id)
	}

	return tx.Commit()
}

// SaveSingleResult persists a single-provider run in one transaction:
// only the matching provider column is touched, and final_response always
// takes the new text (last write wins across repeated runs).
func (s *Store) SaveSingleResult(ctx context.Context, id int64, provider, response string, matches []types.SimilarMatch, at time.Time) error {
	snapshot, err := encodeMatches(matches)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE requirements
		 SET openai_response = CASE WHEN ? = 'openai' THEN ? ELSE openai_response END,
		     deepseek_response = CASE WHEN ? = 'deepseek' THEN ? ELSE deepseek_response END,
		     anthropic_response = CASE WHEN ? = 'anthropic' THEN ? ELSE anthropic_response END,
		     final_response = ?,
		     similar_questions = ?,
		     model_provider = ?,
		     timestamp = ?
		 WHERE id = ?`,
		provider, response, provider, response, provider, response,
		response, snapshot, provider,
		at.UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("saving %s result for %d: %w", provider, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: id %d", ErrRequirementNotFound, id)
	}

	return tx.Commit()
}

// StoredResult is a requirement row with its persisted responses, used
// for inspection after a run.
type StoredResult struct {
	types.Requirement `yaml:",inline"`

	OpenAI    *string              `json:"openai_response" yaml:"openai_response"`
	DeepSeek  *string              `json:"deepseek_response" yaml:"deepseek_response"`
	Anthropic *string              `json:"anthropic_response" yaml:"anthropic_response"`
	Final     *string              `json:"final_response" yaml:"final_response"`
	Matches   []types.SimilarMatch `json:"similar_questions" yaml:"similar_questions"`
	Provider  string               `json:"model_provider" yaml:"model_provider"`
	Timestamp string               `json:"timestamp" yaml:"timestamp"`
}

// LoadResult reads a requirement with all persisted response columns.
func (s *Store) LoadResult(ctx context.Context, id int64) (*StoredResult, error) {
	var (
		r        StoredResult
		category, rfpName, uploader, provider, timestamp sql.NullString
		snapshot sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, requirement, category, rfp_name, uploaded_by,
		        openai_response, deepseek_response, anthropic_response,
		        final_response, similar_questions, model_provider, timestamp
		 FROM requirements WHERE id = ?`, id,
	).Scan(&r.ID, &r.Text, &category, &rfpName, &uploader,
		&r.OpenAI, &r.DeepSeek, &r.Anthropic,
		&r.Final, &snapshot, &provider, &timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrRequirementNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading result %d: %w", id, err)
	}

	r.Category = category.String
	r.RFPName = rfpName.String
	r.UploadedBy = uploader.String
	r.Provider = provider.String
	r.Timestamp = timestamp.String

	if snapshot.Valid && snapshot.String != "" {
		matches, err := decodeMatches(snapshot.String)
		if err != nil {
			return nil, err
		}
		r.Matches = matches
	}
	return &r, nil
}
