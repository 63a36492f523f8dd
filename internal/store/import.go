// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/rfp-engine/pkg/types"
)

// requirementRecord is the YAML import form of one RFP requirement.
type requirementRecord struct {
	Requirement string `yaml:"requirement"`
	Category    string `yaml:"category"`
	RFPName     string `yaml:"rfp_name"`
	UploadedBy  string `yaml:"uploaded_by"`
}

// answerRecord is the YAML import form of one answer-bank entry. The
// embedding is precomputed offline and carried as a float vector.
type answerRecord struct {
	Requirement string    `yaml:"requirement"`
	Response    string    `yaml:"response"`
	Category    string    `yaml:"category"`
	Embedding   []float64 `yaml:"embedding"`
}

// ImportRequirements loads requirements from a YAML file and inserts
// them. Returns the number of rows inserted.
func (s *Store) ImportRequirements(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading requirements file: %w", err)
	}

	var records []requirementRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		return 0, fmt.Errorf("parsing requirements file: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO requirements (requirement, category, rfp_name, uploaded_by) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	count := 0
	for _, rec := range records {
		if rec.Requirement == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, rec.Requirement, rec.Category, rec.RFPName, rec.UploadedBy); err != nil {
			return 0, fmt.Errorf("inserting requirement: %w", err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}
	return count, nil
}

// ImportAnswers loads answer-bank entries from a YAML file and inserts
// them. Embeddings are stored as JSON arrays in the embedding column.
func (s *Store) ImportAnswers(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading answers file: %w", err)
	}

	var records []answerRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		return 0, fmt.Errorf("parsing answers file: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO answers (requirement, response, category, embedding) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	count := 0
	for _, rec := range records {
		if rec.Requirement == "" {
			continue
		}
		var embedding sql.NullString
		if len(rec.Embedding) > 0 {
			encoded, err := json.Marshal(rec.Embedding)
			if err != nil {
				return 0, fmt.Errorf("encoding embedding: %w", err)
			}
			embedding = sql.NullString{String: string(encoded), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, rec.Requirement, rec.Response, rec.Category, embedding); err != nil {
			return 0, fmt.Errorf("inserting answer: %w", err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}
	return count, nil
}

// ListRequirements returns all stored requirements ordered by ID.
func (s *Store) ListRequirements(ctx context.Context) ([]types.Requirement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, requirement, category, rfp_name, uploaded_by FROM requirements ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing requirements: %w", err)
	}
	defer rows.Close()

	var requirements []types.Requirement
	for rows.Next() {
		var (
			req      types.Requirement
			category sql.NullString
			rfpName  sql.NullString
			uploader sql.NullString
		)
		if err := rows.Scan(&req.ID, &req.Text, &category, &rfpName, &uploader); err != nil {
			return nil, fmt.Errorf("scanning requirement: %w", err)
		}
		req.Category = category.String
		req.RFPName = rfpName.String
		req.UploadedBy = uploader.String
		requirements = append(requirements, req)
	}
	return requirements, rows.Err()
}

// EmbeddingForText returns the stored embedding for an answer whose
// requirement text matches exactly, or nil when no embedded answer
// matches.
func (s *Store) EmbeddingForText(ctx context.Context, text string) ([]float64, error) {
	var encoded sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT embedding FROM answers WHERE requirement = ? AND embedding IS NOT NULL LIMIT 1`, text,
	).Scan(&encoded)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading embedding: %w", err)
	}
	if !encoded.Valid || encoded.String == "" {
		return nil, nil
	}

	var embedding []float64
	if err := json.Unmarshal([]byte(encoded.String), &embedding); err != nil {
		return nil, fmt.Errorf("decoding embedding: %w", err)
	}
	return embedding, nil
}

// AnswersWithEmbeddings returns every answer-bank entry that carries an
// embedding, in insertion order.
func (s *Store) AnswersWithEmbeddings(ctx context.Context) ([]types.Answer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT requirement, response, category, embedding FROM answers WHERE embedding IS NOT NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing embedded answers: %w", err)
	}
	defer rows.Close()

	var answers []types.Answer
	for rows.Next() {
		var (
			a        types.Answer
			response sql.NullString
			category sql.NullString
			encoded  string
		)
		if err := rows.Scan(&a.Requirement, &response, &category, &encoded); err != nil {
			return nil, fmt.Errorf("scanning answer: %w", err)
		}
		a.Response = response.String
		a.Category = category.String
		if err := json.Unmarshal([]byte(encoded), &a.Embedding); err != nil {
			return nil, fmt.Errorf("decoding embedding: %w", err)
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
