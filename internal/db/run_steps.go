package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// RecordStep stores the outcome of one pipeline stage
func (db *DB) RecordStep(ctx context.Context, runID uuid.UUID, in RunStepInput) error {
	var parametersJSON []byte
	if in.Parameters != nil {
		var err error
		parametersJSON, err = json.Marshal(in.Parameters)
		if err != nil {
			return fmt.Errorf("failed to marshal parameters: %w", err)
		}
	}

	var errorMessage *string
	if in.Error != "" {
		errorMessage = &in.Error
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO testgen_run_steps (run_id, step, status, duration_ms, error_message, parameters)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		runID, in.Step, in.Status, in.Duration.Milliseconds(), errorMessage, parametersJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to record run step %s: %w", in.Step, err)
	}
	return nil
}

// ListRunSteps retrieves all steps for a run in execution order
func (db *DB) ListRunSteps(ctx context.Context, runID uuid.UUID) ([]RunStep, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, run_id, step, status, duration_ms, error_message, parameters, created_at
		 FROM testgen_run_steps
		 WHERE run_id = $1
		 ORDER BY created_at`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list run steps: %w", err)
	}
	defer rows.Close()

	var steps []RunStep
	for rows.Next() {
		var step RunStep
		var parametersJSON []byte

		if err := rows.Scan(&step.ID, &step.RunID, &step.Step, &step.Status,
			&step.DurationMs, &step.ErrorMessage, &parametersJSON, &step.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run step: %w", err)
		}

		if parametersJSON != nil {
			_ = json.Unmarshal(parametersJSON, &step.Parameters)
		}

		steps = append(steps, step)
	}
	return steps, rows.Err()
}
