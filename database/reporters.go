package database

import (
	"context"
	"database/sql"
	"fmt"

	"civic-complaint-service/models"
)

// defaultEthicalScore is a new reporter's neutral standing.
const defaultEthicalScore = 5.0

// GetReporter loads a reporter's standing. Unknown reporters get the neutral
// default; the row is materialized on the first score update.
func (d *Database) GetReporter(ctx context.Context, id string) (*models.Reporter, error) {
	var r models.Reporter
	err := d.db.QueryRowContext(ctx,
		`SELECT id, ethical_score, total_messages, bot_mode FROM reporters WHERE id = ?`, id).
		Scan(&r.ID, &r.EthicalScore, &r.TotalMessages, &r.BotMode)
	if err == sql.ErrNoRows {
		return &models.Reporter{ID: id, EthicalScore: defaultEthicalScore}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reporter: %w", err)
	}
	return &r, nil
}

// UpdateReporterScore upserts a reporter's standing score and message count.
func (d *Database) UpdateReporterScore(ctx context.Context, id string, score float64, totalMessages int) error {
	_, err := d.db.ExecContext(ctx, `INSERT INTO reporters (id, ethical_score, total_messages)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE ethical_score = ?, total_messages = ?`,
		id, score, totalMessages, score, totalMessages)
	if err != nil {
		return fmt.Errorf("update reporter score: %w", err)
	}
	return nil
}

// SetBotMode toggles a reporter's automation flag.
func (d *Database) SetBotMode(ctx context.Context, id string, botMode bool) error {
	result, err := d.db.ExecContext(ctx,
		`UPDATE reporters SET bot_mode = ? WHERE id = ?`, botMode, id)
	if err != nil {
		return fmt.Errorf("set bot mode: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return models.ErrNotFound
	}
	return nil
}
