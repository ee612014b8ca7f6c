package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ListWorkflowNodes returns all canvas nodes ordered by id
func (r *Repository) ListWorkflowNodes(ctx context.Context) ([]WorkflowNode, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, kind, label, pos_x, pos_y, enabled, created_at, updated_at
		 FROM workflow_nodes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow nodes: %w", err)
	}
	defer rows.Close()

	nodes := []WorkflowNode{}
	for rows.Next() {
		var n WorkflowNode
		if err := rows.Scan(&n.ID, &n.Kind, &n.Label, &n.X, &n.Y,
			&n.Enabled, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan workflow node: %w", err)
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// SeedWorkflowNodes inserts the default canvas layout if no nodes exist.
// Idempotent: runs at startup.
func (r *Repository) SeedWorkflowNodes(ctx context.Context, nodes []WorkflowNode) error {
	var count int
	if err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM workflow_nodes`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count workflow nodes: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, n := range nodes {
		if _, err := r.db.Pool.Exec(ctx,
			`INSERT INTO workflow_nodes (id, kind, label, pos_x, pos_y, enabled)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (id) DO NOTHING`,
			n.ID, n.Kind, n.Label, n.X, n.Y, n.Enabled); err != nil {
			return fmt.Errorf("failed to seed workflow node %s: %w", n.ID, err)
		}
	}
	return nil
}

// UpdateNodePosition moves a canvas node. Returns pgx.ErrNoRows when the
// node does not exist.
func (r *Repository) UpdateNodePosition(ctx context.Context, id string, x, y float64) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE workflow_nodes
		 SET pos_x = $2, pos_y = $3, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $1`, id, x, y)
	if err != nil {
		return fmt.Errorf("failed to update node position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetNodeEnabled toggles a canvas node on or off
func (r *Repository) SetNodeEnabled(ctx context.Context, id string, enabled bool) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE workflow_nodes
		 SET enabled = $2, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $1`, id, enabled)
	if err != nil {
		return fmt.Errorf("failed to update node: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListWorkflowConnections returns all canvas connections
func (r *Repository) ListWorkflowConnections(ctx context.Context) ([]WorkflowConnection, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, from_node, to_node, created_at
		 FROM workflow_connections ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow connections: %w", err)
	}
	defer rows.Close()

	conns := []WorkflowConnection{}
	for rows.Next() {
		var c WorkflowConnection
		if err := rows.Scan(&c.ID, &c.FromNode, &c.ToNode, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan workflow connection: %w", err)
		}
		conns = append(conns, c)
	}
	return conns, rows.Err()
}

// CreateWorkflowConnection links two canvas nodes. Duplicate pairs are a
// no-op and return the existing row untouched.
func (r *Repository) CreateWorkflowConnection(ctx context.Context, c *WorkflowConnection) error {
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO workflow_connections (id, from_node, to_node)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (from_node, to_node) DO NOTHING
		 RETURNING created_at`,
		c.ID, c.FromNode, c.ToNode).Scan(&c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Conflict path: the pair already exists
			return nil
		}
		return fmt.Errorf("failed to create workflow connection: %w", err)
	}
	return nil
}

// DeleteWorkflowConnection removes a connection by id
func (r *Repository) DeleteWorkflowConnection(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM workflow_connections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete workflow connection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
