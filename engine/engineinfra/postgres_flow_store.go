package engineinfra

import (
	"context"
	"database/sql"

	"github.com/Abraxas-365/craftable/errx"
	"github.com/chatflow-io/chatflow/engine"
	"github.com/chatflow-io/chatflow/flow"
	"github.com/chatflow-io/chatflow/flow/flowinfra"
	"github.com/chatflow-io/chatflow/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

// PostgresFlowStore vista de solo lectura del grafo para el motor.
// Reuses the flowinfra row mapping so both sides read the same schema.
type PostgresFlowStore struct {
	db *sqlx.DB
}

var _ engine.FlowStore = (*PostgresFlowStore)(nil)

func NewPostgresFlowStore(db *sqlx.DB) *PostgresFlowStore {
	return &PostgresFlowStore{db: db}
}

func (s *PostgresFlowStore) FindRunnableFlows(ctx context.Context) ([]*flow.Flow, error) {
	query := `
		SELECT
			id, name, description, trigger_type, trigger_keywords,
			status, priority, is_active, created_at, updated_at
		FROM chatbot_flows
		WHERE status = 'active' AND is_active = true
		ORDER BY priority DESC`

	var rows []flowinfra.FlowRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errx.Wrap(err, "failed to find runnable flows", errx.TypeInternal)
	}

	flows := make([]*flow.Flow, 0, len(rows))
	for i := range rows {
		flows = append(flows, rows[i].ToDomain())
	}
	return flows, nil
}

func (s *PostgresFlowStore) FindFlow(ctx context.Context, id kernel.FlowID) (*flow.Flow, error) {
	query := `
		SELECT
			id, name, description, trigger_type, trigger_keywords,
			status, priority, is_active, created_at, updated_at
		FROM chatbot_flows
		WHERE id = $1`

	var row flowinfra.FlowRow
	if err := s.db.GetContext(ctx, &row, query, id.String()); err != nil {
		if err == sql.ErrNoRows {
			return nil, flow.ErrFlowNotFound().WithDetail("flow_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find flow", errx.TypeInternal).
			WithDetail("flow_id", id.String())
	}

	return row.ToDomain(), nil
}

func (s *PostgresFlowStore) FindStartNode(ctx context.Context, flowID kernel.FlowID) (*flow.Node, error) {
	query := `
		SELECT
			id, flow_id, name, node_type, config, position_x, position_y,
			order_index, is_active, created_at, updated_at
		FROM flow_nodes
		WHERE flow_id = $1 AND node_type = 'start' AND is_active = true
		LIMIT 1`

	var row flowinfra.NodeRow
	if err := s.db.GetContext(ctx, &row, query, flowID.String()); err != nil {
		if err == sql.ErrNoRows {
			return nil, flow.ErrMissingStartNode().WithDetail("flow_id", flowID.String())
		}
		return nil, errx.Wrap(err, "failed to find start node", errx.TypeInternal).
			WithDetail("flow_id", flowID.String())
	}

	return row.ToDomain()
}

func (s *PostgresFlowStore) FindNode(ctx context.Context, id kernel.NodeID) (*flow.Node, error) {
	query := `
		SELECT
			id, flow_id, name, node_type, config, position_x, position_y,
			order_index, is_active, created_at, updated_at
		FROM flow_nodes
		WHERE id = $1`

	var row flowinfra.NodeRow
	if err := s.db.GetContext(ctx, &row, query, id.String()); err != nil {
		if err == sql.ErrNoRows {
			return nil, flow.ErrNodeNotFound().WithDetail("node_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find node", errx.TypeInternal).
			WithDetail("node_id", id.String())
	}

	return row.ToDomain()
}

func (s *PostgresFlowStore) FindConnectionsBySource(ctx context.Context, sourceNodeID kernel.NodeID) ([]*flow.Connection, error) {
	query := `
		SELECT
			id, flow_id, source_node_id, target_node_id, source_handle,
			label, is_active, created_at
		FROM flow_connections
		WHERE source_node_id = $1 AND is_active = true`

	var rows []flowinfra.ConnectionRow
	if err := s.db.SelectContext(ctx, &rows, query, sourceNodeID.String()); err != nil {
		return nil, errx.Wrap(err, "failed to find connections", errx.TypeInternal).
			WithDetail("source_node_id", sourceNodeID.String())
	}

	connections := make([]*flow.Connection, 0, len(rows))
	for i := range rows {
		connections = append(connections, rows[i].ToDomain())
	}
	return connections, nil
}
