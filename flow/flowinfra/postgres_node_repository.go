package flowinfra

import (
	"context"
	"database/sql"

	"github.com/Abraxas-365/craftable/errx"
	"github.com/chatflow-io/chatflow/flow"
	"github.com/chatflow-io/chatflow/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

type PostgresNodeRepository struct {
	db *sqlx.DB
}

var _ flow.NodeRepository = (*PostgresNodeRepository)(nil)

func NewPostgresNodeRepository(db *sqlx.DB) *PostgresNodeRepository {
	return &PostgresNodeRepository{db: db}
}

func (r *PostgresNodeRepository) Save(ctx context.Context, n flow.Node) error {
	exists, err := r.nodeExists(ctx, n.ID.String())
	if err != nil {
		return errx.Wrap(err, "failed to check node existence", errx.TypeInternal)
	}

	if exists {
		return r.update(ctx, n)
	}
	return r.create(ctx, n)
}

func (r *PostgresNodeRepository) nodeExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM flow_nodes WHERE id = $1)`
	err := r.db.GetContext(ctx, &exists, query, id)
	return exists, err
}

func (r *PostgresNodeRepository) create(ctx context.Context, n flow.Node) error {
	row, err := ToNodeRow(n)
	if err != nil {
		return errx.Wrap(err, "failed to convert node", errx.TypeInternal).
			WithDetail("node_id", n.ID.String())
	}

	query := `
		INSERT INTO flow_nodes (
			id, flow_id, name, node_type, config, position_x, position_y,
			order_index, is_active, created_at, updated_at
		) VALUES (
			:id, :flow_id, :name, :node_type, :config, :position_x, :position_y,
			:order_index, :is_active, :created_at, :updated_at
		)`

	_, err = r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return errx.Wrap(err, "failed to create node", errx.TypeInternal).
			WithDetail("node_id", n.ID.String())
	}

	return nil
}

func (r *PostgresNodeRepository) update(ctx context.Context, n flow.Node) error {
	row, err := ToNodeRow(n)
	if err != nil {
		return errx.Wrap(err, "failed to convert node", errx.TypeInternal).
			WithDetail("node_id", n.ID.String())
	}

	query := `
		UPDATE flow_nodes SET
			name = :name,
			node_type = :node_type,
			config = :config,
			position_x = :position_x,
			position_y = :position_y,
			order_index = :order_index,
			is_active = :is_active,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return errx.Wrap(err, "failed to update node", errx.TypeInternal).
			WithDetail("node_id", n.ID.String())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}

	if rowsAffected == 0 {
		return flow.ErrNodeNotFound().WithDetail("node_id", n.ID.String())
	}

	return nil
}

func (r *PostgresNodeRepository) FindByID(ctx context.Context, id kernel.NodeID) (*flow.Node, error) {
	query := `
		SELECT
			id, flow_id, name, node_type, config, position_x, position_y,
			order_index, is_active, created_at, updated_at
		FROM flow_nodes
		WHERE id = $1`

	var row NodeRow
	err := r.db.GetContext(ctx, &row, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, flow.ErrNodeNotFound().WithDetail("node_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find node by id", errx.TypeInternal).
			WithDetail("node_id", id.String())
	}

	return row.ToDomain()
}

func (r *PostgresNodeRepository) Delete(ctx context.Context, id kernel.NodeID) error {
	query := `DELETE FROM flow_nodes WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id.String())
	if err != nil {
		return errx.Wrap(err, "failed to delete node", errx.TypeInternal).
			WithDetail("node_id", id.String())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}

	if rowsAffected == 0 {
		return flow.ErrNodeNotFound().WithDetail("node_id", id.String())
	}

	return nil
}

func (r *PostgresNodeRepository) FindByFlow(ctx context.Context, flowID kernel.FlowID) ([]*flow.Node, error) {
	query := `
		SELECT
			id, flow_id, name, node_type, config, position_x, position_y,
			order_index, is_active, created_at, updated_at
		FROM flow_nodes
		WHERE flow_id = $1
		ORDER BY order_index ASC, created_at ASC`

	var rows []NodeRow
	if err := r.db.SelectContext(ctx, &rows, query, flowID.String()); err != nil {
		return nil, errx.Wrap(err, "failed to find nodes by flow", errx.TypeInternal).
			WithDetail("flow_id", flowID.String())
	}

	nodes := make([]*flow.Node, 0, len(rows))
	for i := range rows {
		node, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func (r *PostgresNodeRepository) FindStartNode(ctx context.Context, flowID kernel.FlowID) (*flow.Node, error) {
	query := `
		SELECT
			id, flow_id, name, node_type, config, position_x, position_y,
			order_index, is_active, created_at, updated_at
		FROM flow_nodes
		WHERE flow_id = $1 AND node_type = 'start' AND is_active = true
		LIMIT 1`

	var row NodeRow
	err := r.db.GetContext(ctx, &row, query, flowID.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, flow.ErrMissingStartNode().WithDetail("flow_id", flowID.String())
		}
		return nil, errx.Wrap(err, "failed to find start node", errx.TypeInternal).
			WithDetail("flow_id", flowID.String())
	}

	return row.ToDomain()
}

func (r *PostgresNodeRepository) CountByType(ctx context.Context, flowID kernel.FlowID, nodeType flow.NodeType) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM flow_nodes WHERE flow_id = $1 AND node_type = $2 AND is_active = true`
	err := r.db.GetContext(ctx, &count, query, flowID.String(), string(nodeType))
	if err != nil {
		return 0, errx.Wrap(err, "failed to count nodes by type", errx.TypeInternal).
			WithDetail("flow_id", flowID.String())
	}
	return count, nil
}
