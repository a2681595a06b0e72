package flowinfra

import (
	"context"
	"database/sql"

	"github.com/Abraxas-365/craftable/errx"
	"github.com/chatflow-io/chatflow/flow"
	"github.com/chatflow-io/chatflow/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

type PostgresConnectionRepository struct {
	db *sqlx.DB
}

var _ flow.ConnectionRepository = (*PostgresConnectionRepository)(nil)

func NewPostgresConnectionRepository(db *sqlx.DB) *PostgresConnectionRepository {
	return &PostgresConnectionRepository{db: db}
}

func (r *PostgresConnectionRepository) Save(ctx context.Context, c flow.Connection) error {
	exists, err := r.connectionExists(ctx, c.ID.String())
	if err != nil {
		return errx.Wrap(err, "failed to check connection existence", errx.TypeInternal)
	}

	if exists {
		return r.update(ctx, c)
	}
	return r.create(ctx, c)
}

func (r *PostgresConnectionRepository) connectionExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM flow_connections WHERE id = $1)`
	err := r.db.GetContext(ctx, &exists, query, id)
	return exists, err
}

func (r *PostgresConnectionRepository) create(ctx context.Context, c flow.Connection) error {
	query := `
		INSERT INTO flow_connections (
			id, flow_id, source_node_id, target_node_id, source_handle,
			label, is_active, created_at
		) VALUES (
			:id, :flow_id, :source_node_id, :target_node_id, :source_handle,
			:label, :is_active, :created_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, ToConnectionRow(c))
	if err != nil {
		return errx.Wrap(err, "failed to create connection", errx.TypeInternal).
			WithDetail("connection_id", c.ID.String())
	}

	return nil
}

func (r *PostgresConnectionRepository) update(ctx context.Context, c flow.Connection) error {
	query := `
		UPDATE flow_connections SET
			source_node_id = :source_node_id,
			target_node_id = :target_node_id,
			source_handle = :source_handle,
			label = :label,
			is_active = :is_active
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, ToConnectionRow(c))
	if err != nil {
		return errx.Wrap(err, "failed to update connection", errx.TypeInternal).
			WithDetail("connection_id", c.ID.String())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}

	if rowsAffected == 0 {
		return flow.ErrConnectionNotFound().WithDetail("connection_id", c.ID.String())
	}

	return nil
}

func (r *PostgresConnectionRepository) FindByID(ctx context.Context, id kernel.ConnectionID) (*flow.Connection, error) {
	query := `
		SELECT
			id, flow_id, source_node_id, target_node_id, source_handle,
			label, is_active, created_at
		FROM flow_connections
		WHERE id = $1`

	var row ConnectionRow
	err := r.db.GetContext(ctx, &row, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, flow.ErrConnectionNotFound().WithDetail("connection_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find connection by id", errx.TypeInternal).
			WithDetail("connection_id", id.String())
	}

	return row.ToDomain(), nil
}

func (r *PostgresConnectionRepository) Delete(ctx context.Context, id kernel.ConnectionID) error {
	query := `DELETE FROM flow_connections WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id.String())
	if err != nil {
		return errx.Wrap(err, "failed to delete connection", errx.TypeInternal).
			WithDetail("connection_id", id.String())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}

	if rowsAffected == 0 {
		return flow.ErrConnectionNotFound().WithDetail("connection_id", id.String())
	}

	return nil
}

func (r *PostgresConnectionRepository) FindByFlow(ctx context.Context, flowID kernel.FlowID) ([]*flow.Connection, error) {
	query := `
		SELECT
			id, flow_id, source_node_id, target_node_id, source_handle,
			label, is_active, created_at
		FROM flow_connections
		WHERE flow_id = $1`

	var rows []ConnectionRow
	if err := r.db.SelectContext(ctx, &rows, query, flowID.String()); err != nil {
		return nil, errx.Wrap(err, "failed to find connections by flow", errx.TypeInternal).
			WithDetail("flow_id", flowID.String())
	}

	connections := make([]*flow.Connection, 0, len(rows))
	for i := range rows {
		connections = append(connections, rows[i].ToDomain())
	}
	return connections, nil
}

func (r *PostgresConnectionRepository) FindBySource(ctx context.Context, sourceNodeID kernel.NodeID) ([]*flow.Connection, error) {
	query := `
		SELECT
			id, flow_id, source_node_id, target_node_id, source_handle,
			label, is_active, created_at
		FROM flow_connections
		WHERE source_node_id = $1 AND is_active = true`

	var rows []ConnectionRow
	if err := r.db.SelectContext(ctx, &rows, query, sourceNodeID.String()); err != nil {
		return nil, errx.Wrap(err, "failed to find connections by source", errx.TypeInternal).
			WithDetail("source_node_id", sourceNodeID.String())
	}

	connections := make([]*flow.Connection, 0, len(rows))
	for i := range rows {
		connections = append(connections, rows[i].ToDomain())
	}
	return connections, nil
}

func (r *PostgresConnectionRepository) ExistsBySourceAndHandle(ctx context.Context, sourceNodeID kernel.NodeID, handle string) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM flow_connections
			WHERE source_node_id = $1 AND source_handle = $2 AND is_active = true
		)`
	err := r.db.GetContext(ctx, &exists, query, sourceNodeID.String(), handle)
	if err != nil {
		return false, errx.Wrap(err, "failed to check connection by handle", errx.TypeInternal).
			WithDetail("source_node_id", sourceNodeID.String())
	}
	return exists, nil
}
