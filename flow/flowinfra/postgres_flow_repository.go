package flowinfra

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Abraxas-365/craftable/errx"
	"github.com/Abraxas-365/craftable/logx"
	"github.com/Abraxas-365/craftable/storex"
	"github.com/chatflow-io/chatflow/flow"
	"github.com/chatflow-io/chatflow/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

type PostgresFlowRepository struct {
	db *sqlx.DB
}

var _ flow.FlowRepository = (*PostgresFlowRepository)(nil)

func NewPostgresFlowRepository(db *sqlx.DB) *PostgresFlowRepository {
	return &PostgresFlowRepository{db: db}
}

func (r *PostgresFlowRepository) Save(ctx context.Context, f flow.Flow) error {
	exists, err := r.flowExists(ctx, f.ID.String())
	if err != nil {
		return errx.Wrap(err, "failed to check flow existence", errx.TypeInternal)
	}

	if exists {
		return r.update(ctx, f)
	}
	return r.create(ctx, f)
}

func (r *PostgresFlowRepository) flowExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM chatbot_flows WHERE id = $1)`
	err := r.db.GetContext(ctx, &exists, query, id)
	return exists, err
}

func (r *PostgresFlowRepository) create(ctx context.Context, f flow.Flow) error {
	query := `
		INSERT INTO chatbot_flows (
			id, name, description, trigger_type, trigger_keywords,
			status, priority, is_active, created_at, updated_at
		) VALUES (
			:id, :name, :description, :trigger_type, :trigger_keywords,
			:status, :priority, :is_active, :created_at, :updated_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, ToFlowRow(f))
	if err != nil {
		return errx.Wrap(err, "failed to create flow", errx.TypeInternal).
			WithDetail("flow_id", f.ID.String())
	}

	return nil
}

func (r *PostgresFlowRepository) update(ctx context.Context, f flow.Flow) error {
	query := `
		UPDATE chatbot_flows SET
			name = :name,
			description = :description,
			trigger_type = :trigger_type,
			trigger_keywords = :trigger_keywords,
			status = :status,
			priority = :priority,
			is_active = :is_active,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, ToFlowRow(f))
	if err != nil {
		return errx.Wrap(err, "failed to update flow", errx.TypeInternal).
			WithDetail("flow_id", f.ID.String())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}

	if rowsAffected == 0 {
		return flow.ErrFlowNotFound().WithDetail("flow_id", f.ID.String())
	}

	return nil
}

func (r *PostgresFlowRepository) FindByID(ctx context.Context, id kernel.FlowID) (*flow.Flow, error) {
	query := `
		SELECT
			id, name, description, trigger_type, trigger_keywords,
			status, priority, is_active, created_at, updated_at
		FROM chatbot_flows
		WHERE id = $1`

	var row FlowRow
	err := r.db.GetContext(ctx, &row, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, flow.ErrFlowNotFound().WithDetail("flow_id", id.String())
		}
		logx.Error("Error fetching flow by ID: %v", err)
		return nil, errx.Wrap(err, "failed to find flow by id", errx.TypeInternal).
			WithDetail("flow_id", id.String())
	}

	return row.ToDomain(), nil
}

func (r *PostgresFlowRepository) Delete(ctx context.Context, id kernel.FlowID) error {
	query := `DELETE FROM chatbot_flows WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id.String())
	if err != nil {
		return errx.Wrap(err, "failed to delete flow", errx.TypeInternal).
			WithDetail("flow_id", id.String())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}

	if rowsAffected == 0 {
		return flow.ErrFlowNotFound().WithDetail("flow_id", id.String())
	}

	return nil
}

func (r *PostgresFlowRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM chatbot_flows WHERE name = $1)`
	err := r.db.GetContext(ctx, &exists, query, name)
	if err != nil {
		return false, errx.Wrap(err, "failed to check flow by name", errx.TypeInternal).
			WithDetail("name", name)
	}
	return exists, nil
}

func (r *PostgresFlowRepository) FindRunnable(ctx context.Context) ([]*flow.Flow, error) {
	query := `
		SELECT
			id, name, description, trigger_type, trigger_keywords,
			status, priority, is_active, created_at, updated_at
		FROM chatbot_flows
		WHERE status = 'active' AND is_active = true
		ORDER BY priority DESC`

	var rows []FlowRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		logx.Error("Error fetching runnable flows: %v", err)
		return nil, errx.Wrap(err, "failed to find runnable flows", errx.TypeInternal)
	}

	flows := make([]*flow.Flow, 0, len(rows))
	for i := range rows {
		flows = append(flows, rows[i].ToDomain())
	}
	return flows, nil
}

func (r *PostgresFlowRepository) FindByTriggerType(ctx context.Context, triggerType flow.TriggerType) ([]*flow.Flow, error) {
	query := `
		SELECT
			id, name, description, trigger_type, trigger_keywords,
			status, priority, is_active, created_at, updated_at
		FROM chatbot_flows
		WHERE trigger_type = $1
		ORDER BY priority DESC`

	var rows []FlowRow
	if err := r.db.SelectContext(ctx, &rows, query, string(triggerType)); err != nil {
		return nil, errx.Wrap(err, "failed to find flows by trigger type", errx.TypeInternal).
			WithDetail("trigger_type", string(triggerType))
	}

	flows := make([]*flow.Flow, 0, len(rows))
	for i := range rows {
		flows = append(flows, rows[i].ToDomain())
	}
	return flows, nil
}

func (r *PostgresFlowRepository) List(ctx context.Context, req flow.FlowListRequest) (flow.FlowListResponse, error) {
	var conditions []string
	var args []any
	argPos := 1

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}

	if req.TriggerType != nil {
		conditions = append(conditions, fmt.Sprintf("trigger_type = $%d", argPos))
		args = append(args, string(*req.TriggerType))
		argPos++
	}

	if req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+req.Search+"%")
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM chatbot_flows %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return flow.FlowListResponse{}, errx.Wrap(err, "failed to count flows", errx.TypeInternal)
	}

	query := fmt.Sprintf(`
		SELECT
			id, name, description, trigger_type, trigger_keywords,
			status, priority, is_active, created_at, updated_at
		FROM chatbot_flows
		%s
		ORDER BY priority DESC, created_at DESC
		LIMIT $%d OFFSET $%d`, whereClause, argPos, argPos+1)

	args = append(args, req.PageSize, req.GetOffset())

	var rows []FlowRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return flow.FlowListResponse{}, errx.Wrap(err, "failed to list flows", errx.TypeInternal)
	}

	flows := make([]flow.Flow, 0, len(rows))
	for i := range rows {
		flows = append(flows, *rows[i].ToDomain())
	}

	return storex.NewPaginated(flows, total, req.Page, req.PageSize), nil
}
