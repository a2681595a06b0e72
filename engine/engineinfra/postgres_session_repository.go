package engineinfra

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Abraxas-365/craftable/errx"
	"github.com/Abraxas-365/craftable/logx"
	"github.com/Abraxas-365/craftable/storex"
	"github.com/chatflow-io/chatflow/engine"
	"github.com/chatflow-io/chatflow/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

type PostgresSessionRepository struct {
	db *sqlx.DB
}

var _ engine.SessionRepository = (*PostgresSessionRepository)(nil)

func NewPostgresSessionRepository(db *sqlx.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

// dbSession is an intermediate struct for database operations
type dbSession struct {
	ID             string          `db:"id"`
	FlowID         string          `db:"flow_id"`
	PhoneNumber    string          `db:"phone_number"`
	ContactName    sql.NullString  `db:"contact_name"`
	CurrentNodeID  string          `db:"current_node_id"`
	Status         string          `db:"status"`
	MaxRetries     int             `db:"max_retries"`
	MessagesSent   int             `db:"total_messages_sent"`
	MessagesRecv   int             `db:"total_messages_received"`
	SessionData    json.RawMessage `db:"session_data"`
	StartedAt      time.Time       `db:"started_at"`
	LastActivityAt time.Time       `db:"last_activity_at"`
	EndedAt        *time.Time      `db:"ended_at"`
}

func toDBSession(session engine.Session) (*dbSession, error) {
	dataJSON, err := json.Marshal(session.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session data: %w", err)
	}

	return &dbSession{
		ID:             session.ID.String(),
		FlowID:         session.FlowID.String(),
		PhoneNumber:    session.PhoneNumber,
		ContactName:    sql.NullString{String: session.ContactName, Valid: session.ContactName != ""},
		CurrentNodeID:  session.CurrentNodeID.String(),
		Status:         string(session.Status),
		MaxRetries:     session.MaxRetries,
		MessagesSent:   session.TotalMessagesSent,
		MessagesRecv:   session.TotalMessagesReceived,
		SessionData:    dataJSON,
		StartedAt:      session.StartedAt,
		LastActivityAt: session.LastActivityAt,
		EndedAt:        session.EndedAt,
	}, nil
}

func toDomainSession(dbSess *dbSession) (*engine.Session, error) {
	var data engine.SessionData
	if len(dbSess.SessionData) > 0 && string(dbSess.SessionData) != "null" {
		if err := json.Unmarshal(dbSess.SessionData, &data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
		}
	}

	return &engine.Session{
		ID:                    kernel.SessionID(dbSess.ID),
		FlowID:                kernel.FlowID(dbSess.FlowID),
		PhoneNumber:           dbSess.PhoneNumber,
		ContactName:           dbSess.ContactName.String,
		CurrentNodeID:         kernel.NodeID(dbSess.CurrentNodeID),
		Status:                engine.SessionStatus(dbSess.Status),
		MaxRetries:            dbSess.MaxRetries,
		TotalMessagesSent:     dbSess.MessagesSent,
		TotalMessagesReceived: dbSess.MessagesRecv,
		Data:                  data,
		StartedAt:             dbSess.StartedAt,
		LastActivityAt:        dbSess.LastActivityAt,
		EndedAt:               dbSess.EndedAt,
	}, nil
}

func (r *PostgresSessionRepository) Save(ctx context.Context, session engine.Session) error {
	exists, err := r.sessionExists(ctx, session.ID.String())
	if err != nil {
		return errx.Wrap(err, "failed to check session existence", errx.TypeInternal)
	}

	if exists {
		return r.update(ctx, session)
	}
	return r.create(ctx, session)
}

func (r *PostgresSessionRepository) sessionExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM chatbot_sessions WHERE id = $1)`
	err := r.db.GetContext(ctx, &exists, query, id)
	return exists, err
}

func (r *PostgresSessionRepository) create(ctx context.Context, session engine.Session) error {
	dbSess, err := toDBSession(session)
	if err != nil {
		return errx.Wrap(err, "failed to convert session", errx.TypeInternal).
			WithDetail("session_id", session.ID.String())
	}

	query := `
		INSERT INTO chatbot_sessions (
			id, flow_id, phone_number, contact_name, current_node_id,
			status, max_retries, total_messages_sent, total_messages_received,
			session_data, started_at, last_activity_at, ended_at
		) VALUES (
			:id, :flow_id, :phone_number, :contact_name, :current_node_id,
			:status, :max_retries, :total_messages_sent, :total_messages_received,
			:session_data, :started_at, :last_activity_at, :ended_at
		)`

	_, err = r.db.NamedExecContext(ctx, query, dbSess)
	if err != nil {
		return errx.Wrap(err, "failed to create session", errx.TypeInternal).
			WithDetail("session_id", session.ID.String())
	}

	return nil
}

func (r *PostgresSessionRepository) update(ctx context.Context, session engine.Session) error {
	dbSess, err := toDBSession(session)
	if err != nil {
		return errx.Wrap(err, "failed to convert session", errx.TypeInternal).
			WithDetail("session_id", session.ID.String())
	}

	query := `
		UPDATE chatbot_sessions SET
			current_node_id = :current_node_id,
			status = :status,
			max_retries = :max_retries,
			total_messages_sent = :total_messages_sent,
			total_messages_received = :total_messages_received,
			session_data = :session_data,
			last_activity_at = :last_activity_at,
			ended_at = :ended_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, dbSess)
	if err != nil {
		return errx.Wrap(err, "failed to update session", errx.TypeInternal).
			WithDetail("session_id", session.ID.String())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}

	if rowsAffected == 0 {
		return engine.ErrSessionNotFound().WithDetail("session_id", session.ID.String())
	}

	return nil
}

func (r *PostgresSessionRepository) FindByID(ctx context.Context, id kernel.SessionID) (*engine.Session, error) {
	query := `
		SELECT
			id, flow_id, phone_number, contact_name, current_node_id,
			status, max_retries, total_messages_sent, total_messages_received,
			session_data, started_at, last_activity_at, ended_at
		FROM chatbot_sessions
		WHERE id = $1`

	var dbSess dbSession
	err := r.db.GetContext(ctx, &dbSess, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, engine.ErrSessionNotFound().WithDetail("session_id", id.String())
		}
		logx.Error("Error fetching session by ID: %v", err)
		return nil, errx.Wrap(err, "failed to find session by id", errx.TypeInternal).
			WithDetail("session_id", id.String())
	}

	return toDomainSession(&dbSess)
}

func (r *PostgresSessionRepository) Delete(ctx context.Context, id kernel.SessionID) error {
	query := `DELETE FROM chatbot_sessions WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id.String())
	if err != nil {
		return errx.Wrap(err, "failed to delete session", errx.TypeInternal).
			WithDetail("session_id", id.String())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}

	if rowsAffected == 0 {
		return engine.ErrSessionNotFound().WithDetail("session_id", id.String())
	}

	return nil
}

func (r *PostgresSessionRepository) FindLiveByPhone(ctx context.Context, phoneNumber string) (*engine.Session, error) {
	query := `
		SELECT
			id, flow_id, phone_number, contact_name, current_node_id,
			status, max_retries, total_messages_sent, total_messages_received,
			session_data, started_at, last_activity_at, ended_at
		FROM chatbot_sessions
		WHERE phone_number = $1 AND status IN ('active', 'waiting_input')
		ORDER BY started_at DESC
		LIMIT 1`

	var dbSess dbSession
	err := r.db.GetContext(ctx, &dbSess, query, phoneNumber)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logx.Error("Error fetching live session by phone: %v", err)
		return nil, errx.Wrap(err, "failed to find live session", errx.TypeInternal).
			WithDetail("phone_number", phoneNumber)
	}

	return toDomainSession(&dbSess)
}

func (r *PostgresSessionRepository) ExistsByPhone(ctx context.Context, phoneNumber string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM chatbot_sessions WHERE phone_number = $1)`
	err := r.db.GetContext(ctx, &exists, query, phoneNumber)
	if err != nil {
		return false, errx.Wrap(err, "failed to check sessions by phone", errx.TypeInternal).
			WithDetail("phone_number", phoneNumber)
	}
	return exists, nil
}

func (r *PostgresSessionRepository) FindIdleSince(ctx context.Context, cutoff time.Time) ([]*engine.Session, error) {
	query := `
		SELECT
			id, flow_id, phone_number, contact_name, current_node_id,
			status, max_retries, total_messages_sent, total_messages_received,
			session_data, started_at, last_activity_at, ended_at
		FROM chatbot_sessions
		WHERE status IN ('active', 'waiting_input') AND last_activity_at < $1`

	var dbSessions []dbSession
	err := r.db.SelectContext(ctx, &dbSessions, query, cutoff)
	if err != nil {
		logx.Error("Error fetching idle sessions: %v", err)
		return nil, errx.Wrap(err, "failed to find idle sessions", errx.TypeInternal)
	}

	sessions := make([]*engine.Session, 0, len(dbSessions))
	for i := range dbSessions {
		session, err := toDomainSession(&dbSessions[i])
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	return sessions, nil
}

func (r *PostgresSessionRepository) List(ctx context.Context, req engine.SessionListRequest) (engine.SessionListResponse, error) {
	var conditions []string
	var args []any
	argPos := 1

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}

	if req.FlowID != nil {
		conditions = append(conditions, fmt.Sprintf("flow_id = $%d", argPos))
		args = append(args, req.FlowID.String())
		argPos++
	}

	if req.PhoneNumber != "" {
		conditions = append(conditions, fmt.Sprintf("phone_number = $%d", argPos))
		args = append(args, req.PhoneNumber)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM chatbot_sessions %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return engine.SessionListResponse{}, errx.Wrap(err, "failed to count sessions", errx.TypeInternal)
	}

	query := fmt.Sprintf(`
		SELECT
			id, flow_id, phone_number, contact_name, current_node_id,
			status, max_retries, total_messages_sent, total_messages_received,
			session_data, started_at, last_activity_at, ended_at
		FROM chatbot_sessions
		%s
		ORDER BY last_activity_at DESC
		LIMIT $%d OFFSET $%d`, whereClause, argPos, argPos+1)

	args = append(args, req.PageSize, req.GetOffset())

	var dbSessions []dbSession
	if err := r.db.SelectContext(ctx, &dbSessions, query, args...); err != nil {
		return engine.SessionListResponse{}, errx.Wrap(err, "failed to list sessions", errx.TypeInternal)
	}

	sessions := make([]engine.Session, 0, len(dbSessions))
	for i := range dbSessions {
		session, err := toDomainSession(&dbSessions[i])
		if err != nil {
			return engine.SessionListResponse{}, err
		}
		sessions = append(sessions, *session)
	}

	return storex.NewPaginated(sessions, total, req.Page, req.PageSize), nil
}

func (r *PostgresSessionRepository) CountByStatus(ctx context.Context, status engine.SessionStatus) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM chatbot_sessions WHERE status = $1`
	err := r.db.GetContext(ctx, &count, query, string(status))
	if err != nil {
		return 0, errx.Wrap(err, "failed to count sessions by status", errx.TypeInternal)
	}
	return count, nil
}
