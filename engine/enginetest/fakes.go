// Package enginetest provee dobles en memoria para probar el motor
// sin Postgres ni Redis.
package enginetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Abraxas-365/craftable/storex"
	"github.com/chatflow-io/chatflow/engine"
	"github.com/chatflow-io/chatflow/flow"
	"github.com/chatflow-io/chatflow/pkg/kernel"
)

// ============================================================================
// Flow Store
// ============================================================================

// MemoryFlowStore grafo de flujos en memoria
type MemoryFlowStore struct {
	Flows       []*flow.Flow
	Nodes       []*flow.Node
	Connections []*flow.Connection
}

var _ engine.FlowStore = (*MemoryFlowStore)(nil)

func NewMemoryFlowStore() *MemoryFlowStore {
	return &MemoryFlowStore{}
}

func (s *MemoryFlowStore) AddFlow(f *flow.Flow) *MemoryFlowStore {
	s.Flows = append(s.Flows, f)
	return s
}

func (s *MemoryFlowStore) AddNode(n *flow.Node) *MemoryFlowStore {
	s.Nodes = append(s.Nodes, n)
	return s
}

// Connect agrega una arista activa entre dos nodos
func (s *MemoryFlowStore) Connect(flowID kernel.FlowID, source, target kernel.NodeID, handle string) *MemoryFlowStore {
	s.Connections = append(s.Connections, &flow.Connection{
		ID:           kernel.NewConnectionID(string(source) + "->" + string(target) + ":" + handle),
		FlowID:       flowID,
		SourceNodeID: source,
		TargetNodeID: target,
		SourceHandle: handle,
		IsActive:     true,
		CreatedAt:    time.Now(),
	})
	return s
}

func (s *MemoryFlowStore) FindRunnableFlows(ctx context.Context) ([]*flow.Flow, error) {
	var runnable []*flow.Flow
	for _, f := range s.Flows {
		if f.IsRunnable() {
			runnable = append(runnable, f)
		}
	}
	sort.SliceStable(runnable, func(i, j int) bool {
		return runnable[i].Priority > runnable[j].Priority
	})
	return runnable, nil
}

func (s *MemoryFlowStore) FindFlow(ctx context.Context, id kernel.FlowID) (*flow.Flow, error) {
	for _, f := range s.Flows {
		if f.ID == id {
			return f, nil
		}
	}
	return nil, flow.ErrFlowNotFound().WithDetail("flow_id", id.String())
}

func (s *MemoryFlowStore) FindStartNode(ctx context.Context, flowID kernel.FlowID) (*flow.Node, error) {
	for _, n := range s.Nodes {
		if n.FlowID == flowID && n.Type == flow.NodeTypeStart && n.IsActive {
			return n, nil
		}
	}
	return nil, flow.ErrMissingStartNode().WithDetail("flow_id", flowID.String())
}

func (s *MemoryFlowStore) FindNode(ctx context.Context, id kernel.NodeID) (*flow.Node, error) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, flow.ErrNodeNotFound().WithDetail("node_id", id.String())
}

func (s *MemoryFlowStore) FindConnectionsBySource(ctx context.Context, sourceNodeID kernel.NodeID) ([]*flow.Connection, error) {
	var connections []*flow.Connection
	for _, c := range s.Connections {
		if c.SourceNodeID == sourceNodeID && c.IsActive {
			connections = append(connections, c)
		}
	}
	return connections, nil
}

// ============================================================================
// Session Repository
// ============================================================================

// MemorySessionRepository sesiones en memoria, indexadas por ID
type MemorySessionRepository struct {
	mu       sync.Mutex
	sessions map[kernel.SessionID]engine.Session
}

var _ engine.SessionRepository = (*MemorySessionRepository)(nil)

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: map[kernel.SessionID]engine.Session{}}
}

func (r *MemorySessionRepository) Save(ctx context.Context, session engine.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = session
	return nil
}

func (r *MemorySessionRepository) FindByID(ctx context.Context, id kernel.SessionID) (*engine.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, engine.ErrSessionNotFound().WithDetail("session_id", id.String())
	}
	return &session, nil
}

func (r *MemorySessionRepository) Delete(ctx context.Context, id kernel.SessionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *MemorySessionRepository) FindLiveByPhone(ctx context.Context, phoneNumber string) (*engine.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var live *engine.Session
	for id := range r.sessions {
		session := r.sessions[id]
		if session.PhoneNumber != phoneNumber || !session.IsLive() {
			continue
		}
		if live == nil || session.StartedAt.After(live.StartedAt) {
			live = &session
		}
	}
	return live, nil
}

func (r *MemorySessionRepository) ExistsByPhone(ctx context.Context, phoneNumber string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions {
		if session.PhoneNumber == phoneNumber {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemorySessionRepository) FindIdleSince(ctx context.Context, cutoff time.Time) ([]*engine.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var idle []*engine.Session
	for id := range r.sessions {
		session := r.sessions[id]
		if session.IsLive() && session.LastActivityAt.Before(cutoff) {
			idle = append(idle, &session)
		}
	}
	return idle, nil
}

func (r *MemorySessionRepository) List(ctx context.Context, req engine.SessionListRequest) (engine.SessionListResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sessions []engine.Session
	for _, session := range r.sessions {
		if req.Status != nil && session.Status != *req.Status {
			continue
		}
		if req.FlowID != nil && session.FlowID != *req.FlowID {
			continue
		}
		if req.PhoneNumber != "" && session.PhoneNumber != req.PhoneNumber {
			continue
		}
		sessions = append(sessions, session)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartedAt.After(sessions[j].StartedAt)
	})
	return storex.NewPaginated(sessions, len(sessions), req.Page, req.PageSize), nil
}

func (r *MemorySessionRepository) CountByStatus(ctx context.Context, status engine.SessionStatus) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, session := range r.sessions {
		if session.Status == status {
			count++
		}
	}
	return count, nil
}

// ============================================================================
// Messaging Gateway
// ============================================================================

// SentMessage un mensaje saliente capturado por el gateway de prueba
type SentMessage struct {
	To      string
	Kind    string // text, buttons, list, media
	Body    string
	Buttons flow.SendButtonsConfig
	List    flow.SendListConfig
	Media   flow.SendMediaConfig
}

// RecorderGateway captura los mensajes salientes en vez de enviarlos
type RecorderGateway struct {
	mu   sync.Mutex
	Sent []SentMessage
	Err  error // returned by every send when set
}

var _ engine.MessagingGateway = (*RecorderGateway)(nil)

func NewRecorderGateway() *RecorderGateway {
	return &RecorderGateway{}
}

func (g *RecorderGateway) SendText(ctx context.Context, to, body string) error {
	if g.Err != nil {
		return g.Err
	}
	g.record(SentMessage{To: to, Kind: "text", Body: body})
	return nil
}

func (g *RecorderGateway) SendButtons(ctx context.Context, to string, msg flow.SendButtonsConfig) error {
	if g.Err != nil {
		return g.Err
	}
	g.record(SentMessage{To: to, Kind: "buttons", Body: msg.Body, Buttons: msg})
	return nil
}

func (g *RecorderGateway) SendList(ctx context.Context, to string, msg flow.SendListConfig) error {
	if g.Err != nil {
		return g.Err
	}
	g.record(SentMessage{To: to, Kind: "list", Body: msg.Body, List: msg})
	return nil
}

func (g *RecorderGateway) SendMedia(ctx context.Context, to string, msg flow.SendMediaConfig) error {
	if g.Err != nil {
		return g.Err
	}
	g.record(SentMessage{To: to, Kind: "media", Media: msg})
	return nil
}

func (g *RecorderGateway) record(msg SentMessage) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Sent = append(g.Sent, msg)
}

// Texts returns the bodies of the captured text messages, in order.
func (g *RecorderGateway) Texts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var texts []string
	for _, msg := range g.Sent {
		if msg.Kind == "text" {
			texts = append(texts, msg.Body)
		}
	}
	return texts
}

// ============================================================================
// Contact Tagger
// ============================================================================

// RecorderTagger captura las operaciones de etiquetado
type RecorderTagger struct {
	mu      sync.Mutex
	Added   []string // "phone:tag"
	Removed []string
}

var _ engine.ContactTagger = (*RecorderTagger)(nil)

func NewRecorderTagger() *RecorderTagger {
	return &RecorderTagger{}
}

func (t *RecorderTagger) AddTag(ctx context.Context, phoneNumber, tag string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Added = append(t.Added, phoneNumber+":"+tag)
	return nil
}

func (t *RecorderTagger) RemoveTag(ctx context.Context, phoneNumber, tag string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Removed = append(t.Removed, phoneNumber+":"+tag)
	return nil
}

// ============================================================================
// Session Locker
// ============================================================================

// MemoryLocker candados por teléfono en memoria
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]bool
}

var _ engine.SessionLocker = (*MemoryLocker)(nil)

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: map[string]bool{}}
}

func (l *MemoryLocker) TryLock(ctx context.Context, phoneNumber string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locks[phoneNumber] {
		return false, nil
	}
	l.locks[phoneNumber] = true
	return true, nil
}

func (l *MemoryLocker) Unlock(ctx context.Context, phoneNumber string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, phoneNumber)
	return nil
}

// Locked reports whether the phone currently holds a lock.
func (l *MemoryLocker) Locked(phoneNumber string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.locks[phoneNumber]
}
