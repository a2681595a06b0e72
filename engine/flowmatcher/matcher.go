package flowmatcher

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/chatflow-io/chatflow/engine"
	"github.com/chatflow-io/chatflow/flow"
)

// ============================================================================
// Flow Matcher
// ============================================================================

// Matcher decide qué flujo atiende un mensaje sin sesión activa.
//
// Matching order: keyword triggers by descending priority, then the
// welcome flow for first-time contacts, then the default flow.
type Matcher struct {
	flowStore engine.FlowStore
	sessions  engine.SessionRepository
}

func New(flowStore engine.FlowStore, sessions engine.SessionRepository) *Matcher {
	return &Matcher{flowStore: flowStore, sessions: sessions}
}

// Match encuentra el flujo para el mensaje, o ErrNoMatchingFlow
func (m *Matcher) Match(ctx context.Context, messageText, phoneNumber string) (*flow.Flow, error) {
	flows, err := m.flowStore.FindRunnableFlows(ctx)
	if err != nil {
		return nil, err
	}

	// Mayor prioridad primero
	sort.SliceStable(flows, func(i, j int) bool {
		return flows[i].Priority > flows[j].Priority
	})

	lowerMessage := strings.ToLower(strings.TrimSpace(messageText))

	// 1. Keyword triggers
	for _, f := range flows {
		if f.MatchesKeyword(lowerMessage) {
			log.Printf("🔍 Matched keyword flow %q for %s", f.Name, phoneNumber)
			return f, nil
		}
	}

	// 2. Welcome flow para contactos nuevos
	known, err := m.sessions.ExistsByPhone(ctx, phoneNumber)
	if err != nil {
		return nil, err
	}
	if !known {
		for _, f := range flows {
			if f.TriggerType == flow.TriggerTypeWelcome {
				log.Printf("🔍 Matched welcome flow %q for %s", f.Name, phoneNumber)
				return f, nil
			}
		}
	}

	// 3. Default flow
	for _, f := range flows {
		if f.TriggerType == flow.TriggerTypeDefault {
			log.Printf("🔍 Matched default flow %q for %s", f.Name, phoneNumber)
			return f, nil
		}
	}

	return nil, engine.ErrNoMatchingFlow().WithDetail("phone_number", phoneNumber)
}
