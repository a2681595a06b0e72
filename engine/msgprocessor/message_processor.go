package msgprocessor

import (
	"context"
	"log"

	"github.com/Abraxas-365/craftable/errx"
	"github.com/chatflow-io/chatflow/engine"
	"github.com/chatflow-io/chatflow/engine/flowmatcher"
	"github.com/chatflow-io/chatflow/flow"
)

// ============================================================================
// Message Processor
// ============================================================================

// Processor punto de entrada de mensajes entrantes: retoma la sesión
// viva del contacto o arranca un flujo nuevo.
type Processor struct {
	sessions   engine.SessionRepository
	flowStore  engine.FlowStore
	matcher    *flowmatcher.Matcher
	executor   engine.FlowExecutor
	gateway    engine.MessagingGateway
	locker     engine.SessionLocker
	maxRetries int
}

var _ engine.MessageProcessor = (*Processor)(nil)

func New(
	sessions engine.SessionRepository,
	flowStore engine.FlowStore,
	matcher *flowmatcher.Matcher,
	executor engine.FlowExecutor,
	gateway engine.MessagingGateway,
	locker engine.SessionLocker,
	maxRetries int,
) *Processor {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Processor{
		sessions:   sessions,
		flowStore:  flowStore,
		matcher:    matcher,
		executor:   executor,
		gateway:    gateway,
		locker:     locker,
		maxRetries: maxRetries,
	}
}

// ProcessMessage procesa un mensaje entrante de un contacto. Messages
// for the same phone number are serialized through the session lock.
func (p *Processor) ProcessMessage(ctx context.Context, msg engine.InboundMessage) error {
	acquired, err := p.locker.TryLock(ctx, msg.From)
	if err != nil {
		return err
	}
	if !acquired {
		log.Printf("⏸️ Message from %s dropped: contact is locked", msg.From)
		return engine.ErrSessionLocked().WithDetail("phone_number", msg.From)
	}
	defer func() {
		if err := p.locker.Unlock(context.WithoutCancel(ctx), msg.From); err != nil {
			log.Printf("❌ Failed to unlock %s: %v", msg.From, err)
		}
	}()

	session, err := p.sessions.FindLiveByPhone(ctx, msg.From)
	if err != nil {
		return err
	}

	if session != nil {
		return p.continueSession(ctx, session, msg)
	}
	return p.startNewSession(ctx, msg)
}

// ============================================================================
// New Sessions
// ============================================================================

func (p *Processor) startNewSession(ctx context.Context, msg engine.InboundMessage) error {
	matched, err := p.matcher.Match(ctx, msg.InputValue(), msg.From)
	if err != nil {
		if errx.IsType(err, errx.TypeBusiness) {
			log.Printf("🔍 No flow matched message from %s", msg.From)
			return nil
		}
		return err
	}

	startNode, err := p.flowStore.FindStartNode(ctx, matched.ID)
	if err != nil {
		return err
	}

	session := engine.NewSession(matched.ID, startNode.ID, msg.From, msg.ContactName, msg.InputValue())
	session.MaxRetries = p.maxRetries
	session.RecordInput(msg.InputValue(), string(msg.Kind))

	if err := p.sessions.Save(ctx, *session); err != nil {
		return err
	}

	log.Printf("🚀 Starting flow %q for %s (session %s)", matched.Name, msg.From, session.ID)

	return p.executor.Execute(ctx, session)
}

// ============================================================================
// Existing Sessions
// ============================================================================

func (p *Processor) continueSession(ctx context.Context, session *engine.Session, msg engine.InboundMessage) error {
	session.RecordInput(msg.InputValue(), string(msg.Kind))

	switch msg.Kind {
	case engine.InboundButton:
		session.SetVariable("last_button_id", msg.ButtonID)
		session.SetVariable("last_button_title", msg.ButtonTitle)
	case engine.InboundList:
		session.SetVariable("last_list_id", msg.ListID)
		session.SetVariable("last_list_title", msg.ListTitle)
	}

	if session.Status == engine.SessionStatusWaitingInput {
		return p.handleUserInput(ctx, session, msg)
	}

	// Sesión activa sin espera pendiente: seguir por default
	return p.executor.Advance(ctx, session, flow.HandleDefault)
}

func (p *Processor) handleUserInput(ctx context.Context, session *engine.Session, msg engine.InboundMessage) error {
	switch session.Data.WaitingFor {
	case engine.WaitingText:
		return p.handleTextInput(ctx, session, msg)

	case engine.WaitingButton, engine.WaitingList:
		// El id de la opción elegida es el handle de la arista
		handle := msg.ReplyID()
		if handle == "" {
			handle = msg.Text
		}
		session.ResumeFromInput()
		return p.executor.Advance(ctx, session, handle)

	default:
		session.ResumeFromInput()
		return p.executor.Advance(ctx, session, flow.HandleDefault)
	}
}

func (p *Processor) handleTextInput(ctx context.Context, session *engine.Session, msg engine.InboundMessage) error {
	input := msg.InputValue()

	result := engine.ValidateInput(input, session.Data.Validation)
	if !result.Valid {
		session.Data.RetryCount++

		if session.Data.RetryCount >= session.MaxRetries {
			log.Printf("🚫 Session %s abandoned after %d invalid answers", session.ID, session.Data.RetryCount)
			session.Abandon()
			return p.sessions.Save(ctx, *session)
		}

		errorMessage := session.Data.ErrorMessage
		if errorMessage == "" {
			errorMessage = result.Message
		}
		if err := p.gateway.SendText(ctx, session.PhoneNumber, errorMessage); err != nil {
			log.Printf("❌ Validation message to %s failed: %v", session.PhoneNumber, err)
		} else {
			session.RecordOutbound()
		}

		return p.sessions.Save(ctx, *session)
	}

	if session.Data.WaitingVariable != "" {
		session.SetVariable(session.Data.WaitingVariable, input)
	}
	session.ResumeFromInput()

	return p.executor.Advance(ctx, session, flow.HandleDefault)
}
