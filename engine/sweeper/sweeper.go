package sweeper

import (
	"context"
	"log"
	"time"

	"github.com/chatflow-io/chatflow/engine"
	"github.com/robfig/cron/v3"
)

// ============================================================================
// Idle Session Sweeper
// ============================================================================

// Sweeper abandona periódicamente las sesiones vivas sin actividad
type Sweeper struct {
	manager  engine.SessionManager
	timeout  time.Duration
	interval time.Duration
	cron     *cron.Cron
}

func New(manager engine.SessionManager, timeout, interval time.Duration) *Sweeper {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		manager:  manager,
		timeout:  timeout,
		interval: interval,
		cron:     cron.New(),
	}
}

// Start programa el barrido periódico
func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc("@every "+s.interval.String(), s.sweep)
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("🧹 Session sweeper started (timeout: %s, every %s)", s.timeout, s.interval)
	return nil
}

// Stop detiene el barrido y espera al job en curso
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("🧹 Session sweeper stopped")
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.manager.AbandonIdleSessions(ctx, s.timeout); err != nil {
		log.Printf("❌ Idle session sweep failed: %v", err)
	}
}
