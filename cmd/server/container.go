package main

import (
	"log"

	"github.com/chatflow-io/chatflow/channels/whatsapp"
	"github.com/chatflow-io/chatflow/contacts"
	"github.com/chatflow-io/chatflow/engine"
	"github.com/chatflow-io/chatflow/engine/engineapi"
	"github.com/chatflow-io/chatflow/engine/engineinfra"
	"github.com/chatflow-io/chatflow/engine/flowexec"
	"github.com/chatflow-io/chatflow/engine/flowmatcher"
	"github.com/chatflow-io/chatflow/engine/msgprocessor"
	"github.com/chatflow-io/chatflow/engine/nodeexec"
	"github.com/chatflow-io/chatflow/engine/sessionlock"
	"github.com/chatflow-io/chatflow/engine/sessmanager"
	"github.com/chatflow-io/chatflow/engine/sweeper"
	"github.com/chatflow-io/chatflow/flow"
	"github.com/chatflow-io/chatflow/flow/flowapi"
	"github.com/chatflow-io/chatflow/flow/flowinfra"
	"github.com/chatflow-io/chatflow/flow/flowsrv"
	"github.com/chatflow-io/chatflow/pkg/config"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
)

// Container contiene todas las dependencias de la aplicación
type Container struct {
	// Core
	Config      *config.Config
	DB          *sqlx.DB
	RedisClient *redis.Client

	// =================================================================
	// FLOW MANAGEMENT 🗂️
	// =================================================================
	FlowRepo       flow.FlowRepository
	NodeRepo       flow.NodeRepository
	ConnectionRepo flow.ConnectionRepository
	FlowService    flow.FlowService
	FlowHandler    *flowapi.Handler

	// =================================================================
	// ENGINE ⚙️
	// =================================================================
	SessionRepo      engine.SessionRepository
	FlowStore        engine.FlowStore
	HandlerRegistry  *nodeexec.Registry
	FlowExecutor     engine.FlowExecutor
	FlowMatcher      *flowmatcher.Matcher
	SessionLocker    engine.SessionLocker
	SessionManager   engine.SessionManager
	MessageProcessor engine.MessageProcessor
	SessionSweeper   *sweeper.Sweeper
	EngineHandler    *engineapi.Handler

	// =================================================================
	// CHANNELS 📡
	// =================================================================
	Gateway        engine.MessagingGateway
	Tagger         engine.ContactTagger
	WebhookHandler *whatsapp.WebhookHandler
}

// NewContainer crea e inicializa el contenedor de dependencias
func NewContainer(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client) *Container {
	container := &Container{
		Config:      cfg,
		DB:          db,
		RedisClient: redisClient,
	}

	// Initialization order matters: channels before the engine, the
	// engine before the sweeper.
	container.initFlowComponents()
	container.initChannelComponents()
	container.initEngineComponents()
	container.initSweeper()

	return container
}

// =================================================================
// FLOW MANAGEMENT INITIALIZATION 🗂️
// =================================================================

func (c *Container) initFlowComponents() {
	log.Println("  🗂️  Initializing flow components...")

	c.FlowRepo = flowinfra.NewPostgresFlowRepository(c.DB)
	c.NodeRepo = flowinfra.NewPostgresNodeRepository(c.DB)
	c.ConnectionRepo = flowinfra.NewPostgresConnectionRepository(c.DB)
	log.Println("    ✅ Flow repositories initialized")

	c.FlowService = flowsrv.New(c.FlowRepo, c.NodeRepo, c.ConnectionRepo)
	log.Println("    ✅ Flow service initialized")

	c.FlowHandler = flowapi.NewHandler(c.FlowService)
	log.Println("    ✅ Flow API handler initialized")

	log.Println("  ✅ Flow components initialized")
}

// =================================================================
// CHANNEL INITIALIZATION 📡
// =================================================================

func (c *Container) initChannelComponents() {
	log.Println("  📡 Initializing channel components...")

	c.Gateway = whatsapp.NewGateway(c.Config.WhatsApp)
	log.Println("    ✅ WhatsApp gateway initialized")

	c.Tagger = contacts.NewPostgresTagger(c.DB)
	log.Println("    ✅ Contact tagger initialized")

	log.Println("  ✅ Channel components initialized")
}

// =================================================================
// ENGINE INITIALIZATION ⚙️ (AFTER CHANNELS)
// =================================================================

func (c *Container) initEngineComponents() {
	log.Println("  ⚙️  Initializing engine components...")

	c.SessionRepo = engineinfra.NewPostgresSessionRepository(c.DB)
	c.FlowStore = engineinfra.NewPostgresFlowStore(c.DB)
	log.Println("    ✅ Engine repositories initialized")

	c.HandlerRegistry = nodeexec.NewRegistry(
		c.Gateway,
		c.Tagger,
		c.FlowStore,
		c.Config.Engine.APICallTimeout,
	)
	log.Println("    ✅ Node handler registry initialized")

	c.FlowExecutor = flowexec.New(c.FlowStore, c.SessionRepo, c.HandlerRegistry)
	log.Println("    ✅ Flow executor initialized")

	c.FlowMatcher = flowmatcher.New(c.FlowStore, c.SessionRepo)
	log.Println("    ✅ Flow matcher initialized")

	c.SessionLocker = sessionlock.NewRedisLocker(c.RedisClient, c.Config.Engine.LockTTL)
	log.Println("    ✅ Session locker initialized")

	c.SessionManager = sessmanager.New(
		c.SessionRepo,
		c.FlowStore,
		c.FlowExecutor,
		c.Config.Engine.DefaultMaxRetry,
	)
	log.Println("    ✅ Session manager initialized")

	// ⚡ Message processor ties matching, locking and execution together
	c.MessageProcessor = msgprocessor.New(
		c.SessionRepo,
		c.FlowStore,
		c.FlowMatcher,
		c.FlowExecutor,
		c.Gateway,
		c.SessionLocker,
		c.Config.Engine.DefaultMaxRetry,
	)
	log.Println("    ✅ Message processor initialized")

	c.EngineHandler = engineapi.NewHandler(c.SessionManager)
	log.Println("    ✅ Engine API handler initialized")

	c.WebhookHandler = whatsapp.NewWebhookHandler(c.Config.WhatsApp, c.MessageProcessor)
	log.Println("    ✅ WhatsApp webhook handler initialized")

	log.Println("  ✅ Engine components initialized")
}

// =================================================================
// SWEEPER INITIALIZATION 🧹
// =================================================================

func (c *Container) initSweeper() {
	c.SessionSweeper = sweeper.New(
		c.SessionManager,
		c.Config.Engine.SessionTimeout,
		c.Config.Engine.SweepInterval,
	)
	log.Println("    ✅ Session sweeper initialized")
}

// Cleanup libera los recursos del contenedor
func (c *Container) Cleanup() {
	log.Println("🧹 Cleaning up container resources...")

	if c.SessionSweeper != nil {
		c.SessionSweeper.Stop()
	}

	if c.DB != nil {
		log.Println("  🗄️  Closing database connections...")
		c.DB.Close()
	}

	if c.RedisClient != nil {
		log.Println("  🔴 Closing Redis connections...")
		c.RedisClient.Close()
	}

	log.Println("✅ Container cleanup complete")
}

// HealthCheck verifica el estado de las dependencias
func (c *Container) HealthCheck() map[string]bool {
	health := make(map[string]bool)

	if c.DB != nil {
		health["database"] = c.DB.Ping() == nil
	} else {
		health["database"] = false
	}

	if c.RedisClient != nil {
		health["redis"] = c.RedisClient.Ping(c.RedisClient.Context()).Err() == nil
	} else {
		health["redis"] = false
	}

	health["flow_service"] = c.FlowService != nil
	health["flow_executor"] = c.FlowExecutor != nil
	health["message_processor"] = c.MessageProcessor != nil
	health["session_manager"] = c.SessionManager != nil
	health["gateway"] = c.Gateway != nil
	health["sweeper"] = c.SessionSweeper != nil

	return health
}

func (c *Container) GetServiceNames() []string {
	return []string{
		"FlowService",
		"FlowExecutor",
		"FlowMatcher",
		"SessionManager",
		"MessageProcessor",
		"SessionSweeper",
		"WhatsAppGateway",
	}
}

func (c *Container) GetRepositoryNames() []string {
	return []string{
		"FlowRepo",
		"NodeRepo",
		"ConnectionRepo",
		"SessionRepo",
		"FlowStore",
	}
}
