// Package engine assembles the registries, the pipeline orchestrator, the
// chain session store, and the notifier into the single façade both
// transports (HTTP and MCP) drive. Construction follows the teacher's
// Config → Complete → New staged pattern (internal/hivemind/server.go).
package engine

import (
	"os"

	"github.com/google/uuid"

	"github.com/forgecrew/promptengine/internal/gateeval"
	"github.com/forgecrew/promptengine/internal/notify"
	frameworkregistry "github.com/forgecrew/promptengine/internal/registry/framework"
	gateregistry "github.com/forgecrew/promptengine/internal/registry/gate"
	promptregistry "github.com/forgecrew/promptengine/internal/registry/prompt"
	styleregistry "github.com/forgecrew/promptengine/internal/registry/style"
	"github.com/forgecrew/promptengine/internal/scriptexec"
	"github.com/forgecrew/promptengine/internal/session"
	"github.com/forgecrew/promptengine/internal/template"
)

// Config is the engine's raw, user-supplied configuration. Callers fill it
// from their parsed command-line flag values; it is not read from viper,
// environment variables or a config file.
type Config struct {
	SessionStorePath     string // boltdb file path; empty uses an in-memory store
	ReloadJournalDir     string
	DefaultFrameworkID   string
	NotifyBufferSize     int
	ScriptTimeoutSeconds int
	WrapWidth            uint

	DefaultInjectSystemPrompt  *bool
	DefaultInjectGateGuidance  *bool
	DefaultInjectStyleGuidance *bool
}

// completedConfig is a Config known to have every field populated, either
// by the caller or by Complete's defaults.
type completedConfig struct {
	*Config
}

// Complete fills in any fields not set that are required to have valid
// data and can be derived from other fields, mirroring the teacher's
// ExtraConfig.complete() idiom.
func (c *Config) Complete() *completedConfig {
	if c.ReloadJournalDir == "" {
		c.ReloadJournalDir = "./data/reload-journals"
	}
	if c.NotifyBufferSize <= 0 {
		c.NotifyBufferSize = 256
	}
	if c.ScriptTimeoutSeconds <= 0 {
		c.ScriptTimeoutSeconds = 30
	}
	return &completedConfig{c}
}

// New builds the fully-wired Engine from a completed Config.
func (c *completedConfig) New() (*Engine, error) {
	if err := os.MkdirAll(c.ReloadJournalDir, 0o755); err != nil {
		return nil, err
	}

	prompts, err := promptregistry.New(c.ReloadJournalDir + "/prompts.journal")
	if err != nil {
		return nil, err
	}
	gates, err := gateregistry.New(c.ReloadJournalDir + "/gates.journal")
	if err != nil {
		return nil, err
	}
	frameworks, err := frameworkregistry.New(c.ReloadJournalDir+"/frameworks.journal", c.DefaultFrameworkID)
	if err != nil {
		return nil, err
	}
	styles, err := styleregistry.New(c.ReloadJournalDir + "/styles.journal")
	if err != nil {
		return nil, err
	}

	var store session.Store
	if c.SessionStorePath != "" {
		store, err = session.NewBoltStore(c.SessionStorePath)
		if err != nil {
			return nil, err
		}
	} else {
		store = session.NewMemStore()
	}

	notifier := notify.New(c.NotifyBufferSize)
	evaluator := gateeval.New()
	executor := scriptexec.NewSubprocessExecutor("")

	renderer := template.NewRenderer(
		makeRefResolver(prompts),
		makeScriptResolver(executor, c.ScriptTimeoutSeconds),
	)

	e := &Engine{
		Prompts:    prompts,
		Gates:      gates,
		Frameworks: frameworks,
		Styles:     styles,
		Store:      store,
		Notifier:   notifier,
		Evaluator:  evaluator,
		Executor:   executor,
		Renderer:   renderer,
		Config:     c.Config,
	}
	return e, nil
}

func newCommandID() string { return uuid.NewString() }
