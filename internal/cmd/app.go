package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/orgogpt/orgogpt/internal/config"
	"github.com/orgogpt/orgogpt/internal/lifecycle"
	"github.com/orgogpt/orgogpt/internal/project"
	"github.com/orgogpt/orgogpt/internal/session"
	"github.com/orgogpt/orgogpt/internal/task"
	"github.com/orgogpt/orgogpt/internal/translate"
	"github.com/orgogpt/orgogpt/internal/vm"
)

// app is everything one CLI invocation needs, wired from config. provider
// and manager are nil when the command did not ask for them.
type app struct {
	cfg      *config.Config
	provider vm.Provider
	store    *session.Store
	history  *session.History
	manager  *lifecycle.Manager
}

func newApp(needProvider bool) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	Debug("Config loaded successfully")

	storeDir := cfg.Session.StoreDir
	if offline {
		// Keep offline identifiers away from real ones.
		storeDir = filepath.Join(storeDir, "offline")
	}
	store, err := session.NewStore(storeDir)
	if err != nil {
		return nil, fmt.Errorf("failed to access project store: %w", err)
	}

	history, err := session.NewHistory(cfg.History.Path, cfg.History.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to access task history: %w", err)
	}

	a := &app{cfg: cfg, store: store, history: history}
	if !needProvider {
		return a, nil
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}

	a.provider = provider
	a.manager = lifecycle.NewManager(lifecycle.Options{
		Provider:     provider,
		Store:        store,
		Runner:       task.NewRunner(newTranslator(cfg)),
		PollInterval: cfg.Session.PollInterval,
		ReadyTimeout: cfg.Session.ReadyTimeout,
		CreateConfig: &vm.Config{
			Name: cfg.Orgo.Computer.Name,
			OS:   cfg.Orgo.Computer.OS,
			RAM:  cfg.Orgo.Computer.RAM,
			CPU:  cfg.Orgo.Computer.CPU,
		},
	})
	return a, nil
}

func newProvider(cfg *config.Config) (vm.Provider, error) {
	if offline {
		Debug("Using in-memory provider")
		return vm.NewMemoryProvider(), nil
	}
	client, err := vm.NewOrgoClient(cfg.Orgo.BaseURL, cfg.Orgo.APIKey, cfg.Orgo.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create Orgo client: %w (set ORGO_API_KEY or orgo.api_key)", err)
	}
	Debug("Using Orgo API at %s", cfg.Orgo.BaseURL)
	return client, nil
}

func newTranslator(cfg *config.Config) task.Translator {
	if offline {
		return translate.Offline{}
	}
	t, err := translate.NewAnthropic(cfg.Translate.BaseURL, cfg.Translate.APIKey,
		cfg.Translate.Model, cfg.Translate.MaxTokens, cfg.Translate.Timeout)
	if err != nil {
		Debug("Natural-language input disabled: %v", err)
		return translate.Unavailable{Err: err}
	}
	return t
}

// storedProject returns the persisted project identifier, if any.
func (a *app) storedProject() string {
	id, err := a.store.Get()
	if err != nil {
		Debug("Failed to read stored project: %v", err)
		return ""
	}
	return id
}

// forgetStored destroys the project named by the persisted identifier and
// clears it. A fresh CLI process has no live handle, so this is how
// `disconnect` reaches a project created by an earlier invocation.
func (a *app) forgetStored(ctx context.Context) (string, error) {
	id := a.storedProject()
	if id == "" {
		return "", nil
	}

	c, err := a.provider.Lookup(ctx, id)
	switch {
	case err == nil:
		if err := c.Destroy(ctx); err != nil {
			return id, fmt.Errorf("failed to destroy project %s: %w", id, err)
		}
	case vm.Classify(err) == vm.FailureNotFound:
		Debug("Stored project %s no longer exists", id)
	default:
		return id, fmt.Errorf("failed to look up project %s: %w", id, err)
	}

	if err := a.store.Clear(); err != nil {
		return id, fmt.Errorf("failed to clear stored project: %w", err)
	}
	return id, nil
}

// record saves a finished task, logging instead of failing.
func (a *app) record(input string, result *session.TaskResult) {
	if _, err := a.history.Record(input, result); err != nil {
		Debug("Failed to record task: %v", err)
	}
}

// staleNote explains, for a stale identifier given on the command line, that
// a fresh desktop will be created instead. It returns "" for anything else.
func staleNote(id string) string {
	if kind := project.Classify(id); kind.Stale() {
		return fmt.Sprintf("Project id %q is not reusable (%s), creating a new desktop instead.", id, kind)
	}
	return ""
}
