package lifecycle

import (
	"context"
	"time"

	"github.com/orgogpt/orgogpt/internal/project"
	"github.com/orgogpt/orgogpt/internal/session"
	"github.com/orgogpt/orgogpt/internal/vm"
)

// Attachment is a ready computer together with the identifier to persist.
type Attachment struct {
	Computer  vm.Computer
	ProjectID string
	IsNew     bool
}

// Reconnector reattaches to a known project, falling back to a fresh one
// when the identifier is stale or the provider no longer knows it.
type Reconnector struct {
	Provider     vm.Provider
	Factory      *Factory
	Poller       *Poller
	ReadyTimeout time.Duration
}

// Attach resolves id into a ready computer. onPhase, if set, is told whether
// the attempt is restoring an existing project or creating a new one.
func (r *Reconnector) Attach(ctx context.Context, id string, onPhase func(session.Phase)) (*Attachment, error) {
	kind := project.Classify(id)
	if !project.IsUsable(id) {
		if kind.Stale() {
			debugLog("Ignoring stale project id %q (%s)", id, kind)
		}
		return r.fresh(ctx, onPhase)
	}
	if kind == project.Other {
		debugLog("Project id %q is not a UUID, trying it anyway", id)
	}

	notify(onPhase, session.PhaseRestoring)
	c, err := r.Provider.Attach(ctx, id)
	if err != nil {
		if vm.Classify(err) == vm.FailureNotFound {
			debugLog("Project %s not found, creating a new one", id)
			return r.fresh(ctx, onPhase)
		}
		return nil, &AttachError{ProjectID: id, Err: err}
	}

	if err := r.Poller.AwaitReady(ctx, c, r.ReadyTimeout); err != nil {
		return nil, &AttachError{ProjectID: id, Err: err}
	}

	actual := c.ID()
	if actual == "" {
		actual = id
	}
	return &Attachment{Computer: c, ProjectID: actual, IsNew: false}, nil
}

func (r *Reconnector) fresh(ctx context.Context, onPhase func(session.Phase)) (*Attachment, error) {
	notify(onPhase, session.PhaseCreating)
	c, id, err := r.Factory.CreateFresh(ctx)
	if err != nil {
		return nil, err
	}
	return &Attachment{Computer: c, ProjectID: id, IsNew: true}, nil
}

func notify(onPhase func(session.Phase), p session.Phase) {
	if onPhase != nil {
		onPhase(p)
	}
}
