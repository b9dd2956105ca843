package orchestrator

import (
	"context"

	"github.com/nuanced-dev/lsproxy/pkg/workspace"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Reconciler periodically re-probes every registered worker's /health
// endpoint and demotes one from Healthy to Failed if it stops answering
// between requests. It does not restart workers automatically (§5
// "the worker itself is not restarted automatically") — it only keeps
// WorkerRegistry state honest so /system/health reflects reality.
type Reconciler struct {
	orch *Orchestrator
	cron *cron.Cron
	log  *logrus.Logger
}

// NewReconciler builds a reconciler bound to orch. Call Start to begin
// the cron schedule; the interval comes from orch's Config.
func NewReconciler(orch *Orchestrator, log *logrus.Logger) *Reconciler {
	if log == nil {
		log = logrus.New()
	}
	return &Reconciler{
		orch: orch,
		cron: cron.New(cron.WithSeconds()),
		log:  log,
	}
}

// Start schedules the reconciliation loop at the orchestrator's
// ReconcileInterval. A zero interval disables the reconciler entirely.
func (r *Reconciler) Start() error {
	interval := r.orch.config.ReconcileInterval
	if interval <= 0 {
		return nil
	}

	spec := "@every " + interval.String()
	_, err := r.cron.AddFunc(spec, r.reconcileOnce)
	if err != nil {
		return err
	}

	r.cron.Start()
	return nil
}

// Stop halts the cron schedule and waits for any in-flight run to finish.
func (r *Reconciler) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

func (r *Reconciler) reconcileOnce() {
	ctx := context.Background()

	for _, desc := range r.orch.AllWorkers() {
		if desc.State != WorkerStateHealthy {
			continue
		}

		if !r.orch.probeHealth(ctx, desc.EndpointURL) {
			r.log.WithField("language", desc.Language).Warn("worker stopped answering health checks, marking failed")
			r.orch.registry.Transition(workspace.Language(desc.Language), WorkerStateFailed, "reconciler: health probe failed between requests")
		}
	}
}
