package cli

import (
	"github.com/sirupsen/logrus"

	"github.com/smartlegionlab/smart-repository-manager-core/syncer"
)

// attachObservers logs the engine's lifecycle events.
func attachObservers(bus *syncer.Bus, log logrus.FieldLogger) {
	bus.Subscribe(syncer.EventSyncStarted, func(e syncer.Event) {
		p := e.(syncer.SyncStarted)
		log.WithFields(logrus.Fields{"owner": p.Owner, "total": p.Total, "intent": p.Intent}).
			Info("sync started")
	})

	bus.Subscribe(syncer.EventHealthChecked, func(e syncer.Event) {
		p := e.(syncer.HealthChecked)
		log.WithFields(logrus.Fields{"repo": p.Name, "state": p.State}).
			Debug("health checked")
	})

	bus.Subscribe(syncer.EventHealthCheckCompleted, func(e syncer.Event) {
		p := e.(syncer.HealthCheckCompleted)
		fields := logrus.Fields{}
		for state, count := range p.Histogram {
			fields[string(state)] = count
		}
		log.WithFields(fields).Info("health check completed")
	})

	bus.Subscribe(syncer.EventRepoStarted, func(e syncer.Event) {
		p := e.(syncer.RepoStarted)
		log.WithFields(logrus.Fields{"repo": p.Name, "index": p.Index + 1, "total": p.Total}).
			Info("processing repository")
	})

	bus.Subscribe(syncer.EventOperationAttempt, func(e syncer.Event) {
		p := e.(syncer.OperationAttempt)
		log.WithFields(logrus.Fields{"repo": p.Name, "operation": p.Operation, "attempt": p.Attempt}).
			Debug("operation attempt")
	})

	bus.Subscribe(syncer.EventAutoRepairTriggered, func(e syncer.Event) {
		p := e.(syncer.AutoRepairTriggered)
		log.WithField("repo", p.Name).Warn("auto-repair triggered")
	})

	bus.Subscribe(syncer.EventRepoRepaired, func(e syncer.Event) {
		p := e.(syncer.RepoRepaired)
		log.WithFields(logrus.Fields{"repo": p.Name, "attempts": p.Attempts}).
			Info(p.Message)
	})

	bus.Subscribe(syncer.EventRepoCompleted, func(e syncer.Event) {
		p := e.(syncer.RepoCompleted)
		log.WithFields(logrus.Fields{"repo": p.Name, "attempts": p.Attempts}).
			Info(p.Message)
	})

	bus.Subscribe(syncer.EventRepoFailed, func(e syncer.Event) {
		p := e.(syncer.RepoFailed)
		log.WithFields(logrus.Fields{"repo": p.Name, "attempts": p.Attempts}).
			Error(p.Reason)
	})

	bus.Subscribe(syncer.EventRepoSkipped, func(e syncer.Event) {
		p := e.(syncer.RepoSkipped)
		log.WithFields(logrus.Fields{"repo": p.Name, "reason": p.Reason}).
			Debug("repository skipped")
	})

	bus.Subscribe(syncer.EventSyncFinished, func(e syncer.Event) {
		p := e.(syncer.SyncFinished)
		log.Info(p.Result.String())
	})
}
