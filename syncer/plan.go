package syncer

// Intent is the operation requested by the caller. Explicit intents
// always override inference; IntentAuto lets the planner decide.
type Intent string

const (
	// IntentAuto selects the least destructive operation sufficient to
	// reach a healthy, current state.
	IntentAuto Intent = "sync"

	// IntentClone forces a fresh acquisition regardless of local state.
	IntentClone Intent = "clone"

	// IntentUpdate forces a pull regardless of local state.
	IntentUpdate Intent = "update"
)

// OperationType is the concrete corrective action selected for one
// repository. Exactly one is selected per repository per pass.
type OperationType string

const (
	OperationClone  OperationType = "clone"
	OperationPull   OperationType = "pull"
	OperationRepair OperationType = "repair"
	OperationSkip   OperationType = "skip"
)

// String returns the string representation of the OperationType.
func (t OperationType) String() string {
	return string(t)
}

// PlanOperation maps the requested intent, the diagnosed health state,
// and the staleness verdict onto one operation. Pure function: it does
// no I/O beyond what its inputs already supplied. metadataPresent
// reports whether the path holds version-control metadata, guarding
// against a health report that contradicts the filesystem.
func PlanOperation(intent Intent, health HealthState, metadataPresent, stale bool) OperationType {
	switch intent {
	case IntentClone:
		return OperationClone
	case IntentUpdate:
		return OperationPull
	}

	switch health {
	case HealthNotExists, HealthBroken:
		return OperationClone
	case HealthPartiallyBroken:
		return OperationRepair
	}

	if !metadataPresent {
		return OperationClone
	}
	if stale {
		return OperationPull
	}
	return OperationSkip
}
