package syncer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanOperation(t *testing.T) {
	tests := []struct {
		name            string
		intent          Intent
		health          HealthState
		metadataPresent bool
		stale           bool
		want            OperationType
	}{
		{
			name:   "explicit clone overrides healthy state",
			intent: IntentClone,
			health: HealthHealthy, metadataPresent: true,
			want: OperationClone,
		},
		{
			name:   "explicit update overrides broken state",
			intent: IntentUpdate,
			health: HealthBroken,
			want:   OperationPull,
		},
		{
			name:   "missing copy is cloned",
			intent: IntentAuto,
			health: HealthNotExists,
			want:   OperationClone,
		},
		{
			name:   "broken copy is re-cloned",
			intent: IntentAuto,
			health: HealthBroken, metadataPresent: true,
			want: OperationClone,
		},
		{
			name:   "partially broken copy is repaired",
			intent: IntentAuto,
			health: HealthPartiallyBroken, metadataPresent: true,
			want: OperationRepair,
		},
		{
			name:   "healthy verdict without metadata is cloned",
			intent: IntentAuto,
			health: HealthHealthy, metadataPresent: false,
			want: OperationClone,
		},
		{
			name:   "healthy stale copy is pulled",
			intent: IntentAuto,
			health: HealthHealthy, metadataPresent: true, stale: true,
			want: OperationPull,
		},
		{
			name:   "healthy fresh copy is skipped",
			intent: IntentAuto,
			health: HealthHealthy, metadataPresent: true, stale: false,
			want: OperationSkip,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlanOperation(tt.intent, tt.health, tt.metadataPresent, tt.stale)
			assert.Equal(t, tt.want, got)
		})
	}
}
