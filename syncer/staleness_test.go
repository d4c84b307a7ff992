package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestNeedsUpdateUnreadableHeadIsStale(t *testing.T) {
	oracle := NewStalenessOracle(&fakeInspector{headTimeErr: errors.New("no head")})

	assert.True(t, oracle.NeedsUpdate(context.Background(), "/repo", "url", baseTime))
}

func TestNeedsUpdateWithinTolerance(t *testing.T) {
	oracle := NewStalenessOracle(&fakeInspector{headTime: baseTime})

	tests := []struct {
		name     string
		pushedAt time.Time
	}{
		{"equal timestamps", baseTime},
		{"local ahead of catalog", baseTime.Add(-time.Hour)},
		{"exactly at tolerance", baseTime.Add(FreshnessTolerance)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, oracle.NeedsUpdate(context.Background(), "/repo", "url", tt.pushedAt))
		})
	}
}

func TestNeedsUpdateBeyondHorizon(t *testing.T) {
	// A gap this large is conclusive without touching the remote.
	inspector := &fakeInspector{headTime: baseTime, remoteHeadErr: errors.New("must not be called")}
	oracle := NewStalenessOracle(inspector)

	pushedAt := baseTime.Add(StalenessHorizon + time.Second)
	assert.True(t, oracle.NeedsUpdate(context.Background(), "/repo", "url", pushedAt))
}

func TestNeedsUpdateAmbiguousBandComparesHeads(t *testing.T) {
	pushedAt := baseTime.Add(time.Hour)

	tests := []struct {
		name      string
		inspector *fakeInspector
		want      bool
	}{
		{
			name:      "heads match",
			inspector: &fakeInspector{headTime: baseTime, headHash: "abc", remoteHead: "abc"},
			want:      false,
		},
		{
			name:      "heads differ",
			inspector: &fakeInspector{headTime: baseTime, headHash: "abc", remoteHead: "def"},
			want:      true,
		},
		{
			name:      "local hash unreadable",
			inspector: &fakeInspector{headTime: baseTime, headHashErr: errors.New("bad object")},
			want:      true,
		},
		{
			name:      "remote unreachable",
			inspector: &fakeInspector{headTime: baseTime, headHash: "abc", remoteHeadErr: errors.New("network")},
			want:      true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle := NewStalenessOracle(tt.inspector)
			assert.Equal(t, tt.want, oracle.NeedsUpdate(context.Background(), "/repo", "url", pushedAt))
		})
	}
}
