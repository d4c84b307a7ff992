package syncer

import (
	"context"
	"time"
)

const (
	// FreshnessTolerance absorbs clock skew and metadata noise between
	// the catalog's last-pushed timestamp and the local commit time.
	// Differences at or below it never count as stale.
	FreshnessTolerance = 300 * time.Second

	// StalenessHorizon is the gap beyond which the local copy is
	// confidently stale and no remote round-trip is needed.
	StalenessHorizon = 86400 * time.Second
)

// StalenessOracle decides whether a local copy is behind its remote,
// using cheap local heuristics before any remote query.
type StalenessOracle struct {
	inspector RepoInspector
}

// NewStalenessOracle creates an oracle backed by the given inspector.
func NewStalenessOracle(i RepoInspector) *StalenessOracle {
	return &StalenessOracle{inspector: i}
}

// NeedsUpdate reports whether the copy at localPath is behind the remote
// that last saw a push at remotePushedAt. Only the ambiguous band between
// FreshnessTolerance and StalenessHorizon pays for a remote head query;
// any error resolves conservatively to true.
func (o *StalenessOracle) NeedsUpdate(ctx context.Context, localPath, remoteURL string, remotePushedAt time.Time) bool {
	localTime, err := o.inspector.HeadCommitTime(localPath)
	if err != nil {
		return true
	}

	diff := remotePushedAt.UTC().Sub(localTime.UTC())
	if diff <= FreshnessTolerance {
		return false
	}
	if diff > StalenessHorizon {
		return true
	}

	localHead, err := o.inspector.HeadHash(localPath)
	if err != nil {
		return true
	}
	remoteHead, err := o.inspector.RemoteHead(ctx, remoteURL)
	if err != nil {
		return true
	}
	return localHead != remoteHead
}
