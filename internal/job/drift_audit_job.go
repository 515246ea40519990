package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/chengAMS/hyperdoc/internal/manifold"
	"github.com/chengAMS/hyperdoc/internal/metrics"
	"github.com/chengAMS/hyperdoc/internal/repo"
)

// DriftAuditJob walks the stored points and counts the ones whose
// hyperboloid constraint has drifted outside tolerance. Ranking
// re-normalizes such points on the fly; the audit makes the amount of
// drift visible.
type DriftAuditJob struct {
	store    repo.ChunkStore
	manifold manifold.Manifold
}

func NewDriftAuditJob(store repo.ChunkStore, m manifold.Manifold) *DriftAuditJob {
	return &DriftAuditJob{store: store, manifold: m}
}

func (j *DriftAuditJob) Name() string {
	return "drift_audit"
}

func (j *DriftAuditJob) Run(ctx context.Context) error {
	if j.store == nil || j.manifold == nil {
		return nil
	}
	chunks, err := j.store.ListAll(ctx)
	if err != nil {
		return err
	}
	drifting := 0
	for _, chunk := range chunks {
		if !j.manifold.OnManifold(chunk.Point) {
			drifting++
		}
	}
	metrics.DriftingPoints.Set(float64(drifting))
	logutil.GetLogger(ctx).Info("drift audit finished",
		zap.Int("total", len(chunks)), zap.Int("drifting", drifting))
	return nil
}
