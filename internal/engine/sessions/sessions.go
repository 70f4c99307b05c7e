package sessions

import (
	"fmt"
	"math"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/crimson-sun/chronicle/internal/model"
)

// Clusterer groups timestamped blocks into work sessions separated by idle gaps.
type Clusterer struct {
	logger *zap.Logger
}

// New creates a Clusterer.
func New(logger *zap.Logger) *Clusterer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Clusterer{logger: logger}
}

// session accumulates blocks that belong together.
type session struct {
	ids   []int64
	start time.Time
	end   time.Time
}

// Cluster orders blocks by start time and opens a new session whenever the
// idle time since the previous block's end exceeds gapMinutes. Blocks with
// equal starts keep their input order.
func (c *Clusterer) Cluster(blocks []model.Block, gapMinutes float64) (model.ClusterResult, error) {
	if len(blocks) == 0 {
		return model.ClusterResult{}, model.Invalidf("No blocks provided for clustering")
	}
	if math.IsNaN(gapMinutes) || gapMinutes <= 0 {
		return model.ClusterResult{}, model.Invalidf("gap threshold must be positive, got %v", gapMinutes)
	}
	for _, b := range blocks {
		if b.End.Before(b.Start) {
			return model.ClusterResult{}, model.Invalidf("block %d ends before it starts", b.ID)
		}
	}

	sorted := slices.Clone(blocks)
	slices.SortStableFunc(sorted, func(a, b model.Block) int {
		return a.Start.Compare(b.Start)
	})

	var groups []*session
	var cur *session
	for i, b := range sorted {
		// Gap is measured from the previous block in start order, not the
		// latest end seen so far.
		if i == 0 || b.Start.Sub(sorted[i-1].End).Minutes() > gapMinutes {
			cur = &session{start: b.Start, end: b.End}
			groups = append(groups, cur)
		}
		cur.ids = append(cur.ids, b.ID)
		if b.End.After(cur.end) {
			cur.end = b.End
		}
	}

	out := make([]model.Session, len(groups))
	for i, g := range groups {
		dur := g.end.Sub(g.start)
		out[i] = model.Session{
			ID:              i,
			BlockIDs:        g.ids,
			Start:           g.start,
			End:             g.end,
			DurationMinutes: dur.Minutes(),
			BlockCount:      len(g.ids),
		}
		c.logger.Debug("session",
			zap.Int("id", i),
			zap.Int("blocks", len(g.ids)),
			zap.String("duration", formatDuration(dur)))
	}

	c.logger.Info("clustered blocks",
		zap.Int("blocks", len(blocks)),
		zap.Int("sessions", len(out)),
		zap.Float64("gap_minutes", gapMinutes))

	return model.ClusterResult{
		Success:       true,
		Sessions:      out,
		TotalBlocks:   len(blocks),
		TotalSessions: len(out),
		Message:       fmt.Sprintf("Clustered %d blocks into %d sessions", len(blocks), len(out)),
	}, nil
}

// formatDuration produces a human-readable short duration string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		secs := int(d.Seconds()) % 60
		if secs == 0 {
			return fmt.Sprintf("%dm", mins)
		}
		return fmt.Sprintf("%dm%ds", mins, secs)
	}
	hours := int(d.Hours())
	mins := int(d.Minutes()) % 60
	if mins == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh%dm", hours, mins)
}
