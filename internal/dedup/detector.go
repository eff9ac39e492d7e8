// Package dedup merges rule and advisor candidates, dropping any advisor
// candidate that duplicates an already-accepted one.
package dedup

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/ado-testgen/internal/logging"
	"github.com/jonathan/ado-testgen/internal/types"
)

// Detector combines signals by logical OR.
type Detector struct {
	signals []Similarity
	logger  *zap.Logger
}

// MergeResult is the accepted set in publish order plus one rejection per
// dropped candidate.
type MergeResult struct {
	Accepted   []types.TestCase
	Rejections []types.Rejection
}

// NewDetector builds a detector over signals. With no signals it never flags
// anything.
func NewDetector(logger *zap.Logger, signals ...Similarity) *Detector {
	return &Detector{signals: signals, logger: logging.OrNop(logger)}
}

// Signals returns the names of the configured signals.
func (d *Detector) Signals() []string {
	names := make([]string, 0, len(d.signals))
	for _, s := range d.signals {
		names = append(names, s.Name())
	}
	return names
}

// Duplicate returns the name of the first signal that fires, or "" if none do.
func (d *Detector) Duplicate(ctx context.Context, candidate, existing types.TestCase) string {
	for _, s := range d.signals {
		if s.Duplicate(ctx, candidate, existing) {
			return s.Name()
		}
	}
	return ""
}

// Merge admits rule candidates in order without displacement, then admits
// each advisor candidate only if it duplicates no accepted candidate. Rule
// candidates are distinct by construction and are not compared with each other.
func (d *Detector) Merge(ctx context.Context, rule, advisor []types.TestCase) MergeResult {
	res := MergeResult{Accepted: make([]types.TestCase, 0, len(rule)+len(advisor))}
	res.Accepted = append(res.Accepted, rule...)

	for _, candidate := range advisor {
		if reason := d.firstDuplicate(ctx, candidate, res.Accepted); reason != "" {
			d.logger.Debug("advisor candidate rejected as duplicate",
				zap.String("internal_id", candidate.InternalID),
				zap.String("reason", reason))
			res.Rejections = append(res.Rejections, types.Rejection{
				Source:     types.SourceAdvisor,
				Stage:      types.StageDuplicate,
				InternalID: candidate.InternalID,
				Title:      candidate.Title,
				Reason:     reason,
			})
			continue
		}
		res.Accepted = append(res.Accepted, candidate)
	}
	return res
}

func (d *Detector) firstDuplicate(ctx context.Context, candidate types.TestCase, accepted []types.TestCase) string {
	for _, existing := range accepted {
		if signal := d.Duplicate(ctx, candidate, existing); signal != "" {
			return fmt.Sprintf("%s duplicate of %s", signal, existing.InternalID)
		}
	}
	return ""
}
