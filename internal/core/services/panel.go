package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/usdinspect/internal/core/domain"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driving"
	"github.com/custodia-labs/usdinspect/internal/logger"
)

// Ensure PropertyPanel implements the interface.
var _ driving.PropertyPanel = (*PropertyPanel)(nil)

var panelLog = logger.For("panel")

// PropertyPanel resolves and samples all properties of one prim on a
// bounded worker pool.
type PropertyPanel struct {
	tree     driving.StageTree
	resolver driving.OpinionResolver
	sampler  driving.ValueSampler
	workers  int
}

// NewPropertyPanel creates a panel. workers below 1 is treated as 1.
func NewPropertyPanel(
	tree driving.StageTree,
	resolver driving.OpinionResolver,
	sampler driving.ValueSampler,
	workers int,
) *PropertyPanel {
	if workers < 1 {
		workers = 1
	}
	return &PropertyPanel{
		tree:     tree,
		resolver: resolver,
		sampler:  sampler,
		workers:  workers,
	}
}

// Rows returns one row per property of path, in property order.
// A property that fails to resolve or sample carries the error on its row;
// only cancellation and document failures abort the whole call.
func (p *PropertyPanel) Rows(ctx context.Context, path domain.Path, t domain.TimeCode) ([]domain.PropertyRow, error) {
	infos, err := p.tree.PropertyInfos(ctx, path)
	if err != nil {
		return nil, err
	}

	done := panelLog.Timed(fmt.Sprintf("rows %s @ %s", path, t))
	defer done()

	rows := make([]domain.PropertyRow, len(infos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, info := range infos {
		g.Go(func() error {
			row, err := p.row(gctx, path, info, t)
			if fatal(err) {
				return err
			}
			row.Err = err
			rows[i] = row
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func (p *PropertyPanel) row(
	ctx context.Context, path domain.Path, info domain.PropertyInfo, t domain.TimeCode,
) (domain.PropertyRow, error) {
	row := domain.PropertyRow{Info: info}

	set, found, err := p.resolver.Resolve(ctx, path, info.Name)
	if err != nil || !found {
		return row, err
	}
	row.Resolution = set
	row.Found = true

	sample, found, err := p.sampler.Sample(ctx, path, info.Name, t)
	if err != nil {
		return row, err
	}
	if found {
		row.Sample = sample
	}
	return row, nil
}

// fatal reports whether err must abort the whole panel.
func fatal(err error) bool {
	return errors.Is(err, domain.ErrDocumentUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
