package scraper

import (
	"context"

	"go.uber.org/zap"
)

// Pager fetches one page of a paged listing at a time.
type Pager[Offset any, T any] interface {
	GetPage(ctx context.Context, offset Offset) ([]T, error)

	PageZeroOffset() Offset
	NextPageOffset(t Offset, page []T) Offset
}

// Walk pages through p, calling yield for every item until stop reports true
// for an item (that item is not yielded), a page comes back empty, or yield
// returns an error.
func Walk[Offset any, T any](ctx context.Context, p Pager[Offset, T], stop func(T) bool, yield func(T) error) error {
	offset := p.PageZeroOffset()
	for {
		page, err := p.GetPage(ctx, offset)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			zap.S().Debugf("Empty page at offset %v, stopping", offset)
			return nil
		}
		for _, item := range page {
			if stop != nil && stop(item) {
				return nil
			}
			if err := yield(item); err != nil {
				return err
			}
		}
		offset = p.NextPageOffset(offset, page)
	}
}
