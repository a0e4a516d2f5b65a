package rowmap

import (
	"context"
)

// PostProcessor is an interface that can be passed as an option to NewQueryMapper (or
// any of the row reading methods - QueryMapper.Rows, QueryMapper.Iterate, QueryMapper.FirstRow, QueryMapper.ExactlyOneRow)
//
// Multiple PostProcessor can be used, each one is called sequentially after a row is mapped
type PostProcessor[T any] interface {
	// PostProcess executes the PostProcessor
	PostProcess(ctx context.Context, db SqlInterface, row *T) error
}

// PostProcessorFunc is an adapter to allow the use of an ordinary func as a PostProcessor
type PostProcessorFunc[T any] func(ctx context.Context, db SqlInterface, row *T) error

func (f PostProcessorFunc[T]) PostProcess(ctx context.Context, db SqlInterface, row *T) error {
	return f(ctx, db, row)
}
