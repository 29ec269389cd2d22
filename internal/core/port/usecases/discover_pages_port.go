package usecases_port

import (
	"context"
)

type DiscoverPagesPort interface {
	Execute(ctx context.Context, query string) (int, error)
}
