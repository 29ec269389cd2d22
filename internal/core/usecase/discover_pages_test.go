package usecase

import (
	"context"
	"errors"
	"testing"

	"amazon-search-service/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverPagesReturnsFetcherCount(t *testing.T) {
	fetcher := newStubFetcher(7, 1)
	uc := NewDiscoverPagesUseCase(fetcher)

	pages, err := uc.Execute(context.Background(), "cuffie")
	require.NoError(t, err)
	assert.Equal(t, 7, pages)
	assert.Equal(t, 1, fetcher.discoverCalls)
}

func TestDiscoverPagesRejectsEmptyQuery(t *testing.T) {
	fetcher := newStubFetcher(7, 1)
	uc := NewDiscoverPagesUseCase(fetcher)

	_, err := uc.Execute(context.Background(), "   ")
	require.Error(t, err)
	assert.Zero(t, fetcher.discoverCalls)
}

func TestDiscoverPagesWrapsFetcherFailure(t *testing.T) {
	fetcher := newStubFetcher(7, 1)
	fetcher.discoverErr = &domain.TransientFetchError{URL: "first-page", Attempts: 3, Cause: errors.New("status 503")}

	uc := NewDiscoverPagesUseCase(fetcher)

	_, err := uc.Execute(context.Background(), "cuffie")
	require.Error(t, err)

	var fetchErr *domain.TransientFetchError
	assert.True(t, errors.As(err, &fetchErr))
}
