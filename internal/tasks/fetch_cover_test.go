package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlibry/openlibry/internal/covers"
)

func TestFetchCoverWarmsCache(t *testing.T) {
	fetcher := &fakeCoverFetcher{}

	processor := FetchCoverProcessor(fetcher)
	require.NoError(t, processor(context.Background(), FetchCoverTask{ISBN: "9783161484100"}))
	assert.Equal(t, 1, fetcher.fetches)
}

func TestFetchCoverNoCoverIsNotRetried(t *testing.T) {
	fetcher := &fakeCoverFetcher{err: covers.ErrNoCover}

	processor := FetchCoverProcessor(fetcher)
	assert.NoError(t, processor(context.Background(), FetchCoverTask{ISBN: "9783161484100"}))
}

func TestFetchCoverTransportErrorRetries(t *testing.T) {
	fetcher := &fakeCoverFetcher{err: errors.New("upstream down")}

	processor := FetchCoverProcessor(fetcher)
	assert.Error(t, processor(context.Background(), FetchCoverTask{ISBN: "9783161484100"}))
}

func TestFetchCoverEmptyISBNIsNoop(t *testing.T) {
	fetcher := &fakeCoverFetcher{}

	processor := FetchCoverProcessor(fetcher)
	require.NoError(t, processor(context.Background(), FetchCoverTask{}))
	assert.Zero(t, fetcher.fetches)
}

func TestFetchCoverTaskConfig(t *testing.T) {
	cfg := FetchCoverTask{}.Config()
	assert.Equal(t, "fetch_cover", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
}
