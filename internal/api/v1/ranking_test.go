package v1_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/torneo/internal/api/v1"
	"github.com/gosuda/torneo/internal/engine"
	"github.com/gosuda/torneo/internal/ranking"
)

// ---------------------------------------------------------------------------
// GET /ranking
// ---------------------------------------------------------------------------

func TestGetRanking(t *testing.T) {
	t.Parallel()

	t.Run("default_limit", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		reader := &mockReader{
			rankingFunc: func(_ context.Context, n int) ([]ranking.Entry, int, error) {
				assert.Equal(t, 15, n)
				return []ranking.Entry{{Team: "Rojos", Wins: 3}, {Team: "Azules", Wins: 1}}, 2, nil
			},
		}

		v1.RegisterRankingRoutes(api, reader)

		resp := api.Get("/ranking")
		assert.Equal(t, http.StatusOK, resp.Code)

		var body v1.RankingBody
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, 2, body.Total)
		require.Len(t, body.Entries, 2)
		assert.Equal(t, ranking.Entry{Team: "Rojos", Wins: 3}, body.Entries[0])
	})

	t.Run("custom_limit", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		reader := &mockReader{
			rankingFunc: func(_ context.Context, n int) ([]ranking.Entry, int, error) {
				assert.Equal(t, 3, n)
				return nil, 0, nil
			},
		}

		v1.RegisterRankingRoutes(api, reader)

		resp := api.Get("/ranking?limit=3")
		assert.Equal(t, http.StatusOK, resp.Code)

		var body v1.RankingBody
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.NotNil(t, body.Entries, "empty ranking is an empty list")
		assert.Empty(t, body.Entries)
	})

	t.Run("limit_out_of_range", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterRankingRoutes(api, &mockReader{})

		resp := api.Get("/ranking?limit=0")
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})

	t.Run("engine_stopped", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		reader := &mockReader{
			rankingFunc: func(context.Context, int) ([]ranking.Entry, int, error) {
				return nil, 0, engine.ErrStopped
			},
		}

		v1.RegisterRankingRoutes(api, reader)

		resp := api.Get("/ranking")
		assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	})
}
