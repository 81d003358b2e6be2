package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/torneo/internal/ranking"
)

type GetRankingInput struct {
	Limit int `query:"limit" minimum:"1" maximum:"100" default:"15" doc:"Max teams returned"`
}

type RankingBody struct {
	Entries []ranking.Entry `json:"entries" doc:"Teams ordered by wins, then by first win"`
	Total   int             `json:"total" doc:"Number of teams with at least one win"`
}

type GetRankingOutput struct {
	Body RankingBody
}

func RegisterRankingRoutes(api huma.API, reader Reader) {
	huma.Register(api, huma.Operation{
		OperationID: "get-ranking",
		Method:      http.MethodGet,
		Path:        "/ranking",
		Summary:     "Get the global win ranking",
		Tags:        []string{"Ranking"},
	}, func(ctx context.Context, input *GetRankingInput) (*GetRankingOutput, error) {
		entries, total, err := reader.Ranking(ctx, input.Limit)
		if err != nil {
			return nil, huma.Error503ServiceUnavailable("engine unavailable", err)
		}
		if entries == nil {
			entries = []ranking.Entry{}
		}

		return &GetRankingOutput{Body: RankingBody{Entries: entries, Total: total}}, nil
	})
}
