package ranking_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/torneo/internal/domain"
	"github.com/gosuda/torneo/internal/ranking"
	"github.com/gosuda/torneo/internal/store"
)

// --- mock DocStore ---

type mockDocStore struct {
	doc     store.RankingDoc
	saveErr error
	saves   int
}

func (m *mockDocStore) LoadRanking(context.Context) (store.RankingDoc, error) {
	return m.doc, nil
}

func (m *mockDocStore) SaveRanking(_ context.Context, doc store.RankingDoc) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.doc = doc
	return nil
}

func TestLedger_RecordWinAndTop(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	s := &mockDocStore{}
	l := ranking.New(s)

	for range 3 {
		_, err := l.RecordWin(ctx, "Foo")
		require.NoError(t, err)
	}
	total, err := l.RecordWin(ctx, "Bar")
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	assert.Equal(t, 3, l.Wins("Foo"))
	assert.Equal(t, []ranking.Entry{{Team: "Foo", Wins: 3}, {Team: "Bar", Wins: 1}}, l.Top(2))
	assert.Equal(t, 4, s.saves, "every win is persisted")
}

func TestLedger_TiesKeepFirstSeenOrder(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	l := ranking.New(&mockDocStore{})
	for _, team := range []string{"Zeta", "Alfa", "Medio", "Alfa"} {
		_, err := l.RecordWin(ctx, team)
		require.NoError(t, err)
	}

	assert.Equal(t, []ranking.Entry{
		{Team: "Alfa", Wins: 2},
		{Team: "Zeta", Wins: 1},
		{Team: "Medio", Wins: 1},
	}, l.Top(10))
	assert.Len(t, l.Top(0), 3)
	assert.Len(t, l.Top(1), 1)
}

func TestLedger_PersistFailureKeepsIncrement(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	l := ranking.New(&mockDocStore{saveErr: domain.ErrPersistence})

	total, err := l.RecordWin(ctx, "Foo")
	require.ErrorIs(t, err, domain.ErrPersistence)
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, l.Wins("Foo"))
}

func TestLedger_LoadSurvivesRestart(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	s := &mockDocStore{}
	first := ranking.New(s)
	for _, team := range []string{"B", "A", "C", "C"} {
		_, err := first.RecordWin(ctx, team)
		require.NoError(t, err)
	}

	second := ranking.New(s)
	require.NoError(t, second.Load(ctx))

	assert.Equal(t, first.Top(10), second.Top(10))
	assert.Equal(t, 3, second.Len())
	assert.Zero(t, second.Wins("missing"))
}
