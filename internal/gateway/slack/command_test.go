package slack_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	torneoslack "github.com/gosuda/torneo/internal/gateway/slack"
	"github.com/gosuda/torneo/internal/intent"
)

func TestParseCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		text       string
		wantAction torneoslack.CommandAction
		wantArgs   []string
	}{
		{name: "empty is help", text: "   ", wantAction: torneoslack.CommandHelp},
		{name: "bare verb", text: "ranking", wantAction: torneoslack.CommandRanking},
		{name: "verb is case insensitive", text: "SALAS", wantAction: torneoslack.CommandRooms},
		{name: "single arg", text: "crear Copa Verano", wantAction: torneoslack.CommandCreate, wantArgs: []string{"Copa Verano"}},
		{name: "pipe separated", text: "unirse Copa |  Rojos ", wantAction: torneoslack.CommandJoin, wantArgs: []string{"Copa", "Rojos"}},
		{name: "room", text: "sala Final | 20:00 | 21:00", wantAction: torneoslack.CommandRoom, wantArgs: []string{"Final", "20:00", "21:00"}},
		{name: "unknown verb", text: "bailar ahora", wantAction: torneoslack.CommandUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmd := torneoslack.ParseCommand(tt.text)
			assert.Equal(t, tt.wantAction, cmd.Action)
			assert.Equal(t, tt.wantArgs, cmd.Args)
			assert.Equal(t, tt.text, cmd.Raw)
		})
	}
}

func TestCommand_Intent(t *testing.T) {
	t.Parallel()

	base := intent.Base{TenantID: "T1", UserID: "U1"}

	tests := []struct {
		name string
		text string
		want intent.Intent
	}{
		{name: "dashboard", text: "dashboard", want: intent.PublishDashboard{Base: base, ChannelID: "C1"}},
		{name: "ranking", text: "ranking", want: intent.ShowRanking{Base: base}},
		{name: "rooms", text: "salas", want: intent.ListRooms{Base: base}},
		{name: "refresh", text: "actualizar", want: intent.Refresh{Base: base}},
		{name: "create", text: "crear Copa", want: intent.CreateTournament{Base: base, Name: "Copa"}},
		{name: "select", text: "seleccionar Copa", want: intent.SelectTournament{Base: base, Tournament: "Copa"}},
		{name: "join selected", text: "unirse Rojos", want: intent.JoinTournament{Base: base, Team: "Rojos"}},
		{name: "join named", text: "unirse Copa | Rojos", want: intent.JoinTournament{Base: base, Tournament: "Copa", Team: "Rojos"}},
		{name: "change", text: "cambiar Azules", want: intent.ChangeTeam{Base: base, Team: "Azules"}},
		{name: "kick mention", text: "expulsar Copa | <@U777|ana>", want: intent.RemoveMember{Base: base, Tournament: "Copa", Member: "U777"}},
		{name: "drop team", text: "eliminar-equipo Rojos", want: intent.RemoveTeam{Base: base, Team: "Rojos"}},
		{name: "winner", text: "ganador Copa | Rojos", want: intent.RecordWin{Base: base, Tournament: "Copa", Team: "Rojos"}},
		{name: "finalize", text: "finalizar CONFIRMAR", want: intent.Finalize{Base: base, Token: "CONFIRMAR"}},
		{name: "close room", text: "cerrar-sala 1234", want: intent.CloseRoom{Base: base, RoomID: "1234"}},
		{name: "room", text: "sala Final | 20:00 | 21:00", want: intent.CreateRoom{Base: base, Name: "Final", Open: "20:00", Close: "21:00", ChannelID: "C1"}},
		{name: "open board", text: "sala abrir", want: intent.OpenBoard{Base: base, ChannelID: "C1"}},
		{name: "close board", text: "sala Cerrar", want: intent.CloseBoard{Base: base}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := torneoslack.ParseCommand(tt.text).Intent(base, "C1")
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	rejected := []string{"", "ayuda", "bailar", "crear", "unirse Copa |", "sala Final | 20:00", "sala Final"}
	for _, text := range rejected {
		_, ok := torneoslack.ParseCommand(text).Intent(base, "C1")
		assert.False(t, ok, text)
	}
}

func TestUserID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "U123", torneoslack.UserID("<@U123>"))
	assert.Equal(t, "U123", torneoslack.UserID(" <@U123|ana> "))
	assert.Equal(t, "ana", torneoslack.UserID("ana"))
}
