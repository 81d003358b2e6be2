package slack

import (
	"regexp"
	"strings"

	"github.com/gosuda/torneo/internal/intent"
)

// Board sub-actions of the sala command.
const (
	boardOpen  = "abrir"
	boardClose = "cerrar"
)

// CommandAction represents the type of parsed command.
type CommandAction string

const (
	CommandDashboard CommandAction = "dashboard"
	CommandCreate    CommandAction = "crear"
	CommandJoin      CommandAction = "unirse"
	CommandChange    CommandAction = "cambiar"
	CommandKick      CommandAction = "expulsar"
	CommandDropTeam  CommandAction = "eliminar-equipo"
	CommandFinalize  CommandAction = "finalizar"
	CommandWin       CommandAction = "ganador"
	CommandSelect    CommandAction = "seleccionar"
	CommandRoom      CommandAction = "sala"
	CommandCloseRoom CommandAction = "cerrar-sala"
	CommandRooms     CommandAction = "salas"
	CommandRanking   CommandAction = "ranking"
	CommandRefresh   CommandAction = "actualizar"
	CommandHelp      CommandAction = "ayuda"
	CommandUnknown   CommandAction = "unknown"
)

// HelpText lists the slash command forms.
const HelpText = "*Comandos de /torneo*\n" +
	"`dashboard` publica el panel en este canal\n" +
	"`crear <torneo>` · `seleccionar <torneo>`\n" +
	"`unirse [torneo |] <equipo>` · `cambiar [torneo |] <equipo>`\n" +
	"`expulsar [torneo |] @usuario` · `eliminar-equipo [torneo |] <equipo>`\n" +
	"`ganador [torneo |] <equipo>` · `finalizar [torneo |] CONFIRMAR`\n" +
	"`sala <nombre> | HH:MM | HH:MM` · `cerrar-sala <id>` · `salas`\n" +
	"`sala abrir` · `sala cerrar` tablero de notificación de salas\n" +
	"`ranking` · `actualizar`"

// Command is a parsed /torneo invocation.
type Command struct {
	Action CommandAction
	Args   []string // pipe-separated arguments, trimmed
	Raw    string   // original text
}

// userMentionPattern matches Slack-encoded user mentions (<@U12345> or <@U12345|name>).
var userMentionPattern = regexp.MustCompile(`^<@([A-Z0-9]+)(?:\|[^>]*)?>$`) //nolint:gochecknoglobals // compiled regexp

// ParseCommand splits slash command text into an action and its arguments.
func ParseCommand(text string) Command {
	cmd := Command{Action: CommandUnknown, Raw: text}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		cmd.Action = CommandHelp
		return cmd
	}

	verb, rest, _ := strings.Cut(trimmed, " ")
	switch action := CommandAction(strings.ToLower(verb)); action {
	case CommandDashboard, CommandCreate, CommandJoin, CommandChange, CommandKick,
		CommandDropTeam, CommandFinalize, CommandWin, CommandSelect, CommandRoom,
		CommandCloseRoom, CommandRooms, CommandRanking, CommandRefresh, CommandHelp:
		cmd.Action = action
	default:
		return cmd
	}

	if rest = strings.TrimSpace(rest); rest != "" {
		for _, arg := range strings.Split(rest, "|") {
			cmd.Args = append(cmd.Args, strings.TrimSpace(arg))
		}
	}
	return cmd
}

// Intent maps the command to an intent. It returns false for help, unknown
// commands and missing arguments.
func (c Command) Intent(base intent.Base, channelID string) (intent.Intent, bool) {
	switch c.Action {
	case CommandDashboard:
		return intent.PublishDashboard{Base: base, ChannelID: channelID}, true
	case CommandRooms:
		return intent.ListRooms{Base: base}, true
	case CommandRanking:
		return intent.ShowRanking{Base: base}, true
	case CommandRefresh:
		return intent.Refresh{Base: base}, true
	}

	if len(c.Args) == 0 || c.Args[len(c.Args)-1] == "" {
		return nil, false
	}
	last := c.Args[len(c.Args)-1]
	tournament := ""
	if len(c.Args) > 1 {
		tournament = c.Args[0]
	}

	switch c.Action {
	case CommandCreate:
		return intent.CreateTournament{Base: base, Name: c.Args[0]}, true
	case CommandSelect:
		return intent.SelectTournament{Base: base, Tournament: c.Args[0]}, true
	case CommandJoin:
		return intent.JoinTournament{Base: base, Tournament: tournament, Team: last}, true
	case CommandChange:
		return intent.ChangeTeam{Base: base, Tournament: tournament, Team: last}, true
	case CommandKick:
		return intent.RemoveMember{Base: base, Tournament: tournament, Member: UserID(last)}, true
	case CommandDropTeam:
		return intent.RemoveTeam{Base: base, Tournament: tournament, Team: last}, true
	case CommandWin:
		return intent.RecordWin{Base: base, Tournament: tournament, Team: last}, true
	case CommandFinalize:
		return intent.Finalize{Base: base, Tournament: tournament, Token: last}, true
	case CommandCloseRoom:
		return intent.CloseRoom{Base: base, RoomID: c.Args[0]}, true
	case CommandRoom:
		if len(c.Args) == 1 {
			switch strings.ToLower(c.Args[0]) {
			case boardOpen:
				return intent.OpenBoard{Base: base, ChannelID: channelID}, true
			case boardClose:
				return intent.CloseBoard{Base: base}, true
			}
		}
		if len(c.Args) != 3 {
			return nil, false
		}
		return intent.CreateRoom{Base: base, Name: c.Args[0], Open: c.Args[1], Close: c.Args[2], ChannelID: channelID}, true
	}
	return nil, false
}

// UserID extracts the id from a Slack mention, or returns s unchanged.
func UserID(s string) string {
	if m := userMentionPattern.FindStringSubmatch(strings.TrimSpace(s)); m != nil {
		return m[1]
	}
	return strings.TrimSpace(s)
}
