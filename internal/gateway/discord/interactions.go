package discord

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/torneo/internal/domain"
	"github.com/gosuda/torneo/internal/intent"
)

// Text input ids used in modals.
const (
	inputTeam    = "equipo"
	inputUser    = "usuario"
	inputConfirm = "confirmacion"
	inputName    = "nombre"
	inputOpen    = "apertura"
	inputClose   = "cierre"

	modalPrefix = "modal_"
)

// form is a modal opened by a dashboard or panel button.
type form struct {
	title  string
	admin  bool
	inputs []discordgo.TextInput
}

// forms is keyed by the button custom id without its "btn_" prefix.
var forms = map[string]form{ //nolint:gochecknoglobals // static modal table
	"unirse": {title: "Unirse a Equipo", inputs: []discordgo.TextInput{
		{CustomID: inputTeam, Label: "Nombre del equipo", Placeholder: "Ingresa el nombre de tu equipo", Style: discordgo.TextInputShort, Required: true, MaxLength: 100},
	}},
	"cambiar": {title: "Cambiar Equipo", inputs: []discordgo.TextInput{
		{CustomID: inputTeam, Label: "Nuevo equipo", Placeholder: "Ingresa el nombre del nuevo equipo", Style: discordgo.TextInputShort, Required: true, MaxLength: 100},
	}},
	"crear": {title: "Crear Torneo", admin: true, inputs: []discordgo.TextInput{
		{CustomID: inputName, Label: "Nombre del torneo", Placeholder: "Ej: Torneo Navidad 2025", Style: discordgo.TextInputShort, Required: true, MaxLength: 100},
	}},
	"elim_usuario": {title: "Eliminar Usuario", admin: true, inputs: []discordgo.TextInput{
		{CustomID: inputUser, Label: "ID del usuario", Placeholder: "ID numérico del usuario", Style: discordgo.TextInputShort, Required: true},
	}},
	"elim_equipo": {title: "Eliminar Equipo", admin: true, inputs: []discordgo.TextInput{
		{CustomID: inputTeam, Label: "Nombre del equipo", Placeholder: "Nombre exacto del equipo", Style: discordgo.TextInputShort, Required: true},
	}},
	"finalizar": {title: "Finalizar Torneo", admin: true, inputs: []discordgo.TextInput{
		{CustomID: inputConfirm, Label: "Escribe 'CONFIRMAR' para finalizar", Placeholder: "CONFIRMAR", Style: discordgo.TextInputShort, Required: true},
	}},
	"ganador": {title: "Registrar Ganador", admin: true, inputs: []discordgo.TextInput{
		{CustomID: inputTeam, Label: "Equipo ganador", Placeholder: "Nombre exacto del equipo", Style: discordgo.TextInputShort, Required: true},
	}},
	"crear_sala": {title: "Crear Sala", admin: true, inputs: []discordgo.TextInput{
		{CustomID: inputName, Label: "Nombre de la Sala", Placeholder: "Ej: Sala Entrenamiento", Style: discordgo.TextInputShort, Required: true, MaxLength: 100},
		{CustomID: inputOpen, Label: "Hora de Apertura (HH:MM)", Placeholder: "19:00", Style: discordgo.TextInputShort, Required: true, MaxLength: 5},
		{CustomID: inputClose, Label: "Hora de Cierre (HH:MM)", Placeholder: "21:00", Style: discordgo.TextInputShort, Required: true, MaxLength: 5},
	}},
}

const (
	replyNotAdmin  = "❌ Solo administradores pueden usar esto."
	replyUnknown   = "❌ Acción no reconocida."
	replyBoardHelp = "❌ Usa: `/sala abrir` o `/sala cerrar`"
)

// userMentionPattern matches Discord user mentions (<@123> or <@!123>).
var userMentionPattern = regexp.MustCompile(`^<@!?(\d+)>$`) //nolint:gochecknoglobals // compiled regexp

// Commands returns the slash commands registered for the bot.
func Commands() []*discordgo.ApplicationCommand {
	admin := int64(discordgo.PermissionAdministrator)
	return []*discordgo.ApplicationCommand{
		{Name: "dashboard", Description: "Crear dashboard interactivo en este canal", DefaultMemberPermissions: &admin},
		{Name: "panel", Description: "Panel de administración", DefaultMemberPermissions: &admin},
		{Name: "ranking", Description: "Ver el ranking general de equipos"},
		{Name: "salas", Description: "Ver salas activas"},
		{
			Name:                     "cerrar-sala",
			Description:              "Cerrar una sala antes de su horario",
			DefaultMemberPermissions: &admin,
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "sala",
				Description: "ID de la sala",
				Required:    true,
			}},
		},
		{
			Name:                     "sala",
			Description:              "Gestión de salas de notificación",
			DefaultMemberPermissions: &admin,
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "accion",
				Description: "Abrir o cerrar la notificación de salas",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "abrir", Value: "abrir"},
					{Name: "cerrar", Value: "cerrar"},
				},
			}},
		},
	}
}

// DefaultAckAfter is how long Interactions waits for a reply before deferring
// the response. Discord drops interactions not answered within 3 seconds.
const DefaultAckAfter = 2 * time.Second

// Interactions routes Discord interactions to an intent handler and answers
// them through the interaction callback.
type Interactions struct {
	api      API
	handler  intent.Handler
	ackAfter time.Duration
}

// InteractionsOption configures an Interactions.
type InteractionsOption func(*Interactions)

// WithAckAfter overrides DefaultAckAfter.
func WithAckAfter(d time.Duration) InteractionsOption {
	return func(x *Interactions) {
		x.ackAfter = d
	}
}

// NewInteractions creates an interaction router.
func NewInteractions(api API, handler intent.Handler, opts ...InteractionsOption) *Interactions {
	x := &Interactions{api: api, handler: handler, ackAfter: DefaultAckAfter}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Handle decodes one interaction, dispatches the resulting intent and
// responds. Button presses that need input are answered with a modal.
func (x *Interactions) Handle(ctx context.Context, i *discordgo.Interaction) error {
	base := intent.Base{TenantID: i.GuildID, UserID: userID(i)}
	logger := log.Ctx(ctx).With().Str("tenant_id", base.TenantID).Str("user_id", base.UserID).Logger()
	ctx = logger.WithContext(ctx)

	var in intent.Intent
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		switch data.Name {
		case "dashboard":
			in = intent.PublishDashboard{Base: base, ChannelID: i.ChannelID}
		case "panel":
			if !isAdmin(i) {
				return x.reply(ctx, i, intent.Reply{Text: replyNotAdmin, Private: true})
			}
			return x.respond(ctx, i, &discordgo.InteractionResponse{
				Type: discordgo.InteractionResponseChannelMessageWithSource,
				Data: adminPanel(),
			})
		case "ranking":
			in = intent.ShowRanking{Base: base}
		case "salas":
			in = intent.ListRooms{Base: base}
		case "cerrar-sala":
			if room := stringOption(data.Options, "sala"); room != "" {
				in = intent.CloseRoom{Base: base, RoomID: room}
			}
		case "sala":
			switch strings.ToLower(stringOption(data.Options, "accion")) {
			case "abrir":
				in = intent.OpenBoard{Base: base, ChannelID: i.ChannelID}
			case "cerrar":
				in = intent.CloseBoard{Base: base}
			default:
				return x.reply(ctx, i, intent.Reply{Text: replyBoardHelp, Private: true})
			}
		}

	case discordgo.InteractionMessageComponent:
		data := i.MessageComponentData()
		switch id := data.CustomID; {
		case id == SelectTournament && len(data.Values) > 0:
			in = intent.SelectTournament{Base: base, Tournament: data.Values[0]}
		case id == ButtonRefresh:
			in = intent.Refresh{Base: base}
		case id == ButtonPlayToday:
			in = intent.MarkReady{Base: base, State: domain.ReadyConfirmed}
		case id == ButtonNotifyMe:
			in = intent.MarkReady{Base: base, State: domain.ReadyNotify}
		case id == ButtonScrimReady:
			in = intent.ScrimReady{Base: base}
		case strings.HasPrefix(id, roomJoinPrefix):
			in = intent.JoinRoom{Base: base, RoomID: strings.TrimPrefix(id, roomJoinPrefix)}
		case strings.HasPrefix(id, "btn_"):
			key := strings.TrimPrefix(id, "btn_")
			f, ok := forms[key]
			if !ok {
				break
			}
			if f.admin && !isAdmin(i) {
				return x.reply(ctx, i, intent.Reply{Text: replyNotAdmin, Private: true})
			}
			return x.respond(ctx, i, modal(key, f))
		}

	case discordgo.InteractionModalSubmit:
		data := i.ModalSubmitData()
		in = formIntent(strings.TrimPrefix(data.CustomID, modalPrefix), base, i.ChannelID, modalValues(data.Components))

	default:
		return nil
	}

	if in == nil {
		return x.reply(ctx, i, intent.Reply{Text: replyUnknown, Private: true})
	}
	if intent.Admin(in) && !isAdmin(i) {
		return x.reply(ctx, i, intent.Reply{Text: replyNotAdmin, Private: true})
	}
	return x.answer(ctx, i, in)
}

// answer dispatches in and replies directly when the handler is quick enough.
// Otherwise it acknowledges with a deferred ephemeral response and delivers
// the reply once it is ready.
func (x *Interactions) answer(ctx context.Context, i *discordgo.Interaction, in intent.Intent) error {
	done := make(chan intent.Reply, 1)
	go func() { done <- x.handler.Handle(ctx, in) }()

	timer := time.NewTimer(x.ackAfter)
	defer timer.Stop()

	select {
	case reply := <-done:
		return x.reply(ctx, i, reply)
	case <-timer.C:
	}

	log.Ctx(ctx).Debug().Str("intent", in.Kind()).Msg("deferring interaction response")
	if err := x.respond(ctx, i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}); err != nil {
		return err
	}

	select {
	case reply := <-done:
		return x.followUp(ctx, i, reply)
	case <-ctx.Done():
		return fmt.Errorf("discord.Interactions.answer: %w", ctx.Err())
	}
}

// followUp completes a deferred response. The deferred message is ephemeral,
// so a public reply replaces it with a followup message.
func (x *Interactions) followUp(ctx context.Context, i *discordgo.Interaction, reply intent.Reply) error {
	var (
		embeds     []*discordgo.MessageEmbed
		components []discordgo.MessageComponent
	)
	if reply.View != nil {
		embeds = []*discordgo.MessageEmbed{Embed(*reply.View)}
		components = Components(*reply.View)
	}

	if reply.Private {
		edit := &discordgo.WebhookEdit{Content: &reply.Text}
		if reply.View != nil {
			edit.Embeds = &embeds
			edit.Components = &components
		}
		if err := x.api.InteractionResponseEdit(ctx, i, edit); err != nil {
			return fmt.Errorf("discord.Interactions.followUp: edit: %w", err)
		}
		return nil
	}

	if err := x.api.InteractionResponseDelete(ctx, i); err != nil {
		log.Ctx(ctx).Debug().Err(err).Msg("deferred response not deleted")
	}
	if err := x.api.FollowupMessageCreate(ctx, i, &discordgo.WebhookParams{
		Content:    reply.Text,
		Embeds:     embeds,
		Components: components,
	}); err != nil {
		return fmt.Errorf("discord.Interactions.followUp: create: %w", err)
	}
	return nil
}

func (x *Interactions) reply(ctx context.Context, i *discordgo.Interaction, reply intent.Reply) error {
	data := &discordgo.InteractionResponseData{Content: reply.Text}
	if reply.Private {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	if reply.View != nil {
		data.Embeds = []*discordgo.MessageEmbed{Embed(*reply.View)}
		data.Components = Components(*reply.View)
	}
	return x.respond(ctx, i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

func (x *Interactions) respond(ctx context.Context, i *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	if err := x.api.InteractionRespond(ctx, i, resp); err != nil {
		return fmt.Errorf("discord.Interactions.respond: %w", err)
	}
	return nil
}

func modal(key string, f form) *discordgo.InteractionResponse {
	rows := make([]discordgo.MessageComponent, 0, len(f.inputs))
	for _, in := range f.inputs {
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{in}})
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   modalPrefix + key,
			Title:      f.title,
			Components: rows,
		},
	}
}

// formIntent maps a submitted modal to an intent. The tournament is left
// empty so the engine resolves the tenant's selection.
func formIntent(key string, base intent.Base, channelID string, v map[string]string) intent.Intent {
	switch key {
	case "unirse":
		return intent.JoinTournament{Base: base, Team: v[inputTeam]}
	case "cambiar":
		return intent.ChangeTeam{Base: base, Team: v[inputTeam]}
	case "crear":
		return intent.CreateTournament{Base: base, Name: v[inputName]}
	case "elim_usuario":
		return intent.RemoveMember{Base: base, Member: UserID(v[inputUser])}
	case "elim_equipo":
		return intent.RemoveTeam{Base: base, Team: v[inputTeam]}
	case "finalizar":
		return intent.Finalize{Base: base, Token: v[inputConfirm]}
	case "ganador":
		return intent.RecordWin{Base: base, Team: v[inputTeam]}
	case "crear_sala":
		return intent.CreateRoom{Base: base, Name: v[inputName], Open: v[inputOpen], Close: v[inputClose], ChannelID: channelID}
	}
	return nil
}

func modalValues(components []discordgo.MessageComponent) map[string]string {
	values := make(map[string]string)
	var walk func([]discordgo.MessageComponent)
	walk = func(cs []discordgo.MessageComponent) {
		for _, c := range cs {
			switch c := c.(type) {
			case *discordgo.ActionsRow:
				walk(c.Components)
			case discordgo.ActionsRow:
				walk(c.Components)
			case *discordgo.TextInput:
				values[c.CustomID] = strings.TrimSpace(c.Value)
			case discordgo.TextInput:
				values[c.CustomID] = strings.TrimSpace(c.Value)
			}
		}
	}
	walk(components)
	return values
}

func stringOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, o := range options {
		if o.Name == name && o.Type == discordgo.ApplicationCommandOptionString {
			return strings.TrimSpace(o.StringValue())
		}
	}
	return ""
}

func userID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func isAdmin(i *discordgo.Interaction) bool {
	return i.Member != nil && i.Member.Permissions&discordgo.PermissionAdministrator != 0
}

// UserID extracts the id from a Discord mention, or returns s unchanged.
func UserID(s string) string {
	s = strings.TrimSpace(s)
	if m := userMentionPattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}
