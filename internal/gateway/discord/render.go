package discord

import (
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/gosuda/torneo/internal/gateway"
)

// Component custom ids. Discord routes presses by custom id, so controls keep
// working on messages published before a restart.
const (
	SelectTournament = "tournament_select"
	ButtonJoin       = "btn_unirse"
	ButtonChange     = "btn_cambiar"
	ButtonRefresh    = "btn_actualizar"
	ButtonCreate     = "btn_crear"
	ButtonKick       = "btn_elim_usuario"
	ButtonDropTeam   = "btn_elim_equipo"
	ButtonFinalize   = "btn_finalizar"
	ButtonWin        = "btn_ganador"
	ButtonCreateRoom = "btn_crear_sala"
	ButtonPlayToday  = "quiero_jugar"
	ButtonNotifyMe   = "notificarme"
	ButtonScrimReady = "scrim_ready"

	roomJoinPrefix   = "unirse_sala:"
	roomClosedPrefix = "cerrado:"
)

const (
	colorDashboard = 0x3498db
	colorRoom      = 0x9b59b6
	colorBoard     = 0xe74c3c
	colorClosed    = 0x95a5a6
	colorAdmin     = 0xe74c3c

	maxDescription = 4096
	maxFieldValue  = 1024
	maxFields      = 25
)

// Embed renders a payload as a message embed.
func Embed(p gateway.Payload) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       p.Title,
		Description: truncate(p.Description, maxDescription),
		Color:       colorDashboard,
	}
	switch p.Kind {
	case gateway.KindRoom:
		embed.Color = colorRoom
	case gateway.KindBoard:
		embed.Color = colorBoard
	}
	if p.Closed {
		embed.Color = colorClosed
	}

	for _, s := range p.Sections {
		if len(embed.Fields) == maxFields {
			break
		}
		value := strings.Join(s.Lines, "\n")
		if value == "" {
			value = "\u200b"
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  s.Name,
			Value: truncate(value, maxFieldValue),
		})
	}

	footer := p.Footer
	if p.Closed && footer == "" && p.Kind == gateway.KindRoom {
		footer = "Sala cerrada ⏰"
	}
	if footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: footer}
	}
	return embed
}

// Components renders the controls attached to a payload.
func Components(p gateway.Payload) []discordgo.MessageComponent {
	switch p.Kind {
	case gateway.KindRoom:
		if p.Closed {
			return []discordgo.MessageComponent{discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Sala cerrada ⏰", Style: discordgo.SecondaryButton, Disabled: true, CustomID: roomClosedPrefix + p.RoomID},
			}}}
		}
		return []discordgo.MessageComponent{discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			button("Unirse a Sala", "📝", discordgo.SuccessButton, roomJoinPrefix+p.RoomID),
		}}}

	case gateway.KindDashboard:
		var rows []discordgo.MessageComponent
		if len(p.Options) > 0 {
			options := make([]discordgo.SelectMenuOption, 0, len(p.Options))
			for _, o := range p.Options {
				options = append(options, discordgo.SelectMenuOption{Label: o.Label, Value: o.Label, Description: o.Description})
			}
			rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					MenuType:    discordgo.StringSelectMenu,
					CustomID:    SelectTournament,
					Placeholder: "Selecciona un torneo",
					Options:     options,
				},
			}})
		}
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			button("Unirse a Equipo", "➕", discordgo.SuccessButton, ButtonJoin),
			button("Cambiar Equipo", "🔄", discordgo.PrimaryButton, ButtonChange),
			button("Actualizar", "🔃", discordgo.SecondaryButton, ButtonRefresh),
		}})
		return rows

	case gateway.KindBoard:
		row := []discordgo.MessageComponent{
			button("Quiero jugar hoy", "🔥", discordgo.SuccessButton, ButtonPlayToday),
			button("Notificarme", "🔔", discordgo.PrimaryButton, ButtonNotifyMe),
			button("Scrim Ready", "⚔️", discordgo.DangerButton, ButtonScrimReady),
		}
		if p.Closed {
			for i, c := range row {
				b := c.(discordgo.Button)
				b.Disabled = true
				row[i] = b
			}
		}
		return []discordgo.MessageComponent{discordgo.ActionsRow{Components: row}}
	}
	return nil
}

// adminPanel is the administrator control message posted by /panel.
func adminPanel() *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "👑 Panel de Administración",
			Description: "Controla todos los aspectos de los torneos y salas",
			Color:       colorAdmin,
			Fields: []*discordgo.MessageEmbedField{{
				Name: "🏆 Funciones Disponibles",
				Value: "• **Crear Torneos** - Nuevo torneo\n" +
					"• **Eliminar Usuario** - Del torneo actual\n" +
					"• **Eliminar Equipo** - Equipo completo\n" +
					"• **Finalizar Torneo** - Limpiar roles\n" +
					"• **Registrar Ganador** - Sumar victoria\n" +
					"• **Crear Sala** - Nueva sala con horarios",
			}},
			Footer: &discordgo.MessageEmbedFooter{Text: "Usa los botones abajo para gestionar todo"},
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				button("Crear Torneo", "🏆", discordgo.SuccessButton, ButtonCreate),
				button("Eliminar Usuario", "👤", discordgo.DangerButton, ButtonKick),
				button("Eliminar Equipo", "👥", discordgo.DangerButton, ButtonDropTeam),
			}},
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				button("Finalizar Torneo", "🏁", discordgo.SecondaryButton, ButtonFinalize),
				button("Registrar Ganador", "🏆", discordgo.SuccessButton, ButtonWin),
				button("Crear Sala", "🎮", discordgo.PrimaryButton, ButtonCreateRoom),
			}},
		},
	}
}

func button(label, emoji string, style discordgo.ButtonStyle, customID string) discordgo.Button {
	return discordgo.Button{
		Label:    label,
		Style:    style,
		Emoji:    &discordgo.ComponentEmoji{Name: emoji},
		CustomID: customID,
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
