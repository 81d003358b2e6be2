package slack

import (
	"strings"

	slacklib "github.com/slack-go/slack"

	"github.com/gosuda/torneo/internal/gateway"
)

// Action ids carried by interactive blocks.
const (
	ActionRoomJoin         = "room_join"
	ActionTournamentSelect = "tournament_select"
	ActionRefresh          = "dashboard_refresh"
	ActionPlayToday        = "quiero_jugar"
	ActionNotifyMe         = "notificarme"
	ActionScrimReady       = "scrim_ready"
)

// BuildBlocks renders a payload as Block Kit blocks.
func BuildBlocks(p gateway.Payload) []slacklib.Block {
	blocks := []slacklib.Block{
		slacklib.NewHeaderBlock(slacklib.NewTextBlockObject(slacklib.PlainTextType, p.Title, true, false)),
	}

	if p.Description != "" {
		blocks = append(blocks, mrkdwnSection(p.Description))
	}
	for _, s := range p.Sections {
		text := "*" + s.Name + "*"
		if len(s.Lines) > 0 {
			text += "\n" + strings.Join(s.Lines, "\n")
		}
		blocks = append(blocks, mrkdwnSection(text))
	}

	if actions := actionBlock(p); actions != nil {
		blocks = append(blocks, actions)
	}

	footer := p.Footer
	if p.Closed && footer == "" {
		footer = "Sala cerrada ⏰"
	}
	if footer != "" {
		blocks = append(blocks, slacklib.NewContextBlock("",
			slacklib.NewTextBlockObject(slacklib.MarkdownType, markdown(footer), false, false)))
	}

	return blocks
}

func actionBlock(p gateway.Payload) *slacklib.ActionBlock {
	switch p.Kind {
	case gateway.KindRoom:
		if p.Closed {
			return nil
		}
		btn := slacklib.NewButtonBlockElement(ActionRoomJoin, p.RoomID,
			slacklib.NewTextBlockObject(slacklib.PlainTextType, "📝 Unirse a Sala", true, false)).
			WithStyle(slacklib.StylePrimary)
		return slacklib.NewActionBlock("room_actions", btn)

	case gateway.KindDashboard:
		elements := make([]slacklib.BlockElement, 0, 2)
		if len(p.Options) > 0 {
			options := make([]*slacklib.OptionBlockObject, 0, len(p.Options))
			for _, o := range p.Options {
				var desc *slacklib.TextBlockObject
				if o.Description != "" {
					desc = slacklib.NewTextBlockObject(slacklib.PlainTextType, o.Description, false, false)
				}
				options = append(options, slacklib.NewOptionBlockObject(o.Label,
					slacklib.NewTextBlockObject(slacklib.PlainTextType, o.Label, false, false), desc))
			}
			elements = append(elements, slacklib.NewOptionsSelectBlockElement(slacklib.OptTypeStatic,
				slacklib.NewTextBlockObject(slacklib.PlainTextType, "Selecciona un torneo", false, false),
				ActionTournamentSelect, options...))
		}
		elements = append(elements, slacklib.NewButtonBlockElement(ActionRefresh, "refresh",
			slacklib.NewTextBlockObject(slacklib.PlainTextType, "🔄 Actualizar", true, false)))
		return slacklib.NewActionBlock("dashboard_actions", elements...)

	case gateway.KindBoard:
		if p.Closed {
			return nil
		}
		return slacklib.NewActionBlock("board_actions",
			slacklib.NewButtonBlockElement(ActionPlayToday, "ready",
				slacklib.NewTextBlockObject(slacklib.PlainTextType, "🔥 Quiero jugar hoy", true, false)).
				WithStyle(slacklib.StylePrimary),
			slacklib.NewButtonBlockElement(ActionNotifyMe, "notify",
				slacklib.NewTextBlockObject(slacklib.PlainTextType, "🔔 Notificarme", true, false)),
			slacklib.NewButtonBlockElement(ActionScrimReady, "scrim",
				slacklib.NewTextBlockObject(slacklib.PlainTextType, "⚔️ Scrim Ready", true, false)).
				WithStyle(slacklib.StyleDanger),
		)
	}
	return nil
}

func mrkdwnSection(text string) *slacklib.SectionBlock {
	return slacklib.NewSectionBlock(
		slacklib.NewTextBlockObject(slacklib.MarkdownType, markdown(text), false, false),
		nil,
		nil,
	)
}

// markdown converts the double-asterisk bold used in payloads to Slack mrkdwn.
func markdown(text string) string {
	return strings.ReplaceAll(text, "**", "*")
}

// fallbackText is the notification text shown where blocks are not rendered.
func fallbackText(p gateway.Payload) string {
	if p.Description != "" {
		return p.Title + "\n" + markdown(p.Description)
	}
	return p.Title
}

func messageOptions(p gateway.Payload) []slacklib.MsgOption {
	return []slacklib.MsgOption{
		slacklib.MsgOptionText(fallbackText(p), false),
		slacklib.MsgOptionBlocks(BuildBlocks(p)...),
	}
}
