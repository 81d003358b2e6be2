// Package slack connects the engine to a Slack workspace: a gateway.Gateway
// over the Web API and an HTTP handler for slash commands and interactions.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	slacklib "github.com/slack-go/slack"

	"github.com/gosuda/torneo/internal/domain"
	"github.com/gosuda/torneo/internal/intent"
)

const (
	// DefaultAckAfter is how long a webhook waits for the engine before it
	// acknowledges and delivers the reply later. Slack expects an answer
	// within 3 seconds.
	DefaultAckAfter = 2 * time.Second

	lateReplyTimeout = time.Minute
)

// Handler processes Slack webhooks (slash commands + interactive components).
type Handler struct {
	signingSecret string
	api           API
	handler       intent.Handler
	admins        map[string]bool
	ackAfter      time.Duration
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithAckAfter overrides DefaultAckAfter.
func WithAckAfter(d time.Duration) HandlerOption {
	return func(h *Handler) {
		h.ackAfter = d
	}
}

// NewHandler creates a Slack webhook handler. admins lists the user ids
// allowed to issue administrator intents.
func NewHandler(signingSecret string, api API, handler intent.Handler, admins []string, opts ...HandlerOption) *Handler {
	set := make(map[string]bool, len(admins))
	for _, id := range admins {
		set[id] = true
	}
	h := &Handler{
		signingSecret: signingSecret,
		api:           api,
		handler:       handler,
		admins:        set,
		ackAfter:      DefaultAckAfter,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleCommands is an http.HandlerFunc for POST /slack/commands.
func (h *Handler) HandleCommands(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readVerified(w, r)
	if !ok {
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	sc, err := slacklib.SlashCommandParse(r)
	if err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	cmd := ParseCommand(sc.Text)
	in, ok := cmd.Intent(intent.Base{TenantID: sc.TeamID, UserID: sc.UserID}, sc.ChannelID)
	if !ok {
		writeReply(w, intent.Reply{Text: HelpText, Private: true})
		return
	}

	reply, ok := h.await(r.Context(), in, func(ctx context.Context, reply intent.Reply) {
		if sc.ResponseURL == "" {
			log.Ctx(ctx).Warn().Msg("late slack reply dropped: no response_url")
			return
		}
		if err := slacklib.PostWebhookContext(ctx, sc.ResponseURL, webhookReply(reply)); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("post late slack reply")
		}
	})
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	writeReply(w, reply)
}

// HandleInteractions is an http.HandlerFunc for POST /slack/interactions.
func (h *Handler) HandleInteractions(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readVerified(w, r)
	if !ok {
		return
	}

	payloadStr := extractFormPayload(string(body))
	if payloadStr == "" {
		http.Error(w, "missing payload", http.StatusBadRequest)
		return
	}

	var callback slacklib.InteractionCallback
	if err := json.Unmarshal([]byte(payloadStr), &callback); err != nil {
		http.Error(w, "invalid payload JSON", http.StatusBadRequest)
		return
	}

	in, ok := interactionIntent(&callback)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}

	channelID := callback.Container.ChannelID
	if channelID == "" {
		channelID = callback.Channel.ID
	}
	post := func(ctx context.Context, reply intent.Reply) {
		if reply.Text == "" || channelID == "" {
			return
		}
		text := slacklib.MsgOptionText(markdown(reply.Text), false)
		var err error
		if reply.Private {
			_, err = h.api.PostEphemeralContext(ctx, channelID, callback.User.ID, text)
		} else {
			_, _, err = h.api.PostMessageContext(ctx, channelID, text)
		}
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("post interaction reply")
		}
	}

	if reply, ok := h.await(r.Context(), in, post); ok {
		post(r.Context(), reply)
	}
	w.WriteHeader(http.StatusOK)
}

// await dispatches in detached from the request and waits up to ackAfter for
// the reply. On timeout it returns false and hands the reply to late once the
// engine produces it.
func (h *Handler) await(ctx context.Context, in intent.Intent, late func(context.Context, intent.Reply)) (intent.Reply, bool) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lateReplyTimeout)
	done := make(chan intent.Reply, 1)
	go func() { done <- h.dispatch(dctx, in) }()

	timer := time.NewTimer(h.ackAfter)
	defer timer.Stop()

	select {
	case reply := <-done:
		cancel()
		return reply, true
	case <-timer.C:
	}

	log.Ctx(ctx).Debug().Str("intent", in.Kind()).Msg("acknowledging slack request before reply")
	go func() {
		defer cancel()
		late(dctx, <-done)
	}()
	return intent.Reply{}, false
}

func (h *Handler) dispatch(ctx context.Context, in intent.Intent) intent.Reply {
	if intent.Admin(in) && !h.admins[in.Actor()] {
		return intent.Reply{Text: "❌ Solo administradores pueden usar esto.", Private: true}
	}
	return h.handler.Handle(ctx, in)
}

func (h *Handler) readVerified(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return nil, false
	}

	if err := h.verifySignature(r.Header, body); err != nil {
		log.Ctx(r.Context()).Debug().Err(err).Msg("rejected slack request")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return nil, false
	}
	return body, true
}

// verifySignature validates the Slack request signature using the signing secret.
func (h *Handler) verifySignature(header http.Header, body []byte) error {
	sv, err := slacklib.NewSecretsVerifier(header, h.signingSecret)
	if err != nil {
		return fmt.Errorf("slack.Handler.verifySignature: create verifier: %w", err)
	}

	if _, err := sv.Write(body); err != nil {
		return fmt.Errorf("slack.Handler.verifySignature: write body: %w", err)
	}

	if err := sv.Ensure(); err != nil {
		return fmt.Errorf("slack.Handler.verifySignature: ensure: %w", err)
	}

	return nil
}

func interactionIntent(callback *slacklib.InteractionCallback) (intent.Intent, bool) {
	if callback.Type != slacklib.InteractionTypeBlockActions || len(callback.ActionCallback.BlockActions) == 0 {
		return nil, false
	}

	base := intent.Base{TenantID: callback.Team.ID, UserID: callback.User.ID}
	action := callback.ActionCallback.BlockActions[0]
	switch action.ActionID {
	case ActionRoomJoin:
		return intent.JoinRoom{Base: base, RoomID: action.Value}, true
	case ActionTournamentSelect:
		return intent.SelectTournament{Base: base, Tournament: action.SelectedOption.Value}, true
	case ActionRefresh:
		return intent.Refresh{Base: base}, true
	case ActionPlayToday:
		return intent.MarkReady{Base: base, State: domain.ReadyConfirmed}, true
	case ActionNotifyMe:
		return intent.MarkReady{Base: base, State: domain.ReadyNotify}, true
	case ActionScrimReady:
		return intent.ScrimReady{Base: base}, true
	}
	return nil, false
}

func writeReply(w http.ResponseWriter, reply intent.Reply) {
	msg := slacklib.Msg{
		ResponseType: responseType(reply),
		Text:         markdown(reply.Text),
	}
	if reply.View != nil {
		msg.Text = fallbackText(*reply.View)
		msg.Blocks = slacklib.Blocks{BlockSet: BuildBlocks(*reply.View)}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		log.Error().Err(err).Msg("encode slack reply")
	}
}

// webhookReply renders reply for a command's response_url.
func webhookReply(reply intent.Reply) *slacklib.WebhookMessage {
	msg := &slacklib.WebhookMessage{
		ResponseType: responseType(reply),
		Text:         markdown(reply.Text),
	}
	if reply.View != nil {
		msg.Text = fallbackText(*reply.View)
		msg.Blocks = &slacklib.Blocks{BlockSet: BuildBlocks(*reply.View)}
	}
	return msg
}

func responseType(reply intent.Reply) string {
	if reply.Private {
		return slacklib.ResponseTypeEphemeral
	}
	return slacklib.ResponseTypeInChannel
}

// extractFormPayload parses the "payload" value from a URL-encoded form body.
func extractFormPayload(body string) string {
	values, err := url.ParseQuery(body)
	if err != nil {
		return ""
	}

	return values.Get("payload")
}
