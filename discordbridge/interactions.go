package discordbridge

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/onnwee/chat-mirror/backend/moderation"
	"github.com/onnwee/chat-mirror/backend/telemetry"
)

// onInteraction routes button clicks and modal submissions into the
// dispatcher. Interactions outside a guild are ignored; the mirror channel
// lives in a guild and DMs carry no moderation context.
func (b *Bridge) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		return
	}
	ctx := telemetry.WithCorrelation(context.Background(), uuid.New().String())
	r := &interactionResponder{session: s, interaction: i.Interaction}

	switch i.Type {
	case discordgo.InteractionMessageComponent:
		click := moderation.Click{
			Token:  i.MessageComponentData().CustomID,
			UserID: interactionUserID(i.Interaction),
		}
		if err := b.dispatcher.HandleControl(ctx, click, r); err != nil {
			telemetry.LoggerWithCorr(ctx).Error("moderation control failed", slog.Any("err", err))
		}
	case discordgo.InteractionModalSubmit:
		data := i.ModalSubmitData()
		sub := moderation.Submission{
			Token:  data.CustomID,
			UserID: interactionUserID(i.Interaction),
			Fields: textInputValues(data.Components),
		}
		if err := b.dispatcher.HandleSubmission(ctx, sub, r); err != nil {
			telemetry.LoggerWithCorr(ctx).Error("moderation form failed", slog.Any("err", err))
		}
	}
}

// interactionUserID returns the id of the interacting user. In a guild the
// user rides on the member.
func interactionUserID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// textInputValues flattens a modal's action rows into field id -> value.
func textInputValues(components []discordgo.MessageComponent) map[string]string {
	values := make(map[string]string)
	for _, row := range components {
		ar, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range ar.Components {
			if ti, ok := c.(*discordgo.TextInput); ok {
				values[ti.CustomID] = ti.Value
			}
		}
	}
	return values
}

// interactionResponder implements moderation.Responder for one interaction.
type interactionResponder struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction
}

func (r *interactionResponder) Reply(content string) error {
	return r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
}

func (r *interactionResponder) ShowForm(f moderation.Form) error {
	rows := make([]discordgo.MessageComponent, 0, len(f.Inputs))
	for _, in := range f.Inputs {
		style := discordgo.TextInputShort
		if in.Paragraph {
			style = discordgo.TextInputParagraph
		}
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:    in.ID,
				Label:       in.Label,
				Placeholder: in.Placeholder,
				Style:       style,
				Required:    in.Required,
				MinLength:   in.MinLen,
				MaxLength:   in.MaxLen,
			},
		}})
	}
	return r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{CustomID: f.Token, Title: f.Title, Components: rows},
	})
}
