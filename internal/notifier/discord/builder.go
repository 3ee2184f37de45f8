package discord

import "time"

// EmbedBuilder assembles an Embed and checks it against the API limits.
type EmbedBuilder struct {
	embed Embed
}

func NewEmbedBuilder() *EmbedBuilder {
	return &EmbedBuilder{}
}

func (b *EmbedBuilder) Title(title string) *EmbedBuilder {
	b.embed.Title = title
	return b
}

func (b *EmbedBuilder) Description(description string) *EmbedBuilder {
	b.embed.Description = description
	return b
}

// Link makes the title a link.
func (b *EmbedBuilder) Link(url string) *EmbedBuilder {
	b.embed.URL = url
	return b
}

func (b *EmbedBuilder) Color(color int) *EmbedBuilder {
	b.embed.Color = color
	return b
}

func (b *EmbedBuilder) Timestamp(t time.Time) *EmbedBuilder {
	b.embed.Timestamp = t.Format(time.RFC3339)
	return b
}

func (b *EmbedBuilder) Footer(text string) *EmbedBuilder {
	b.embed.Footer = &EmbedFooter{Text: text}
	return b
}

func (b *EmbedBuilder) Field(name, value string, inline bool) *EmbedBuilder {
	b.embed.Fields = append(b.embed.Fields, EmbedField{Name: name, Value: value, Inline: inline})
	return b
}

// Build returns the embed, or the error Discord would reject it with.
func (b *EmbedBuilder) Build() (Embed, error) {
	if err := b.embed.Validate(); err != nil {
		return Embed{}, err
	}
	return b.embed, nil
}
