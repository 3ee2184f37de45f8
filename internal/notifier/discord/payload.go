// Package discord builds and posts Discord webhook messages.
package discord

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aleister1102/keywatch/internal/common"
)

// Discord API limits, counted in characters.
const (
	MaxTitleLength       = 256
	MaxDescriptionLength = 4096
	MaxFieldNameLength   = 256
	MaxFieldValueLength  = 1024
	MaxFooterLength      = 2048
	MaxFields            = 25
)

// Payload is the JSON body of a webhook execution.
type Payload struct {
	Content         string           `json:"content,omitempty"`
	Username        string           `json:"username,omitempty"`
	Embeds          []Embed          `json:"embeds,omitempty"`
	AllowedMentions *AllowedMentions `json:"allowed_mentions,omitempty"`
}

// AllowedMentions restricts which mentions in Content ping anyone.
type AllowedMentions struct {
	Parse []string `json:"parse"`
	Roles []string `json:"roles,omitempty"`
}

type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"` // RFC 3339
	Color       int          `json:"color,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// WithRoleMentions prefixes Content with pings for roleIDs and allows only
// those roles to be mentioned.
func (p Payload) WithRoleMentions(roleIDs []string) Payload {
	if len(roleIDs) == 0 {
		return p
	}
	var sb strings.Builder
	for _, id := range roleIDs {
		sb.WriteString("<@&" + id + "> ")
	}
	p.Content = sb.String() + p.Content
	p.AllowedMentions = &AllowedMentions{Parse: []string{}, Roles: roleIDs}
	return p
}

// Validate reports the first limit e breaks.
func (e Embed) Validate() error {
	if utf8.RuneCountInString(e.Title) > MaxTitleLength {
		return common.NewValidationError("title", e.Title, "title too long")
	}
	if utf8.RuneCountInString(e.Description) > MaxDescriptionLength {
		return common.NewValidationError("description", e.Description, "description too long")
	}
	if len(e.Fields) > MaxFields {
		return common.NewValidationError("fields", len(e.Fields), fmt.Sprintf("at most %d fields", MaxFields))
	}
	for i, f := range e.Fields {
		if f.Name == "" || f.Value == "" {
			return common.NewValidationError("fields", i, fmt.Sprintf("field %d needs a name and a value", i))
		}
		if utf8.RuneCountInString(f.Name) > MaxFieldNameLength || utf8.RuneCountInString(f.Value) > MaxFieldValueLength {
			return common.NewValidationError("fields", i, fmt.Sprintf("field %d too long", i))
		}
	}
	if e.Footer != nil && utf8.RuneCountInString(e.Footer.Text) > MaxFooterLength {
		return common.NewValidationError("footer", e.Footer.Text, "footer too long")
	}
	return nil
}
