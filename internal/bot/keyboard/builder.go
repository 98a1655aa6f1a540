// Package keyboard renders the inline keyboards of the funnel.
package keyboard

import (
	telebot "gopkg.in/telebot.v3"
)

// Builder creates inline keyboards for funnel steps.
type Builder struct{}

// NewBuilder returns a new Builder instance.
func NewBuilder() *Builder {
	return &Builder{}
}

// Single builds a one-button keyboard with the given label and callback data.
func (b *Builder) Single(text, data string) *telebot.ReplyMarkup {
	return b.Column([2]string{text, data})
}

// Column builds a keyboard with one button per row.
func (b *Builder) Column(buttons ...[2]string) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	markup.InlineKeyboard = make([][]telebot.InlineButton, 0, len(buttons))
	for _, btn := range buttons {
		markup.InlineKeyboard = append(markup.InlineKeyboard, []telebot.InlineButton{
			{Text: btn[0], Data: btn[1]},
		})
	}
	return markup
}

// URLButton builds a one-button keyboard opening an external link. Used for
// the published post and its preview.
func (b *Builder) URLButton(text, url string) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	markup.InlineKeyboard = [][]telebot.InlineButton{
		{
			{Text: text, URL: url},
		},
	}
	return markup
}
