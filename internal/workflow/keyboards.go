package workflow

import "github.com/newsdesk/deskbot/internal/chat"

// ReviewKeyboard builds the action rows rendered under a posted review item.
func ReviewKeyboard(token string) *chat.Keyboard {
	return &chat.Keyboard{InlineKeyboard: [][]chat.Button{
		{
			{Text: "Rewrite", CallbackData: "rewrite:" + token},
			{Text: "Custom prompt", CallbackData: "prompt:" + token},
		},
		{
			{Text: "Publish", CallbackData: "publish:" + token},
		},
	}}
}

// PromptKeyboard builds the single cancel control shown while a custom
// prompt is awaited.
func PromptKeyboard(token string) *chat.Keyboard {
	return &chat.Keyboard{InlineKeyboard: [][]chat.Button{
		{
			{Text: "Cancel", CallbackData: "cancelprompt:" + token},
		},
	}}
}

// ModelKeyboard builds the sticky-default-model selection rows.
func ModelKeyboard(models []string) *chat.Keyboard {
	rows := make([][]chat.Button, 0, len(models)+1)
	for _, model := range models {
		rows = append(rows, []chat.Button{
			{Text: model, CallbackData: "model:" + model},
		})
	}
	rows = append(rows, []chat.Button{
		{Text: "Cancel", CallbackData: "cancelmodel:-"},
	})
	return &chat.Keyboard{InlineKeyboard: rows}
}
