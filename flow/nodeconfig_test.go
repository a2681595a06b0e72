package flow

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestExtractSendButtonsConfig(t *testing.T) {
	t.Parallel()

	config, err := ExtractSendButtonsConfig(map[string]any{
		"body":   "Elige una opción",
		"footer": "equipo de ventas",
		"buttons": []any{
			map[string]any{"id": "opt_a", "title": "Opción A"},
			map[string]any{"id": "opt_b", "title": "Opción B"},
		},
		"unknown_key": "ignored",
	})
	require.NoError(t, err)
	require.Equal(t, "Elige una opción", config.Body)
	require.Equal(t, "equipo de ventas", config.Footer)
	require.Len(t, config.Buttons, 2)
	require.Equal(t, "opt_a", config.Buttons[0].ID)
}

func TestExtractAskQuestionConfig_DefaultsValidation(t *testing.T) {
	t.Parallel()

	config, err := ExtractAskQuestionConfig(map[string]any{
		"question":      "¿Nombre?",
		"variable_name": "name",
	})
	require.NoError(t, err)
	require.Equal(t, ValidationNone, config.Validation)

	config, err = ExtractAskQuestionConfig(map[string]any{
		"question":      "¿Email?",
		"variable_name": "email",
		"validation":    "email",
	})
	require.NoError(t, err)
	require.Equal(t, ValidationEmail, config.Validation)
}

func TestAPICallConfig_GetMethod(t *testing.T) {
	t.Parallel()

	require.Equal(t, "GET", APICallConfig{}.GetMethod())
	require.Equal(t, "POST", APICallConfig{Method: "post"}.GetMethod())
	require.Equal(t, "DELETE", APICallConfig{Method: "Delete"}.GetMethod())
}

func TestExtractSendListConfig(t *testing.T) {
	t.Parallel()

	config, err := ExtractSendListConfig(map[string]any{
		"body":        "Nuestro menú",
		"button_text": "Ver opciones",
		"sections": []any{
			map[string]any{
				"title": "Bebidas",
				"rows": []any{
					map[string]any{"id": "row_1", "title": "Café", "description": "Americano"},
				},
			},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "Ver opciones", config.ButtonText)
	require.Len(t, config.Sections, 1)
	require.Equal(t, "Café", config.Sections[0].Rows[0].Title)
}

func TestExtractConfig_EmptyMapYieldsZeroValues(t *testing.T) {
	t.Parallel()

	msg, err := ExtractSendMessageConfig(nil)
	require.NoError(t, err)
	require.Empty(t, msg.Message)
	require.Zero(t, msg.TypingDelay)

	delay, err := ExtractDelayConfig(map[string]any{})
	require.NoError(t, err)
	require.Zero(t, delay.Seconds)
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	require.Equal(t, "corto", Truncate("corto", MaxButtonTitleLen))
	require.Equal(t, "12345678901234567890", Truncate("123456789012345678901234", MaxButtonTitleLen))

	// Multi-byte titles must not be split mid-character.
	accented := strings.Repeat("ñ", 30)
	cut := Truncate(accented, MaxButtonTitleLen)
	require.True(t, utf8.ValidString(cut))
	require.Equal(t, MaxButtonTitleLen, utf8.RuneCountInString(cut))

	emoji := "opción ☕☕☕☕☕☕☕☕☕☕☕☕☕☕☕☕☕☕"
	require.True(t, utf8.ValidString(Truncate(emoji, MaxListRowTitleLen)))
}
