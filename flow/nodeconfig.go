package flow

import (
	"encoding/json"
	"strings"
)

// ============================================================================
// Node Config Types
// ============================================================================
//
// Node.Config is stored as a JSONB map; each node kind has a typed view
// extracted on demand. Unknown keys are ignored, missing keys decode to
// zero values so executors apply their own defaults.

// WhatsApp interactive message limits
const (
	MaxButtons         = 3
	MaxButtonTitleLen  = 20
	MaxListButtonLen   = 20
	MaxListRowTitleLen = 24
	MaxListRowDescLen  = 72
)

type SendMessageConfig struct {
	Message     string `json:"message"`
	TypingDelay int    `json:"typing_delay,omitempty"` // seconds, simulates typing
}

type Button struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type SendButtonsConfig struct {
	Body    string   `json:"body"`
	Header  string   `json:"header,omitempty"`
	Footer  string   `json:"footer,omitempty"`
	Buttons []Button `json:"buttons"`
}

type ListRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type ListSection struct {
	Title string    `json:"title"`
	Rows  []ListRow `json:"rows"`
}

type SendListConfig struct {
	Body       string        `json:"body"`
	Header     string        `json:"header,omitempty"`
	Footer     string        `json:"footer,omitempty"`
	ButtonText string        `json:"button_text"`
	Sections   []ListSection `json:"sections"`
}

// MediaType tipo de medio para send_media
type MediaType string

const (
	MediaTypeImage    MediaType = "image"
	MediaTypeVideo    MediaType = "video"
	MediaTypeDocument MediaType = "document"
	MediaTypeAudio    MediaType = "audio"
)

type SendMediaConfig struct {
	MediaType MediaType `json:"media_type"`
	MediaURL  string    `json:"media_url"`
	Caption   string    `json:"caption,omitempty"`
	Filename  string    `json:"filename,omitempty"`
}

// ValidationType tipo de validación para ask_question
type ValidationType string

const (
	ValidationNone   ValidationType = "none"
	ValidationText   ValidationType = "text"
	ValidationEmail  ValidationType = "email"
	ValidationPhone  ValidationType = "phone"
	ValidationNumber ValidationType = "number"
	ValidationURL    ValidationType = "url"
)

type AskQuestionConfig struct {
	Question     string         `json:"question"`
	VariableName string         `json:"variable_name"`
	Validation   ValidationType `json:"validation,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

type DelayConfig struct {
	Seconds int `json:"seconds"`
}

// ConditionOperator operador de comparación para nodos condition
type ConditionOperator string

const (
	OperatorEquals      ConditionOperator = "equals"
	OperatorNotEquals   ConditionOperator = "not_equals"
	OperatorContains    ConditionOperator = "contains"
	OperatorNotContains ConditionOperator = "not_contains"
	OperatorGreaterThan ConditionOperator = "greater_than"
	OperatorLessThan    ConditionOperator = "less_than"
	OperatorExists      ConditionOperator = "exists"
	OperatorNotExists   ConditionOperator = "not_exists"
)

type ConditionConfig struct {
	Variable string            `json:"variable"`
	Operator ConditionOperator `json:"operator"`
	Value    string            `json:"value,omitempty"`
}

type SetVariableConfig struct {
	VariableName string `json:"variable_name"`
	Value        string `json:"value"`
}

type APICallConfig struct {
	Method           string         `json:"method"`
	URL              string         `json:"url"`
	Headers          map[string]any `json:"headers,omitempty"`
	Body             map[string]any `json:"body,omitempty"`
	ResponseVariable string         `json:"response_variable,omitempty"`
}

// GetMethod returns the HTTP method, defaulting to GET.
func (c APICallConfig) GetMethod() string {
	if c.Method == "" {
		return "GET"
	}
	return strings.ToUpper(c.Method)
}

type AssignAgentConfig struct {
	Message    string `json:"message,omitempty"`
	Department string `json:"department,omitempty"`
}

type TagConfig struct {
	TagName string `json:"tag_name"`
}

type EndConfig struct {
	Message string `json:"message,omitempty"`
}

// ============================================================================
// Config Extraction
// ============================================================================

func decodeConfig(config map[string]any, out any) error {
	raw, err := json.Marshal(config)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func ExtractSendMessageConfig(config map[string]any) (SendMessageConfig, error) {
	var c SendMessageConfig
	err := decodeConfig(config, &c)
	return c, err
}

func ExtractSendButtonsConfig(config map[string]any) (SendButtonsConfig, error) {
	var c SendButtonsConfig
	err := decodeConfig(config, &c)
	return c, err
}

func ExtractSendListConfig(config map[string]any) (SendListConfig, error) {
	var c SendListConfig
	err := decodeConfig(config, &c)
	return c, err
}

func ExtractSendMediaConfig(config map[string]any) (SendMediaConfig, error) {
	var c SendMediaConfig
	err := decodeConfig(config, &c)
	return c, err
}

func ExtractAskQuestionConfig(config map[string]any) (AskQuestionConfig, error) {
	var c AskQuestionConfig
	err := decodeConfig(config, &c)
	if c.Validation == "" {
		c.Validation = ValidationNone
	}
	return c, err
}

func ExtractDelayConfig(config map[string]any) (DelayConfig, error) {
	var c DelayConfig
	err := decodeConfig(config, &c)
	return c, err
}

func ExtractConditionConfig(config map[string]any) (ConditionConfig, error) {
	var c ConditionConfig
	err := decodeConfig(config, &c)
	return c, err
}

func ExtractSetVariableConfig(config map[string]any) (SetVariableConfig, error) {
	var c SetVariableConfig
	err := decodeConfig(config, &c)
	return c, err
}

func ExtractAPICallConfig(config map[string]any) (APICallConfig, error) {
	var c APICallConfig
	err := decodeConfig(config, &c)
	return c, err
}

func ExtractAssignAgentConfig(config map[string]any) (AssignAgentConfig, error) {
	var c AssignAgentConfig
	err := decodeConfig(config, &c)
	return c, err
}

func ExtractTagConfig(config map[string]any) (TagConfig, error) {
	var c TagConfig
	err := decodeConfig(config, &c)
	return c, err
}

func ExtractEndConfig(config map[string]any) (EndConfig, error) {
	var c EndConfig
	err := decodeConfig(config, &c)
	return c, err
}

// Truncate enforces a WhatsApp length limit on a label. Cuts on rune
// boundaries so accented or emoji labels stay valid UTF-8.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
