package models

import (
	"github.com/google/uuid"
)

// ===========================================================================
// Agent
// Local configuration of one voice-agent instance. ProviderAgentID links it to
// the agent registered with the voice-agent provider; the provider sends that
// id back on every webhook call.
// ===========================================================================

// Agent is a restaurant's voice-agent configuration.
type Agent struct {
	BaseModel

	RestaurantID uuid.UUID `gorm:"type:uuid;not null;index" json:"restaurantId"`

	Name string `gorm:"size:255;not null" json:"name"`

	// Voice parameters
	VoiceID          string  `gorm:"size:100" json:"voiceId"`
	VoiceSpeed       float64 `json:"voiceSpeed"`
	VoiceTemperature float64 `json:"voiceTemperature"`
	Volume           float64 `json:"volume"`
	Language         string  `gorm:"size:20" json:"language"`

	// Conversation behavior
	Responsiveness          float64 `json:"responsiveness"`
	InterruptionSensitivity float64 `json:"interruptionSensitivity"`
	EndCallAfterSilenceMs   int     `json:"endCallAfterSilenceMs"`
	MaxCallDurationMs       int     `json:"maxCallDurationMs"`
	BeginMessage            string  `gorm:"type:text" json:"beginMessage,omitempty"`

	// Prompt system prompt; regenerated when operating hours change
	Prompt string `gorm:"type:text" json:"prompt"`

	// ProviderAgentID agent id at the voice-agent provider
	ProviderAgentID string `gorm:"size:255;index" json:"providerAgentId,omitempty"`

	// ProviderLLMID response engine id at the provider, holds the prompt
	ProviderLLMID string `gorm:"size:255" json:"providerLlmId,omitempty"`

	PhoneNumber string `gorm:"size:50" json:"phoneNumber,omitempty"`

	IsActive bool `gorm:"not null" json:"isActive"`
}

// TableName returns the table name.
func (Agent) TableName() string {
	return "agents"
}

// ApplyDefaults fills unset voice parameters with the provider's defaults.
func (a *Agent) ApplyDefaults() {
	if a.VoiceSpeed == 0 {
		a.VoiceSpeed = 1
	}
	if a.VoiceTemperature == 0 {
		a.VoiceTemperature = 1
	}
	if a.Volume == 0 {
		a.Volume = 1
	}
	if a.Language == "" {
		a.Language = "en-US"
	}
	if a.Responsiveness == 0 {
		a.Responsiveness = 1
	}
	if a.InterruptionSensitivity == 0 {
		a.InterruptionSensitivity = 1
	}
	if a.EndCallAfterSilenceMs == 0 {
		a.EndCallAfterSilenceMs = 30000
	}
	if a.MaxCallDurationMs == 0 {
		a.MaxCallDurationMs = 1800000
	}
}
