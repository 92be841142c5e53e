package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"tableline/internal/config"
)

// ===========================================================================
// Voice-agent provider client
// An agent at the provider is two objects: a response engine ("LLM") holding
// the prompt and tool definitions, and the agent holding voice settings that
// points at the engine.
// ===========================================================================

// Tool is a custom function the provider's agent may call during a call.
// The provider POSTs the arguments to URL.
type Tool struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	URL         string         `json:"url"`
	Parameters  map[string]any `json:"parameters,omitempty"`

	// SpeakDuringExecution lets the agent fill silence while the tool runs
	SpeakDuringExecution bool `json:"speak_during_execution"`
}

// LLMRequest creates or updates a response engine.
type LLMRequest struct {
	GeneralPrompt string `json:"general_prompt"`
	BeginMessage  string `json:"begin_message,omitempty"`
	GeneralTools  []Tool `json:"general_tools,omitempty"`
}

// LLM is the provider's response engine.
type LLM struct {
	LLMID string `json:"llm_id"`
}

// ResponseEngine points an agent at an LLM.
type ResponseEngine struct {
	Type  string `json:"type"`
	LLMID string `json:"llm_id"`
}

// AgentRequest creates or updates an agent.
type AgentRequest struct {
	AgentName               string          `json:"agent_name,omitempty"`
	ResponseEngine          *ResponseEngine `json:"response_engine,omitempty"`
	VoiceID                 string          `json:"voice_id,omitempty"`
	VoiceSpeed              float64         `json:"voice_speed,omitempty"`
	VoiceTemperature        float64         `json:"voice_temperature,omitempty"`
	Volume                  float64         `json:"volume,omitempty"`
	Language                string          `json:"language,omitempty"`
	Responsiveness          float64         `json:"responsiveness,omitempty"`
	InterruptionSensitivity float64         `json:"interruption_sensitivity,omitempty"`
	EndCallAfterSilenceMs   int             `json:"end_call_after_silence_ms,omitempty"`
	MaxCallDurationMs       int             `json:"max_call_duration_ms,omitempty"`
	WebhookURL              string          `json:"webhook_url,omitempty"`
}

// AgentResponse is the provider's view of an agent.
type AgentResponse struct {
	AgentID   string `json:"agent_id"`
	AgentName string `json:"agent_name"`
}

// VoiceAgentClient talks to the voice-agent provider's REST API.
type VoiceAgentClient struct {
	http    httpClient
	baseURL string
	apiKey  string
}

// NewVoiceAgentClient creates a client from config.
func NewVoiceAgentClient(cfg config.VoiceAgentConfig) *VoiceAgentClient {
	return &VoiceAgentClient{
		http:    newHTTPClient("voice agent provider", cfg.Timeout),
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}
}

func (c *VoiceAgentClient) send(ctx context.Context, method, path string, body, out any) error {
	reader, err := jsonBody(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	return c.http.do(req, out)
}

// CreateLLM registers a response engine.
func (c *VoiceAgentClient) CreateLLM(ctx context.Context, in LLMRequest) (*LLM, error) {
	var out LLM
	if err := c.send(ctx, http.MethodPost, "/create-retell-llm", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateLLM replaces the prompt and tools of a response engine.
func (c *VoiceAgentClient) UpdateLLM(ctx context.Context, llmID string, in LLMRequest) error {
	return c.send(ctx, http.MethodPatch, "/update-retell-llm/"+url.PathEscape(llmID), in, nil)
}

// CreateAgent registers an agent.
func (c *VoiceAgentClient) CreateAgent(ctx context.Context, in AgentRequest) (*AgentResponse, error) {
	var out AgentResponse
	if err := c.send(ctx, http.MethodPost, "/create-agent", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateAgent pushes voice settings.
func (c *VoiceAgentClient) UpdateAgent(ctx context.Context, agentID string, in AgentRequest) error {
	return c.send(ctx, http.MethodPatch, "/update-agent/"+url.PathEscape(agentID), in, nil)
}
