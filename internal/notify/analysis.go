package notify

import (
	"regexp"
	"strings"
	"time"
)

// CallAnalysis is what the worker extracts from a finished call.
type CallAnalysis struct {
	Duration time.Duration
	Caller   string
	Outcome  string

	// ReferencedNumbers 4-digit order/reservation numbers spoken in the call
	ReferencedNumbers []string

	AgentTurns  int
	CallerTurns int
}

var recordNumberPattern = regexp.MustCompile(`\b[1-9]\d{3}\b`)

var disconnectionOutcomes = map[string]string{
	"user_hangup":                 "caller hung up",
	"agent_hangup":                "agent ended the call",
	"call_transfer":               "call transferred",
	"inactivity":                  "ended after silence",
	"max_duration_reached":        "maximum call length reached",
	"voicemail_reached":           "reached voicemail",
	"dial_no_answer":              "no answer",
	"dial_busy":                   "line busy",
	"dial_failed":                 "dial failed",
	"error_llm_websocket_open":    "provider error",
	"error_unknown":               "provider error",
	"concurrency_limit_reached":   "provider concurrency limit reached",
	"registered_call_timeout":     "call never connected",
	"error_no_audio_received":     "no audio received",
	"error_asr":                   "speech recognition error",
	"error_retell":                "provider error",
	"error_user_not_joined":       "caller never joined",
	"scam_detected":               "flagged as scam",
	"error_inbound_webhook":       "inbound webhook error",
	"error_llm_websocket_runtime": "provider error",
}

// AnalyzeCall summarizes a call from its provider record. The transcript is
// expected in "Agent: ..." / "User: ..." lines.
func AnalyzeCall(call CallDetails) CallAnalysis {
	a := CallAnalysis{
		Caller:  call.FromNumber,
		Outcome: describeOutcome(call.DisconnectionReason),
	}
	if a.Caller == "" {
		a.Caller = "unknown caller"
	}
	if call.StartTimestamp > 0 && call.EndTimestamp > call.StartTimestamp {
		a.Duration = time.Duration(call.EndTimestamp-call.StartTimestamp) * time.Millisecond
	}

	seen := map[string]bool{}
	for _, line := range strings.Split(call.Transcript, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Agent:"):
			a.AgentTurns++
		case strings.HasPrefix(line, "User:"):
			a.CallerTurns++
		}
		for _, n := range recordNumberPattern.FindAllString(line, -1) {
			if !seen[n] {
				seen[n] = true
				a.ReferencedNumbers = append(a.ReferencedNumbers, n)
			}
		}
	}
	return a
}

func describeOutcome(reason string) string {
	if reason == "" {
		return "unknown"
	}
	if outcome, ok := disconnectionOutcomes[reason]; ok {
		return outcome
	}
	return strings.ReplaceAll(reason, "_", " ")
}
