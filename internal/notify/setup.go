package notify

import (
	"tableline/internal/config"
	"tableline/internal/provider"

	"go.uber.org/zap"
)

// RegistryFromConfig registers the email and SMS senders whose provider is
// configured. Unconfigured channels fall back to a LogSender so jobs still
// complete in development.
func RegistryFromConfig(cfg *config.Config, logger *zap.Logger) *Registry {
	registry := NewRegistry()

	if cfg.Email.Enabled() {
		registry.Register(NewEmailSender(provider.NewEmailClient(cfg.Email), logger.Named("email")))
	} else {
		logger.Warn("email provider not configured, emails will only be logged")
		registry.Register(NewLogSender(ChannelEmail, logger))
	}

	if cfg.SMS.Enabled() {
		registry.Register(NewSMSSender(provider.NewSMSClient(cfg.SMS), logger.Named("sms")))
	} else {
		logger.Warn("sms provider not configured, texts will only be logged")
		registry.Register(NewLogSender(ChannelSMS, logger))
	}

	return registry
}
