package transport

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/dipwatch/dipwatch/pkg/config"
	"github.com/dipwatch/dipwatch/pkg/httputil"
	"github.com/dipwatch/dipwatch/pkg/logger"
)

// LogMessenger writes messages to the log instead of delivering them.
// Used in development and whenever Twilio credentials are absent.
type LogMessenger struct {
	logger *logger.Logger
	seq    atomic.Int64
}

func NewLogMessenger(log *logger.Logger) *LogMessenger {
	return &LogMessenger{
		logger: log.WithField("component", "log_messenger"),
	}
}

func (m *LogMessenger) Send(_ context.Context, to, body string) (string, error) {
	id := fmt.Sprintf("log-%d", m.seq.Add(1))
	m.logger.WithFields(map[string]interface{}{
		"to":         to,
		"message_id": id,
		"length":     len(body),
	}).Info("message logged (delivery disabled)")
	m.logger.Debug(Truncate(body))
	return id, nil
}

// New selects the messenger implementation for the given configuration.
// Any missing Twilio credential falls back to log-only delivery.
func New(cfg config.TwilioConfig, httpClient *httputil.Client, log *logger.Logger) Messenger {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.FromNumber == "" {
		log.Warn("Twilio credentials not configured, alerts will be logged only")
		return NewLogMessenger(log)
	}
	return NewTwilioMessenger(cfg, httpClient, log)
}
