package queue

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/loanflow/origination/internal/core/ports"
)

// LogMailer writes outbound mail to the log instead of an SMTP relay. It is
// the delivery backend for development environments.
type LogMailer struct {
	from string
	log  zerolog.Logger
}

func NewLogMailer(from string, log zerolog.Logger) *LogMailer {
	return &LogMailer{from: from, log: log}
}

func (m *LogMailer) Send(_ context.Context, mail ports.Mail) error {
	m.log.Info().
		Str("from", m.from).
		Str("to", mail.To).
		Str("subject", mail.Subject).
		Str("body", mail.Body).
		Msg("mail sent")
	return nil
}
