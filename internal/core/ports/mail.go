package ports

import "context"

// Mail is an outbound message handed to the mail queue.
type Mail struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers a single message.
type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

// MailQueue accepts mail for asynchronous delivery.
type MailQueue interface {
	Enqueue(m Mail)
}
