package notify

import (
	"context"
	"fmt"

	"divyashree/internal/config"
	"divyashree/internal/model"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

// sender abstracts the SMTP client for tests.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPNotifier sends plain text email through an SMTP relay.
type SMTPNotifier struct {
	client sender
	from   string
	logger zerolog.Logger
}

// NewSMTPNotifier creates an SMTP-backed notifier.
func NewSMTPNotifier(cfg config.SMTPConfig, logger zerolog.Logger) (*SMTPNotifier, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &SMTPNotifier{
		client: client,
		from:   cfg.From,
		logger: logger.With().Str("component", "notify").Str("transport", "smtp").Logger(),
	}, nil
}

func (n *SMTPNotifier) send(ctx context.Context, to Recipient, m Message) error {
	if to.Email == "" {
		return fmt.Errorf("recipient has no email address")
	}

	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.AddToFormat(to.Name, to.Email); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextPlain, m.Body)

	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	n.logger.Debug().Str("to", to.Email).Str("subject", m.Subject).Msg("email sent")
	return nil
}

func (n *SMTPNotifier) OrderPlaced(ctx context.Context, to Recipient, o *model.Order) error {
	return n.send(ctx, to, orderPlacedMessage(to, o))
}

func (n *SMTPNotifier) OrderCancelled(ctx context.Context, to Recipient, o *model.Order) error {
	return n.send(ctx, to, orderCancelledMessage(to, o))
}

func (n *SMTPNotifier) OrderStatusChanged(ctx context.Context, to Recipient, o *model.Order, previous model.OrderStatus) error {
	return n.send(ctx, to, statusChangedMessage(to, o, previous))
}

// New picks the SMTP notifier when enabled, otherwise the log notifier.
func New(cfg config.SMTPConfig, logger zerolog.Logger) (Notifier, error) {
	if !cfg.Enabled {
		return NewLogNotifier(logger), nil
	}
	return NewSMTPNotifier(cfg, logger)
}
