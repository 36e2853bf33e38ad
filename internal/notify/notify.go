// Package notify sends customer notifications about order lifecycle events.
// Callers invoke it through the task dispatcher, never inline.
package notify

import (
	"context"
	"fmt"
	"strings"

	"divyashree/internal/model"

	"github.com/rs/zerolog"
)

// Recipient is who a notification goes to.
type Recipient struct {
	Name  string
	Email string
}

// Notifier delivers order notifications.
type Notifier interface {
	OrderPlaced(ctx context.Context, to Recipient, order *model.Order) error
	OrderCancelled(ctx context.Context, to Recipient, order *model.Order) error
	OrderStatusChanged(ctx context.Context, to Recipient, order *model.Order, previous model.OrderStatus) error
}

// Message is a rendered notification.
type Message struct {
	Subject string
	Body    string
}

func orderPlacedMessage(to Recipient, o *model.Order) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Namaste %s,\n\n", to.Name)
	fmt.Fprintf(&b, "Thank you for shopping with DivyaShree Fashion. Your order %s has been confirmed.\n\n", o.OrderNumber)
	for _, item := range o.Items {
		fmt.Fprintf(&b, "  %d x %s  Rs. %.2f\n", item.Quantity, item.Name, item.Price*float64(item.Quantity))
	}
	fmt.Fprintf(&b, "\nTotal: Rs. %.2f (%s)\n", o.Total, strings.ToUpper(string(o.PaymentMethod)))
	fmt.Fprintf(&b, "Delivering to: %s, %s, %s %s\n", o.ShippingAddress.Address, o.ShippingAddress.City,
		o.ShippingAddress.State, o.ShippingAddress.Pincode)
	return Message{
		Subject: fmt.Sprintf("Order %s confirmed", o.OrderNumber),
		Body:    b.String(),
	}
}

func orderCancelledMessage(to Recipient, o *model.Order) Message {
	reason := "No reason given"
	if o.Cancellation != nil && o.Cancellation.Reason != "" {
		reason = o.Cancellation.Reason
	}
	return Message{
		Subject: fmt.Sprintf("Order %s cancelled", o.OrderNumber),
		Body: fmt.Sprintf("Namaste %s,\n\nYour order %s has been cancelled.\nReason: %s\n",
			to.Name, o.OrderNumber, reason),
	}
}

func statusChangedMessage(to Recipient, o *model.Order, previous model.OrderStatus) Message {
	return Message{
		Subject: fmt.Sprintf("Order %s is now %s", o.OrderNumber, o.Status),
		Body: fmt.Sprintf("Namaste %s,\n\nThe status of your order %s changed from %s to %s.\n",
			to.Name, o.OrderNumber, previous, o.Status),
	}
}

// LogNotifier writes notifications to the log instead of sending them.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a notifier used when SMTP is disabled.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notify").Logger()}
}

func (n *LogNotifier) log(to Recipient, msg Message) error {
	n.logger.Info().
		Str("to", to.Email).
		Str("subject", msg.Subject).
		Msg("notification")
	return nil
}

func (n *LogNotifier) OrderPlaced(_ context.Context, to Recipient, o *model.Order) error {
	return n.log(to, orderPlacedMessage(to, o))
}

func (n *LogNotifier) OrderCancelled(_ context.Context, to Recipient, o *model.Order) error {
	return n.log(to, orderCancelledMessage(to, o))
}

func (n *LogNotifier) OrderStatusChanged(_ context.Context, to Recipient, o *model.Order, previous model.OrderStatus) error {
	return n.log(to, statusChangedMessage(to, o, previous))
}
