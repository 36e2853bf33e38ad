package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"divyashree/internal/config"
	"divyashree/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error {
	args := m.Called(ctx, messages)
	return args.Error(0)
}

func sampleOrder() *model.Order {
	return &model.Order{
		OrderNumber: "DS12345678",
		Items: []model.OrderItem{
			{Name: "Banarasi Saree", Price: 500, Quantity: 2},
		},
		ShippingAddress: model.ShippingAddress{
			Address: "12 MG Road", City: "Pune", State: "Maharashtra", Pincode: "411001",
		},
		PaymentMethod: model.PaymentCOD,
		Total:         1000,
		Status:        model.StatusShipped,
	}
}

func TestMessages(t *testing.T) {
	to := Recipient{Name: "Asha", Email: "asha@example.com"}
	o := sampleOrder()

	placed := orderPlacedMessage(to, o)
	assert.Equal(t, "Order DS12345678 confirmed", placed.Subject)
	assert.Contains(t, placed.Body, "2 x Banarasi Saree  Rs. 1000.00")
	assert.Contains(t, placed.Body, "Total: Rs. 1000.00 (COD)")

	cancelled := orderCancelledMessage(to, o)
	assert.Contains(t, cancelled.Body, "No reason given")
	o.Cancellation = &model.Cancellation{Reason: "Ordered by mistake"}
	cancelled = orderCancelledMessage(to, o)
	assert.Contains(t, cancelled.Body, "Ordered by mistake")

	changed := statusChangedMessage(to, o, model.StatusProcessing)
	assert.Equal(t, "Order DS12345678 is now shipped", changed.Subject)
	assert.Contains(t, changed.Body, "from processing to shipped")
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(zerolog.New(&buf))

	require.NoError(t, n.OrderPlaced(context.Background(), Recipient{Email: "a@example.com"}, sampleOrder()))
	assert.Contains(t, buf.String(), `"subject":"Order DS12345678 confirmed"`)
	assert.Contains(t, buf.String(), `"to":"a@example.com"`)
}

func TestSMTPNotifier_Send(t *testing.T) {
	sender := new(mockSender)
	n := &SMTPNotifier{client: sender, from: "orders@divyashree.in", logger: zerolog.Nop()}
	to := Recipient{Name: "Asha", Email: "asha@example.com"}

	sender.On("DialAndSendWithContext", mock.Anything, mock.MatchedBy(func(msgs []*mail.Msg) bool {
		if len(msgs) != 1 {
			return false
		}
		subject := msgs[0].GetGenHeader(mail.HeaderSubject)
		return len(subject) == 1 && subject[0] == "Order DS12345678 is now shipped"
	})).Return(nil).Once()

	err := n.OrderStatusChanged(context.Background(), to, sampleOrder(), model.StatusProcessing)
	require.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestSMTPNotifier_Errors(t *testing.T) {
	sender := new(mockSender)
	n := &SMTPNotifier{client: sender, from: "orders@divyashree.in", logger: zerolog.Nop()}

	err := n.OrderPlaced(context.Background(), Recipient{Name: "No Email"}, sampleOrder())
	assert.Error(t, err)
	sender.AssertNotCalled(t, "DialAndSendWithContext", mock.Anything, mock.Anything)

	sender.On("DialAndSendWithContext", mock.Anything, mock.Anything).Return(errors.New("connection refused")).Once()
	err = n.OrderCancelled(context.Background(), Recipient{Email: "a@example.com"}, sampleOrder())
	assert.ErrorContains(t, err, "connection refused")
}

func TestNew(t *testing.T) {
	n, err := New(config.SMTPConfig{}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &LogNotifier{}, n)

	n, err = New(config.SMTPConfig{Enabled: true, Host: "localhost", Port: 2525, From: "a@example.com"}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &SMTPNotifier{}, n)
}
