package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/resend/resend-go/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"notification-hub/internal/domain"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*resend.SendEmailResponse), args.Error(1)
}

func TestSendNotificationEmail(t *testing.T) {
	ctx := context.Background()
	notif := &domain.Notification{
		ID:          uuid.New(),
		Title:       "Camera Lobby - Turned off",
		Description: "Sara performed action 'turned_off' on camera 'Lobby'",
		Priority:    domain.PriorityHigh,
		Timestamp:   time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
	}

	t.Run("Success", func(t *testing.T) {
		sender := new(mockSender)
		svc, err := NewServiceWithSender(sender, "alerts@example.com")
		require.NoError(t, err)

		sender.On("SendWithContext", ctx, mock.MatchedBy(func(p *resend.SendEmailRequest) bool {
			return p.From == "Notification Hub <alerts@example.com>" &&
				len(p.To) == 1 && p.To[0] == "m@example.com" &&
				p.Subject == "[HIGH] Camera Lobby - Turned off" &&
				assert.Contains(t, p.Html, "Hi Mina") &&
				assert.Contains(t, p.Html, "turned_off")
		})).Return(&resend.SendEmailResponse{Id: "1"}, nil).Once()

		assert.NoError(t, svc.SendNotificationEmail(ctx, "m@example.com", "Mina", notif))
		sender.AssertExpectations(t)
	})

	t.Run("Provider error", func(t *testing.T) {
		sender := new(mockSender)
		svc, err := NewServiceWithSender(sender, "alerts@example.com")
		require.NoError(t, err)

		sender.On("SendWithContext", ctx, mock.Anything).Return(nil, errors.New("rate limited")).Once()

		assert.Error(t, svc.SendNotificationEmail(ctx, "m@example.com", "Mina", notif))
	})
}
