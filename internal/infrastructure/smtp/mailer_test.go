package smtp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
	"gopkg.in/gomail.v2"
)

type mockSender struct{ mock.Mock }

func (m *mockSender) DialAndSend(msgs ...*gomail.Message) error {
	return m.Called(msgs[0]).Error(0)
}

func TestSendEmail_SetsHeaders(t *testing.T) {
	s := &mockSender{}
	var sent *gomail.Message
	s.On("DialAndSend", mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(0).(*gomail.Message)
	}).Return(nil)

	m := newMailer(s, "Portfolio <noreply@designed.example>", rate.NewLimiter(rate.Inf, 1))
	require.NoError(t, m.SendEmail(context.Background(), "viewer@example.com", "Sign in", "<p>hi</p>"))

	require.NotNil(t, sent)
	assert.Equal(t, []string{"viewer@example.com"}, sent.GetHeader("To"))
	assert.Equal(t, []string{"Sign in"}, sent.GetHeader("Subject"))
	require.Len(t, sent.GetHeader("Message-ID"), 1)
	assert.Contains(t, sent.GetHeader("Message-ID")[0], "@designed.example>")
}

func TestSendEmail_WrapsDialError(t *testing.T) {
	s := &mockSender{}
	s.On("DialAndSend", mock.Anything).Return(errors.New("connection refused"))

	m := newMailer(s, "noreply@example.com", rate.NewLimiter(rate.Inf, 1))
	err := m.SendEmail(context.Background(), "a@b.com", "s", "b")
	assert.ErrorContains(t, err, "connection refused")
}

func TestSendEmail_ThrottleHonoursContext(t *testing.T) {
	s := &mockSender{}
	m := newMailer(s, "noreply@example.com", rate.NewLimiter(rate.Limit(0.001), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.SendEmail(ctx, "a@b.com", "s", "b")
	require.Error(t, err)
	s.AssertNotCalled(t, "DialAndSend", mock.Anything)
}

func TestMessageIDHost(t *testing.T) {
	assert.Equal(t, "example.com", messageIDHost("Name <x@example.com>"))
	assert.Equal(t, "localhost", messageIDHost("not an address"))
}
