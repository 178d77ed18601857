package email

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeSender struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func TestSendWelcome(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(sender, "portal@clinic.test")

	require.NoError(t, svc.SendWelcome(context.Background(), "luis@clinic.test", "Luis"))
	require.Len(t, sender.sent, 1)

	m := sender.sent[0]
	assert.Equal(t, []string{"portal@clinic.test"}, m.GetHeader("From"))
	assert.Equal(t, []string{"luis@clinic.test"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Welcome to the clinic portal"}, m.GetHeader("Subject"))
}

func TestSendCustomErrors(t *testing.T) {
	sender := &fakeSender{err: errors.New("connection refused")}
	svc := NewService(sender, "portal@clinic.test")

	err := svc.SendCustom(context.Background(), "a@x.com", "Hi", "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a@x.com")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sender.err = nil
	assert.ErrorIs(t, svc.SendCustom(ctx, "a@x.com", "Hi", "body"), context.Canceled)
	assert.Empty(t, sender.sent)
}
