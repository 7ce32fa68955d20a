package email

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type captureDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *captureDialer) DialAndSend(m ...*gomail.Message) error {
	d.sent = append(d.sent, m...)
	return d.err
}

func TestSendCustom(t *testing.T) {
	d := &captureDialer{}
	svc := &smtpService{from: "dashboard@clinic.lk", dialer: d, logger: zerolog.Nop()}

	require.NoError(t, svc.SendCustom(context.Background(), "desk@clinic.lk", "SMS not sent", "body text"))
	require.Len(t, d.sent, 1)

	m := d.sent[0]
	assert.Equal(t, []string{"dashboard@clinic.lk"}, m.GetHeader("From"))
	assert.Equal(t, []string{"desk@clinic.lk"}, m.GetHeader("To"))
	assert.Equal(t, []string{"SMS not sent"}, m.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "body text")
}

func TestSendCustomErrors(t *testing.T) {
	d := &captureDialer{err: errors.New("535 auth failed")}
	svc := &smtpService{from: "a@b.c", dialer: d, logger: zerolog.Nop()}

	err := svc.SendCustom(context.Background(), "x@y.z", "s", "c")
	assert.ErrorContains(t, err, "535 auth failed")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, svc.SendCustom(ctx, "x@y.z", "s", "c"), context.Canceled)
	assert.Len(t, d.sent, 1)
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.SendCustom(context.Background(), "", "", ""))
}
