package mailer

import (
	"context"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPSender_SendMail(t *testing.T) {
	s, err := NewSMTPSender("smtp.example", "587", "shop@example.com", "pw", "")
	require.NoError(t, err)

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	s.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	require.NoError(t, s.SendMail(context.Background(), "buyer@example.com", "Your gift", "<p>hi</p>"))
	assert.Equal(t, "smtp.example:587", gotAddr)
	assert.Equal(t, "shop@example.com", gotFrom)
	assert.Equal(t, []string{"buyer@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Content-Type: text/html; charset=UTF-8")
	assert.Contains(t, string(gotMsg), "\r\n\r\n<p>hi</p>")
}

func TestSMTPSender_RejectsHeaderInjection(t *testing.T) {
	s, err := NewSMTPSender("smtp.example", "25", "", "", "shop@example.com")
	require.NoError(t, err)
	s.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called")
		return nil
	}

	err = s.SendMail(context.Background(), "a@example.com\r\nBcc: x@example.com", "s", "b")
	assert.Error(t, err)
}

func TestNewSMTPSender_MissingHost(t *testing.T) {
	_, err := NewSMTPSender("", "25", "", "", "x@example.com")
	assert.Error(t, err)
}
