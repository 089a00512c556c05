package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/agencyops-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/agencyops-backend/pkg/errors"
)

type stubEmails struct {
	got  *resend.SendEmailRequest
	resp *resend.SendEmailResponse
	err  error
}

func (s *stubEmails) SendWithContext(_ context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	s.got = params
	return s.resp, s.err
}

func TestResendSenderSends(t *testing.T) {
	stub := &stubEmails{resp: &resend.SendEmailResponse{Id: "email_123"}}
	sender := &ResendSender{emails: stub, from: "Agency <hello@agency.test>"}

	res := sender.Send(context.Background(), Message{
		To:      []string{" owner@acme.com ", ""},
		Subject: "Order confirmed",
		HTML:    "<p>hi</p>",
		Tags:    map[string]string{"kind": "order_confirmation"},
	})

	require.True(t, res.Success())
	assert.Equal(t, "email_123", res.ID)
	require.NotNil(t, stub.got)
	assert.Equal(t, []string{"owner@acme.com"}, stub.got.To)
	assert.Equal(t, "Agency <hello@agency.test>", stub.got.From)
	assert.Equal(t, []resend.Tag{{Name: "kind", Value: "order_confirmation"}}, stub.got.Tags)
}

func TestResendSenderReportsFailure(t *testing.T) {
	stub := &stubEmails{err: errors.New("rate limited")}
	sender := &ResendSender{emails: stub, from: "hello@agency.test"}

	res := sender.Send(context.Background(), Message{To: []string{"owner@acme.com"}, Subject: "x"})
	require.False(t, res.Success())
	assert.True(t, pkgerrors.HasCode(res.Err, pkgerrors.CodeDependency))
}

func TestResendSenderRequiresRecipient(t *testing.T) {
	stub := &stubEmails{}
	sender := &ResendSender{emails: stub}

	res := sender.Send(context.Background(), Message{To: []string{"  "}})
	require.False(t, res.Success())
	assert.Nil(t, stub.got)
}

func TestNewWithoutKeyIsDisabled(t *testing.T) {
	sender := New(config.ResendConfig{})
	res := sender.Send(context.Background(), Message{To: []string{"owner@acme.com"}})
	assert.ErrorIs(t, res.Err, ErrDisabled)
}
