package mailer

import (
	"context"
	"errors"
	"strings"

	"github.com/resend/resend-go/v2"

	"github.com/angelmondragon/agencyops-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/agencyops-backend/pkg/errors"
)

// ErrDisabled is returned in Result.Err when no Resend API key is configured.
var ErrDisabled = errors.New("email delivery disabled")

// Message is a single transactional email.
type Message struct {
	To      []string
	Subject string
	HTML    string
	Tags    map[string]string
}

// Result reports the outcome of one send. Senders never return an error
// directly; callers decide whether a failed send matters.
type Result struct {
	ID  string
	Err error
}

func (r Result) Success() bool {
	return r.Err == nil
}

// Sender delivers transactional email.
type Sender interface {
	Send(ctx context.Context, msg Message) Result
}

type emailsAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendSender sends through the Resend HTTP API.
type ResendSender struct {
	emails emailsAPI
	from   string
}

// New returns a Resend-backed sender, or a disabled sender when the API key is empty.
func New(cfg config.ResendConfig) Sender {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return disabledSender{}
	}
	client := resend.NewClient(cfg.APIKey)
	return &ResendSender{emails: client.Emails, from: cfg.FromEmail}
}

func (s *ResendSender) Send(ctx context.Context, msg Message) Result {
	to := make([]string, 0, len(msg.To))
	for _, addr := range msg.To {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	if len(to) == 0 {
		return Result{Err: pkgerrors.New(pkgerrors.CodeValidation, "email has no recipients")}
	}

	req := &resend.SendEmailRequest{
		From:    s.from,
		To:      to,
		Subject: msg.Subject,
		Html:    msg.HTML,
	}
	for name, value := range msg.Tags {
		req.Tags = append(req.Tags, resend.Tag{Name: name, Value: value})
	}

	resp, err := s.emails.SendWithContext(ctx, req)
	if err != nil {
		return Result{Err: pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resend send failed")}
	}
	if resp == nil {
		return Result{}
	}
	return Result{ID: resp.Id}
}

type disabledSender struct{}

func (disabledSender) Send(context.Context, Message) Result {
	return Result{Err: ErrDisabled}
}
