package notify

import (
	"context"
	"net/http"
	"net/mail"

	"github.com/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

type SendGridSender struct {
	key  string
	from *sgmail.Email
	host string
}

var _ Sender = (*SendGridSender)(nil)

func NewSendGridSender(apiKey string, from mail.Address) *SendGridSender {
	return &SendGridSender{key: apiKey, from: sgmail.NewEmail(from.Name, from.Address), host: sendgridHost}
}

// WithHost points the sender at another API host.
func (s *SendGridSender) WithHost(host string) *SendGridSender {
	s.host = host
	return s
}

func (s *SendGridSender) prepare(m Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = m.Subject
	p.AddTos(sgmail.NewEmail(m.To.Name, m.To.Address))

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(s.from)
	v3.AddPersonalizations(p)
	v3.AddContent(sgmail.NewContent("text/plain", m.Body))
	return v3
}

func (s *SendGridSender) Send(ctx context.Context, m Message) error {
	req := sendgrid.GetRequest(s.key, sendgridEndpoint, s.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.prepare(m))

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return errors.Wrap(err, "sendgrid")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("sendgrid: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}
