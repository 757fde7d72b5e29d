package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

type SendGridNotifier struct {
	key  string
	from *sgmail.Email
}

func NewSendGridNotifier(key, fromEmail string) *SendGridNotifier {
	return &SendGridNotifier{
		key:  key,
		from: sgmail.NewEmail("ProctorX", fromEmail),
	}
}

func (n *SendGridNotifier) prepare(ev Event) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = "[ProctorX] " + ev.Subject()
	p.AddTos(sgmail.NewEmail(ev.Name, ev.Email))

	m := sgmail.NewV3Mail()
	m.SetFrom(n.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", ev.Body()))
	return m
}

func (n *SendGridNotifier) Notify(_ context.Context, ev Event) error {
	if ev.Email == "" {
		return nil
	}
	req := sendgrid.GetRequest(n.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(n.prepare(ev))

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("failed to send %s notification: %w", ev.Kind, err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid rejected %s notification: status %d", ev.Kind, res.StatusCode)
	}
	return nil
}
