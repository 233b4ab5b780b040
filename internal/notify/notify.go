package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"PagSeguroNotify/internal/models"
)

var ErrNoRecipient = errors.New("order has no customer email")

// Dispatcher sends the customer emails queued by order reconciliation.
type Dispatcher interface {
	SendOrderNoteNotification(ctx context.Context, order *models.Order, note models.OrderNote, lang language.Tag) error
	SendOrderCancelledNotification(ctx context.Context, order *models.Order, lang language.Tag) error
}

type Mailer interface {
	Send(ctx context.Context, e Email) error
}

type Email struct {
	FromName string
	From     string
	To       []string
	Subject  string
	TextBody string
}

// EmailDispatcher renders localized emails and hands them to a Mailer.
type EmailDispatcher struct {
	Mailer   Mailer
	From     string
	FromName string
}

type templates struct {
	noteSubject      string
	noteIntro        string
	cancelledSubject string
	cancelledBody    string
}

var supported = []language.Tag{language.BrazilianPortuguese, language.English, language.Spanish}

var matcher = language.NewMatcher(supported)

var byLanguage = map[language.Tag]templates{
	language.BrazilianPortuguese: {
		noteSubject:      "Pedido #%d: nova mensagem",
		noteIntro:        "Olá,\n\nHá uma nova atualização no seu pedido #%d:\n\n",
		cancelledSubject: "Pedido #%d cancelado",
		cancelledBody:    "Olá,\n\nSeu pedido #%d foi cancelado.\n",
	},
	language.English: {
		noteSubject:      "Order #%d: new note",
		noteIntro:        "Hello,\n\nThere is a new update on your order #%d:\n\n",
		cancelledSubject: "Order #%d cancelled",
		cancelledBody:    "Hello,\n\nYour order #%d has been cancelled.\n",
	},
	language.Spanish: {
		noteSubject:      "Pedido #%d: nuevo mensaje",
		noteIntro:        "Hola,\n\nHay una novedad en su pedido #%d:\n\n",
		cancelledSubject: "Pedido #%d cancelado",
		cancelledBody:    "Hola,\n\nSu pedido #%d ha sido cancelado.\n",
	},
}

func templatesFor(lang language.Tag) templates {
	_, idx, _ := matcher.Match(lang)
	return byLanguage[supported[idx]]
}

func (d EmailDispatcher) SendOrderNoteNotification(ctx context.Context, order *models.Order, note models.OrderNote, lang language.Tag) error {
	if strings.TrimSpace(order.CustomerEmail) == "" {
		return ErrNoRecipient
	}
	t := templatesFor(lang)
	body := fmt.Sprintf(t.noteIntro, order.ID) + note.Text
	if !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	return d.Mailer.Send(ctx, Email{
		FromName: d.FromName,
		From:     d.From,
		To:       []string{order.CustomerEmail},
		Subject:  fmt.Sprintf(t.noteSubject, order.ID),
		TextBody: body,
	})
}

func (d EmailDispatcher) SendOrderCancelledNotification(ctx context.Context, order *models.Order, lang language.Tag) error {
	if strings.TrimSpace(order.CustomerEmail) == "" {
		return ErrNoRecipient
	}
	t := templatesFor(lang)
	return d.Mailer.Send(ctx, Email{
		FromName: d.FromName,
		From:     d.From,
		To:       []string{order.CustomerEmail},
		Subject:  fmt.Sprintf(t.cancelledSubject, order.ID),
		TextBody: fmt.Sprintf(t.cancelledBody, order.ID),
	})
}
