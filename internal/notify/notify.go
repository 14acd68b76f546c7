// Package notify delivers one-way reminders. Sends never block the caller
// and are never retried.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

var ErrNoRecipient = errors.New("student has no email address")

type Message struct {
	To      mail.Address `json:"to"`
	Subject string       `json:"subject"`
	Body    string       `json:"body"`
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// ReminderFor composes the completion reminder for a lesson.
func ReminderFor(name, email, lesson string) (Message, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return Message{}, ErrNoRecipient
	}
	return Message{
		To:      mail.Address{Name: name, Address: email},
		Subject: fmt.Sprintf("[EduPulse] Nhắc nhở hoàn thành bài tập: %s", lesson),
		Body: fmt.Sprintf("Chào %s,\n\n"+
			"Hệ thống ghi nhận bạn chưa hoàn thành hoặc chưa đạt điểm mục tiêu cho bài tập \"%s\".\n\n"+
			"Bạn hãy dành thời gian vào EduPulse để ôn tập và làm bài nhé!\n\n"+
			"Trân trọng,\nGiáo viên bộ môn.", name, lesson),
	}, nil
}

// MailtoURL renders m as a mailto: link for the browser's mail composer.
func MailtoURL(m Message) string {
	return "mailto:" + m.To.Address +
		"?subject=" + encodeURIComponent(m.Subject) +
		"&body=" + encodeURIComponent(m.Body)
}

// encodeURIComponent escapes everything except A-Z a-z 0-9 and -_.!~*'(),
// as browsers do. url.QueryEscape differs: it writes spaces as '+'.
func encodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9',
			strings.IndexByte("-_.!~*'()", c) >= 0:
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&15])
		}
	}
	return b.String()
}

// Dispatcher sends messages in the background and logs failures.
type Dispatcher struct {
	sender  Sender
	log     *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(s Sender, log *slog.Logger) *Dispatcher {
	return &Dispatcher{sender: s, log: log, timeout: 30 * time.Second}
}

// Dispatch returns immediately.
func (d *Dispatcher) Dispatch(m Message) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.sender.Send(ctx, m); err != nil {
			d.log.Error("sending reminder", "to", m.To.Address, "err", err)
			return
		}
		d.log.Info("reminder sent", "to", m.To.Address)
	}()
}

// Wait blocks until in-flight sends finish. Used on shutdown and in tests.
func (d *Dispatcher) Wait() { d.wg.Wait() }
