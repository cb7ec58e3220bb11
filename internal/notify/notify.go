package notify

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/example/studycore/internal/spaced_repetition"
	"github.com/example/studycore/pkg/models"
)

// Notifier delivers a due digest to one user over some channel
type Notifier interface {
	NotifyDue(ctx context.Context, user models.User, due spaced_repetition.DueSet) error
}

// EmailNotifier sends digests by email
type EmailNotifier struct {
	mailer *Mailer
	appURL string
}

// NewEmailNotifier creates a digest notifier over a mailer
func NewEmailNotifier(mailer *Mailer, appURL string) *EmailNotifier {
	return &EmailNotifier{mailer: mailer, appURL: appURL}
}

// NotifyDue implements Notifier
func (n *EmailNotifier) NotifyDue(ctx context.Context, user models.User, due spaced_repetition.DueSet) error {
	if user.Email == "" {
		return nil
	}
	text := FormatDigest(due)
	if n.appURL != "" {
		text += "\nOpen your dashboard: " + n.appURL + "\n"
	}
	return n.mailer.Send(ctx, Email{
		To:      []EmailAddress{{Email: user.Email, Name: user.Name}},
		Subject: DigestSubject(due),
		Text:    text,
	})
}

// NotifyFeedback forwards a feedback message to the given inbox
func (m *Mailer) NotifyFeedback(ctx context.Context, to string, fb models.Feedback) error {
	if to == "" {
		return fmt.Errorf("feedback inbox not configured")
	}
	var reply *EmailAddress
	if strings.Contains(fb.Email, "@") {
		reply = &EmailAddress{Email: fb.Email, Name: fb.Name}
	}
	text := fmt.Sprintf("Type: %s\nFrom: %s <%s>\n\n%s\n", fb.Type, fb.Name, fb.Email, fb.Message)
	return m.Send(ctx, Email{
		To:      []EmailAddress{{Email: to}},
		ReplyTo: reply,
		Subject: fmt.Sprintf("New feedback: %s", fb.Type),
		Text:    text,
	})
}

// Multi fans a digest out to several channels at once. The first error is
// returned after every channel has been tried.
type Multi []Notifier

// NotifyDue implements Notifier
func (m Multi) NotifyDue(ctx context.Context, user models.User, due spaced_repetition.DueSet) error {
	var g errgroup.Group
	for _, n := range m {
		if n == nil {
			continue
		}
		n := n
		g.Go(func() error {
			return n.NotifyDue(ctx, user, due)
		})
	}
	return g.Wait()
}
