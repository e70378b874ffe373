package advisor

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kamiltczarnik/Lira/apperror"
	"github.com/Kamiltczarnik/Lira/models"
)

// Completer is a chat-completion backend: role-tagged messages in, one assistant reply out.
type Completer interface {
	Complete(ctx context.Context, model string, messages []Message) (string, error)
}

// Advisor answers customer questions grounded on the product catalog.
type Advisor struct {
	catalog   PromptSource
	completer Completer
	model     string
	timeout   time.Duration
	log       logrus.FieldLogger
}

// New creates an Advisor. A positive timeout bounds each completion call.
func New(catalog PromptSource, completer Completer, model string, timeout time.Duration, log logrus.FieldLogger) *Advisor {
	return &Advisor{
		catalog:   catalog,
		completer: completer,
		model:     model,
		timeout:   timeout,
		log:       log,
	}
}

// Reply asks the completer for the next assistant turn. profile may be nil.
// Every failure comes back as an *apperror.UpstreamError.
func (a *Advisor) Reply(ctx context.Context, history []Message, latest string, profile *models.CustomerProfile) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	messages := BuildMessages(SystemPrompt(a.catalog), profile, history, latest)

	start := time.Now()
	reply, err := a.completer.Complete(ctx, a.model, messages)
	logEntry := a.log.WithFields(logrus.Fields{
		"model":      a.model,
		"messages":   len(messages),
		"durationMs": time.Since(start).Milliseconds(),
	})
	if err != nil {
		logEntry.WithError(err).Error("Advisor.Reply.Error")
		if !apperror.IsUpstream(err) {
			err = apperror.Upstream("chat", err)
		}
		return "", err
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		logEntry.Error("Advisor.Reply.Empty")
		return "", apperror.Upstream("chat", errors.New("empty reply"))
	}

	logEntry.Debug("Advisor.Reply.Complete")
	return reply, nil
}
