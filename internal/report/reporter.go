package report

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"self-screening-bot/internal/platform/log"
)

const alertTimeout = 10 * time.Second

// maxAlertLen keeps alerts under Telegram's message size limit.
const maxAlertLen = 3500

type AlertSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Reporter is the sink for collaborator failures: every error is logged and,
// when an alert channel is configured, forwarded to the on-call chat.
type Reporter struct {
	alerts  AlertSender
	chatID  int64
	service string

	wg sync.WaitGroup
}

// NewReporter builds a reporter. alerts may be nil to only log.
func NewReporter(alerts AlertSender, chatID int64, service string) *Reporter {
	return &Reporter{
		alerts:  alerts,
		chatID:  chatID,
		service: service,
	}
}

func (r *Reporter) Capture(ctx context.Context, err error) {
	if err == nil {
		return
	}
	log.FromCtx(ctx).Error().Err(err).Msg("captured error")

	if r.alerts == nil {
		return
	}

	text := fmt.Sprintf("[%s] %s", r.service, err.Error())
	text = truncate(text, maxAlertLen)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), alertTimeout)
		defer cancel()

		if err := r.alerts.SendMessage(sendCtx, r.chatID, text); err != nil {
			log.FromCtx(ctx).Warn().Err(err).Msg("failed to send error alert")
		}
	}()
}

// Wait blocks until in-flight alerts are delivered. Called on shutdown.
func (r *Reporter) Wait() {
	r.wg.Wait()
}

// truncate cuts text to at most n bytes on a rune boundary.
func truncate(text string, n int) string {
	if len(text) <= n {
		return text
	}
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return text[:n] + "…"
}
