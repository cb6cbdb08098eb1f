package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/subgarden/subgarden/internal/domain"
)

const defaultSendTimeout = 10 * time.Second

// Dispatcher fans a rendered notification out to every enabled channel.
// Channels are attempted independently and in parallel; one channel's
// failure never prevents another from being tried, and no channel can
// stall the pass past its send timeout.
type Dispatcher struct {
	senders     map[string]Sender
	sendTimeout time.Duration
}

// NewDispatcher creates a dispatcher over the given senders. A
// non-positive timeout falls back to the default.
func NewDispatcher(sendTimeout time.Duration, senders ...Sender) *Dispatcher {
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	m := make(map[string]Sender, len(senders))
	for _, s := range senders {
		m[s.Name()] = s
	}
	return &Dispatcher{senders: m, sendTimeout: sendTimeout}
}

// Dispatch adapts the common body to each enabled channel's markup and
// delivers it, returning one result per attempted channel in the order
// of the enabled list. Enabled names with no registered sender are
// skipped silently.
func (d *Dispatcher) Dispatch(ctx context.Context, title, body string, cfg domain.NotificationSettings) []Result {
	type task struct {
		name   string
		sender Sender
	}

	var tasks []task
	for _, name := range cfg.EnabledChannels {
		sender, ok := d.senders[name]
		if !ok {
			slog.Debug("no sender registered for channel, skipping", "channel", name)
			continue
		}
		tasks = append(tasks, task{name: name, sender: sender})
	}

	results := make([]Result, len(tasks))

	var wg sync.WaitGroup
	for i, t := range tasks {
		wg.Add(1)
		go func(i int, t task) {
			defer wg.Done()

			sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
			defer cancel()

			start := time.Now()
			err := t.sender.Send(sendCtx, adaptMessage(t.name, title, body), cfg)
			recordSendDuration(t.name, time.Since(start))

			if err != nil {
				slog.Error("channel delivery failed", "channel", t.name, "error", err)
				recordSent(t.name, "failed")
				results[i] = Result{
					Channel: t.name,
					Success: false,
					Message: err.Error(),
				}
				return
			}

			recordSent(t.name, "success")
			results[i] = Result{Channel: t.name, Success: true, Message: "delivered"}
		}(i, t)
	}
	wg.Wait()

	return results
}

// adaptMessage re-renders the common markdown body into the shape each
// channel expects: markdown headings for notifyx, single-line bold text
// for telegram, plain text for webhook, wechatbot and email.
func adaptMessage(channel, title, body string) Message {
	switch channel {
	case domain.ChannelNotifyX:
		return Message{
			Title: title,
			Body:  fmt.Sprintf("## %s\n\n%s", title, body),
		}
	case domain.ChannelTelegram:
		return Message{
			Title: title,
			Body:  fmt.Sprintf("*%s*\n\n%s", title, CollapseWhitespace(body)),
		}
	case domain.ChannelWebhook, domain.ChannelWechatBot, domain.ChannelEmail:
		return Message{Title: title, Body: StripMarkdown(body)}
	default:
		return Message{Title: title, Body: body}
	}
}
