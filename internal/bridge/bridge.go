// Package bridge posts server events to external chat webhooks so a
// community can follow the server without being logged in. Delivery is
// strictly fire-and-forget: a dead webhook must never slow the relay.
package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	requestTimeout = time.Second
	queueSize      = 64
)

type message struct {
	url  string
	text string
}

// Notifier delivers event lines to the configured webhooks from a single
// background worker. A nil Notifier is valid and drops everything, which
// keeps call sites free of config checks.
type Notifier struct {
	url      string
	adminURL string
	log      *logrus.Logger
	client   *http.Client
	queue    chan message
	done     chan struct{}
}

// NewNotifier returns nil when no webhook is configured.
func NewNotifier(url, adminURL string, log *logrus.Logger) *Notifier {
	if url == "" && adminURL == "" {
		return nil
	}
	n := &Notifier{
		url:      url,
		adminURL: adminURL,
		log:      log,
		client:   &http.Client{Timeout: requestTimeout},
		queue:    make(chan message, queueSize),
		done:     make(chan struct{}),
	}
	go n.worker()
	return n
}

// PublishChat posts one public chat line.
func (n *Notifier) PublishChat(name, text string) {
	n.publish(n.urlOrEmpty(), fmt.Sprintf("**%s**: %s", name, text))
}

// PublishAnnouncement posts a server announcement.
func (n *Notifier) PublishAnnouncement(text string) {
	n.publish(n.urlOrEmpty(), "*"+text+"*")
}

// PublishAdmin posts to the admin-only webhook (kicks, violations).
func (n *Notifier) PublishAdmin(text string) {
	if n == nil {
		return
	}
	n.publish(n.adminURL, text)
}

func (n *Notifier) urlOrEmpty() string {
	if n == nil {
		return ""
	}
	return n.url
}

func (n *Notifier) publish(url, text string) {
	if n == nil || url == "" {
		return
	}
	select {
	case n.queue <- message{url: url, text: text}:
	default:
		// A stalled webhook does not get to stall the game.
	}
}

// Close drains nothing and stops the worker.
func (n *Notifier) Close() {
	if n == nil {
		return
	}
	close(n.queue)
	<-n.done
}

func (n *Notifier) worker() {
	defer close(n.done)
	for m := range n.queue {
		n.post(m.url, m.text)
	}
}

func (n *Notifier) post(url, text string) {
	payload, err := json.Marshal(map[string]string{"content": text})
	if err != nil {
		return
	}
	resp, err := n.client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		n.log.WithError(err).Debug("webhook post failed")
		return
	}
	resp.Body.Close()
}
