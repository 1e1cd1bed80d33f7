// Package notify delivers invitation messages through an external mail relay.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/sirupsen/logrus"
)

// Notification types carried in the template data.
const (
	TypeBrigadeInvitation  = "brigade_invitation"
	TypeWorkerRegistration = "worker_registration"
)

// Notifier sends a templated message to one address.
type Notifier interface {
	Send(ctx context.Context, email string, data map[string]interface{}) error
}

// HTTPNotifier posts invitations to a relay endpoint, e.g. an auth provider's
// invite-by-email API.
type HTTPNotifier struct {
	url    string
	key    string
	client *http.Client
}

func NewHTTPNotifier(url, key string) *HTTPNotifier {
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = 10 * time.Second
	return &HTTPNotifier{url: url, key: key, client: client}
}

type invitePayload struct {
	Email string                 `json:"email"`
	Data  map[string]interface{} `json:"data"`
}

func (n *HTTPNotifier) Send(ctx context.Context, email string, data map[string]interface{}) error {
	body, err := json.Marshal(invitePayload{Email: email, Data: data})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if n.key != "" {
		req.Header.Set("Authorization", "Bearer "+n.key)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify relay: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("notify relay answered %s", resp.Status)
	}
	return nil
}

// LogNotifier only records what would have been sent. It is used when no
// relay is configured.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, email string, data map[string]interface{}) error {
	logrus.WithFields(logrus.Fields{"email": email, "data": data}).Info("LogNotifier: invitation not delivered, no relay configured")
	return nil
}

const dispatchTimeout = 10 * time.Second

// Dispatch sends in the background with its own deadline. Failures are
// logged and never reach the caller.
func Dispatch(n Notifier, email string, data map[string]interface{}, done func(error)) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		err := n.Send(ctx, email, data)
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"email": email,
				"type":  data["type"],
			}).Warn("Dispatch: invitation delivery failed")
		}
		if done != nil {
			done(err)
		}
	}()
}
