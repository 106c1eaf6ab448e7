// Package webhook notifies plan owners about lifecycle events over HTTP.
// Delivery is best effort: one signed POST per event, no retries.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	paymentdto "github.com/orris-inc/lnsubs/internal/application/payment/dto"
	subdto "github.com/orris-inc/lnsubs/internal/application/subscription/dto"
	"github.com/orris-inc/lnsubs/internal/application/subscription/lifecycle"
	"github.com/orris-inc/lnsubs/internal/shared/constants"
	"github.com/orris-inc/lnsubs/internal/shared/goroutine"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
	"github.com/orris-inc/lnsubs/internal/shared/netutil"
)

const defaultTimeout = 5 * time.Second

// Payload is the JSON body of every webhook request.
type Payload struct {
	ID           string                  `json:"id"`
	Type         string                  `json:"type"`
	PlanID       string                  `json:"plan_id"`
	OccurredAt   time.Time               `json:"occurred_at"`
	Subscription *subdto.SubscriptionDTO `json:"subscription"`
	Payment      *paymentdto.PaymentDTO  `json:"payment,omitempty"`
}

type Publisher struct {
	secret string
	client *http.Client
	logger logger.Interface
	wg     sync.WaitGroup

	allowPrivateHosts bool
}

var _ lifecycle.Publisher = (*Publisher)(nil)

func NewPublisher(secret string, timeout time.Duration, log logger.Interface) *Publisher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Publisher{
		secret: secret,
		client: &http.Client{
			Timeout: timeout,
			// a redirect could point at a private host
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: log.With("component", "webhook"),
	}
}

// Publish snapshots the event and sends it in the background. Events for
// plans without a webhook URL are dropped.
func (p *Publisher) Publish(_ context.Context, event lifecycle.Event) {
	if event.Plan == nil || event.Plan.WebhookURL() == nil || event.Subscription == nil {
		return
	}
	target := *event.Plan.WebhookURL()

	payload := Payload{
		ID:           uuid.NewString(),
		Type:         string(event.Type),
		PlanID:       event.Plan.ID(),
		OccurredAt:   event.OccurredAt.UTC(),
		Subscription: subdto.ToSubscriptionDTO(event.Subscription),
	}
	if event.Attempt != nil {
		payload.Payment = paymentdto.ToPaymentDTO(event.Attempt)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		p.logger.Errorw("failed to encode webhook payload", "event", payload.Type, "error", err)
		return
	}

	p.wg.Add(1)
	goroutine.SafeGo(p.logger, "webhook-delivery", func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), p.client.Timeout)
		defer cancel()

		if err := p.deliver(ctx, target, payload, body); err != nil {
			p.logger.Warnw("webhook delivery failed",
				"event", payload.Type,
				"event_id", payload.ID,
				"plan_id", payload.PlanID,
				"error", err,
			)
		}
	})
}

// Wait blocks until every in-flight delivery has finished.
func (p *Publisher) Wait() {
	p.wg.Wait()
}

func (p *Publisher) deliver(ctx context.Context, target string, payload Payload, body []byte) error {
	parsed, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("invalid webhook url: %w", err)
	}
	if !p.allowPrivateHosts && netutil.IsPrivateHost(parsed.Hostname()) {
		return fmt.Errorf("webhook url targets a private host")
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(constants.HeaderWebhookEvent, payload.Type)
	req.Header.Set(constants.HeaderWebhookEventID, payload.ID)
	req.Header.Set(constants.HeaderWebhookTimestamp, timestamp)
	if p.secret != "" {
		req.Header.Set(constants.HeaderWebhookSig, Sign(p.secret, timestamp, body))
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("receiver returned status %d", resp.StatusCode)
	}

	p.logger.Debugw("webhook delivered", "event", payload.Type, "event_id", payload.ID)
	return nil
}

// Sign returns "sha256=" followed by the hex HMAC-SHA256 of
// "<timestamp>.<body>" under secret.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature produced by Sign in constant time.
func Verify(secret, timestamp string, body []byte, signature string) bool {
	return hmac.Equal([]byte(Sign(secret, timestamp, body)), []byte(signature))
}
