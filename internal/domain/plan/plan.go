package plan

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	vo "github.com/orris-inc/lnsubs/internal/domain/plan/valueobjects"
	"github.com/orris-inc/lnsubs/internal/shared/netutil"
	"github.com/orris-inc/lnsubs/internal/shared/services/markdown"
)

const (
	MaxNameLength           = 100
	MaxDescriptionLength    = 500
	MaxSuccessMessageLength = 200
	MaxURLLength            = 500
	MaxTrialDays            = 365
	MaxSubscriptionsLimit   = 1_000_000

	// MaxAmount is the total bitcoin supply expressed in satoshis.
	MaxAmount int64 = 21_000_000 * 100_000_000
)

// Spec carries the caller-editable attributes of a plan.
type Spec struct {
	Name             string
	Description      string
	Amount           int64
	Interval         string
	TrialDays        int
	MaxSubscriptions *int
	WebhookURL       *string
	SuccessMessage   string
	SuccessURL       *string
}

// Plan is the aggregate root describing a recurring price offered by a wallet.
type Plan struct {
	id                  string
	wallet              string
	name                string
	description         string
	amount              int64
	interval            vo.BillingInterval
	trialDays           int
	maxSubscriptions    *int
	activeSubscriptions int
	webhookURL          *string
	successMessage      string
	successURL          *string
	createdAt           time.Time
	updatedAt           time.Time
}

type validatedSpec struct {
	name             string
	description      string
	amount           int64
	interval         vo.BillingInterval
	trialDays        int
	maxSubscriptions *int
	webhookURL       *string
	successMessage   string
	successURL       *string
}

// NewPlan validates spec and creates a plan owned by wallet. The id is
// assigned by the caller through SetID.
func NewPlan(wallet string, spec Spec, now time.Time) (*Plan, error) {
	if strings.TrimSpace(wallet) == "" {
		return nil, invalid("wallet is required")
	}

	v, err := validateSpec(spec)
	if err != nil {
		return nil, err
	}

	p := &Plan{
		wallet:    wallet,
		createdAt: now.UTC(),
		updatedAt: now.UTC(),
	}
	p.apply(v)

	return p, nil
}

// ReconstructPlan rebuilds a plan from persistence without re-running input validation.
func ReconstructPlan(
	id, wallet, name, description string,
	amount int64,
	interval vo.BillingInterval,
	trialDays int,
	maxSubscriptions *int,
	activeSubscriptions int,
	webhookURL *string,
	successMessage string,
	successURL *string,
	createdAt, updatedAt time.Time,
) (*Plan, error) {
	if id == "" {
		return nil, fmt.Errorf("plan ID cannot be empty")
	}
	if wallet == "" {
		return nil, fmt.Errorf("plan wallet cannot be empty")
	}

	return &Plan{
		id:                  id,
		wallet:              wallet,
		name:                name,
		description:         description,
		amount:              amount,
		interval:            interval,
		trialDays:           trialDays,
		maxSubscriptions:    maxSubscriptions,
		activeSubscriptions: activeSubscriptions,
		webhookURL:          webhookURL,
		successMessage:      successMessage,
		successURL:          successURL,
		createdAt:           createdAt,
		updatedAt:           updatedAt,
	}, nil
}

func (p *Plan) ID() string                   { return p.id }
func (p *Plan) Wallet() string               { return p.wallet }
func (p *Plan) Name() string                 { return p.name }
func (p *Plan) Description() string          { return p.description }
func (p *Plan) Amount() int64                { return p.amount }
func (p *Plan) Interval() vo.BillingInterval { return p.interval }
func (p *Plan) TrialDays() int               { return p.trialDays }
func (p *Plan) MaxSubscriptions() *int       { return p.maxSubscriptions }
func (p *Plan) ActiveSubscriptions() int     { return p.activeSubscriptions }
func (p *Plan) WebhookURL() *string          { return p.webhookURL }
func (p *Plan) SuccessMessage() string       { return p.successMessage }
func (p *Plan) SuccessURL() *string          { return p.successURL }
func (p *Plan) CreatedAt() time.Time         { return p.createdAt }
func (p *Plan) UpdatedAt() time.Time         { return p.updatedAt }

// SetID sets the plan ID (only for persistence layer use)
func (p *Plan) SetID(id string) error {
	if p.id != "" {
		return fmt.Errorf("plan ID is already set")
	}
	if id == "" {
		return fmt.Errorf("plan ID cannot be empty")
	}
	p.id = id
	return nil
}

// OwnedBy reports whether wallet owns the plan.
func (p *Plan) OwnedBy(wallet string) bool {
	return p.wallet == wallet
}

// AvailableSlots is the remaining capacity, or nil when the plan is unlimited.
func (p *Plan) AvailableSlots() *int {
	if p.maxSubscriptions == nil {
		return nil
	}
	slots := *p.maxSubscriptions - p.activeSubscriptions
	if slots < 0 {
		slots = 0
	}
	return &slots
}

// Update replaces every editable attribute. The id, owner and live counter
// are left alone; nothing changes if validation fails.
func (p *Plan) Update(spec Spec, now time.Time) error {
	v, err := validateSpec(spec)
	if err != nil {
		return err
	}

	p.apply(v)
	p.updatedAt = now.UTC()
	return nil
}

func (p *Plan) apply(v *validatedSpec) {
	p.name = v.name
	p.description = v.description
	p.amount = v.amount
	p.interval = v.interval
	p.trialDays = v.trialDays
	p.maxSubscriptions = v.maxSubscriptions
	p.webhookURL = v.webhookURL
	p.successMessage = v.successMessage
	p.successURL = v.successURL
}

func validateSpec(spec Spec) (*validatedSpec, error) {
	name := markdown.StripTags(spec.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return nil, invalid("name must be at most %d characters", MaxNameLength)
	}

	description := markdown.StripTags(spec.Description)
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return nil, invalid("description must be at most %d characters", MaxDescriptionLength)
	}

	if spec.Amount <= 0 {
		return nil, invalid("amount must be greater than zero")
	}
	if spec.Amount > MaxAmount {
		return nil, invalid("amount must not exceed %d", MaxAmount)
	}

	interval, err := vo.ParseBillingInterval(spec.Interval)
	if err != nil {
		return nil, invalid("%v", err)
	}

	if spec.TrialDays < 0 || spec.TrialDays > MaxTrialDays {
		return nil, invalid("trial_days must be between 0 and %d", MaxTrialDays)
	}

	if spec.MaxSubscriptions != nil {
		if *spec.MaxSubscriptions <= 0 || *spec.MaxSubscriptions > MaxSubscriptionsLimit {
			return nil, invalid("max_subscriptions must be between 1 and %d", MaxSubscriptionsLimit)
		}
	}

	webhookURL, err := normalizeURL("webhook_url", spec.WebhookURL, true)
	if err != nil {
		return nil, err
	}

	successURL, err := normalizeURL("success_url", spec.SuccessURL, false)
	if err != nil {
		return nil, err
	}

	successMessage := markdown.StripTags(spec.SuccessMessage)
	if utf8.RuneCountInString(successMessage) > MaxSuccessMessageLength {
		return nil, invalid("success_message must be at most %d characters", MaxSuccessMessageLength)
	}

	return &validatedSpec{
		name:             name,
		description:      description,
		amount:           spec.Amount,
		interval:         interval,
		trialDays:        spec.TrialDays,
		maxSubscriptions: copyInt(spec.MaxSubscriptions),
		webhookURL:       webhookURL,
		successMessage:   successMessage,
		successURL:       successURL,
	}, nil
}

// normalizeURL trims raw and returns nil for an empty value. Webhook targets
// must not point at private networks.
func normalizeURL(field string, raw *string, rejectPrivate bool) (*string, error) {
	if raw == nil {
		return nil, nil
	}

	value := strings.TrimSpace(*raw)
	if value == "" {
		return nil, nil
	}
	if len(value) > MaxURLLength {
		return nil, invalid("%s must be at most %d characters", field, MaxURLLength)
	}

	parsed, err := url.Parse(value)
	if err != nil || parsed.Host == "" {
		return nil, invalid("%s must be a valid URL", field)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, invalid("%s must use http or https", field)
	}
	if rejectPrivate && netutil.IsPrivateHost(parsed.Hostname()) {
		return nil, invalid("%s must not target a private or local address", field)
	}

	return &value, nil
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
