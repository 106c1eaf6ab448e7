package dto

import (
	"time"

	"github.com/orris-inc/lnsubs/internal/domain/plan"
)

type PlanDTO struct {
	ID                  string    `json:"id" yaml:"id"`
	Wallet              string    `json:"wallet" yaml:"wallet"`
	Name                string    `json:"name" yaml:"name"`
	Description         string    `json:"description" yaml:"description"`
	Amount              int64     `json:"amount" yaml:"amount"`
	Interval            string    `json:"interval" yaml:"interval"`
	TrialDays           int       `json:"trial_days" yaml:"trial_days"`
	MaxSubscriptions    *int      `json:"max_subscriptions" yaml:"max_subscriptions"`
	ActiveSubscriptions int       `json:"active_subscriptions" yaml:"active_subscriptions"`
	WebhookURL          *string   `json:"webhook_url" yaml:"webhook_url"`
	SuccessMessage      string    `json:"success_message" yaml:"success_message"`
	SuccessURL          *string   `json:"success_url" yaml:"success_url"`
	CreatedAt           time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" yaml:"updated_at"`
}

// PublicPlanDTO is the subset of a plan shown to prospective subscribers.
type PublicPlanDTO struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	DescriptionHTML string `json:"description_html"`
	Amount          int64  `json:"amount"`
	Interval        string `json:"interval"`
	TrialDays       int    `json:"trial_days"`
	AvailableSlots  *int   `json:"available_slots"`
}

func ToPlanDTO(p *plan.Plan) *PlanDTO {
	if p == nil {
		return nil
	}

	return &PlanDTO{
		ID:                  p.ID(),
		Wallet:              p.Wallet(),
		Name:                p.Name(),
		Description:         p.Description(),
		Amount:              p.Amount(),
		Interval:            p.Interval().String(),
		TrialDays:           p.TrialDays(),
		MaxSubscriptions:    p.MaxSubscriptions(),
		ActiveSubscriptions: p.ActiveSubscriptions(),
		WebhookURL:          p.WebhookURL(),
		SuccessMessage:      p.SuccessMessage(),
		SuccessURL:          p.SuccessURL(),
		CreatedAt:           p.CreatedAt(),
		UpdatedAt:           p.UpdatedAt(),
	}
}

func ToPlanDTOList(plans []*plan.Plan) []*PlanDTO {
	dtos := make([]*PlanDTO, 0, len(plans))
	for _, p := range plans {
		if p != nil {
			dtos = append(dtos, ToPlanDTO(p))
		}
	}
	return dtos
}

// ToPublicPlanDTO converts p; descriptionHTML is rendered by the caller.
func ToPublicPlanDTO(p *plan.Plan, descriptionHTML string) *PublicPlanDTO {
	if p == nil {
		return nil
	}

	return &PublicPlanDTO{
		ID:              p.ID(),
		Name:            p.Name(),
		Description:     p.Description(),
		DescriptionHTML: descriptionHTML,
		Amount:          p.Amount(),
		Interval:        p.Interval().String(),
		TrialDays:       p.TrialDays(),
		AvailableSlots:  p.AvailableSlots(),
	}
}
