// Package notify delivers new-lead notifications to account owners. Delivery
// is at-least-once: the pipeline persists the lead before requesting the
// notification, and a failed send is logged, never retried into the run.
package notify

import (
	"context"

	"github.com/reka-labs/salesbot/internal/model"
)

// Notifier receives each newly persisted lead.
type Notifier interface {
	Notify(ctx context.Context, account model.Account, lead model.Lead, profile model.Profile, insight *model.ResearchInsight) error
}

// Nop is a Notifier that does nothing. Used when SMTP is not configured.
type Nop struct{}

func (Nop) Notify(context.Context, model.Account, model.Lead, model.Profile, *model.ResearchInsight) error {
	return nil
}
