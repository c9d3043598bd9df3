package outbox

import (
	"context"
	"encoding/json"

	"github.com/NordCoder/SiteStatus/internal/domain/outbox"
	"github.com/NordCoder/SiteStatus/internal/domain/status"
	kafkax "github.com/NordCoder/SiteStatus/internal/repository/kafka"
)

// Events records run events in the outbox; the Runner delivers them later.
type Events struct {
	Repo outbox.Repository
}

var _ status.RunEvents = Events{}

func (e Events) PublishRunCompleted(ctx context.Context, s status.RunSummary) error {
	data, err := json.Marshal(kafkax.NewRunCompleted(s))
	if err != nil {
		return err
	}
	return e.Repo.Enqueue(ctx, "run_completed:"+s.RunID, outbox.KindRunCompleted, data)
}
