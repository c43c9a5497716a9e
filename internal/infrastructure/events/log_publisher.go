package events

import (
	"context"

	"github.com/riskibarqy/gym-league/internal/domain/event"
	"github.com/riskibarqy/gym-league/internal/platform/logging"
	"github.com/riskibarqy/gym-league/internal/platform/metrics"
)

// LogPublisher writes events to the structured log. Used when no broker is configured.
type LogPublisher struct {
	logger *logging.Logger
}

func NewLogPublisher(logger *logging.Logger) *LogPublisher {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogPublisher{logger: logger.Named("events")}
}

func (p *LogPublisher) Publish(ctx context.Context, e event.Event) error {
	p.logger.InfoContext(ctx, "domain event",
		"event_id", e.ID,
		"event_type", string(e.Type),
		"tournament_id", e.TournamentID,
		"subject_id", e.SubjectID,
		"occurred_at", e.OccurredAt,
		"data", e.Data,
	)
	metrics.EventsPublished.WithLabelValues(string(e.Type), metrics.OutcomeOK).Inc()
	return nil
}
