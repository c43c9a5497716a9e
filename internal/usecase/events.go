package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/gym-league/internal/domain/event"
	"github.com/riskibarqy/gym-league/internal/platform/logging"
)

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, event.Event) error { return nil }

// eventEmitter publishes after a committed write. Failures are logged, never returned.
type eventEmitter struct {
	publisher event.Publisher
	idGen     IDGenerator
	logger    *logging.Logger
	now       func() time.Time
}

func newEventEmitter(publisher event.Publisher, idGen IDGenerator, logger *logging.Logger) *eventEmitter {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &eventEmitter{publisher: publisher, idGen: idGen, logger: logger, now: time.Now}
}

func (e *eventEmitter) emit(ctx context.Context, typ event.Type, tournamentID, subjectID string, data map[string]any) {
	eventID, err := e.idGen.NewID()
	if err != nil {
		e.logger.WarnContext(ctx, "generate event id failed", "event_type", string(typ), "error", err)
		return
	}

	evt := event.Event{
		ID:           eventID,
		Type:         typ,
		TournamentID: tournamentID,
		SubjectID:    subjectID,
		OccurredAt:   e.now().UTC(),
		Data:         data,
	}
	if err := e.publisher.Publish(context.WithoutCancel(ctx), evt); err != nil {
		e.logger.WarnContext(ctx, "publish domain event failed",
			"event_type", string(typ),
			"event_id", eventID,
			"subject_id", subjectID,
			"error", err,
		)
	}
}
