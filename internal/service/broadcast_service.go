package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/dojocal/scheduler-api/pkg/jobs"
)

// ErrEmptyChange is returned for a change without an event id.
var ErrEmptyChange = errors.New("event change without event id")

// ChangeNotifier delivers a change to an external channel.
type ChangeNotifier interface {
	Notify(ctx context.Context, change EventChange) error
}

// LogNotifier records changes in the service log.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify implements ChangeNotifier.
func (n *LogNotifier) Notify(_ context.Context, change EventChange) error {
	n.logger.Info("event changed",
		zap.String("action", change.Action),
		zap.String("event_id", change.EventID),
		zap.String("type", string(change.Kind)),
		zap.String("owner", change.Owner),
		zap.Time("at", change.At),
	)
	return nil
}

// NewBroadcastHandler returns the queue handler that forwards event changes
// to notifier and counts the outcome.
func NewBroadcastHandler(notifier ChangeNotifier, metrics *MetricsService) jobs.Handler[EventChange] {
	return func(ctx context.Context, job jobs.Job[EventChange]) error {
		change := job.Payload
		var err error
		if change.EventID == "" {
			err = ErrEmptyChange
		} else {
			err = notifier.Notify(ctx, change)
		}
		metrics.RecordBroadcast(change.Action, err)
		return err
	}
}
