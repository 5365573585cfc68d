package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dojocal/scheduler-api/internal/models"
	"github.com/dojocal/scheduler-api/pkg/jobs"
)

type notifierStub struct {
	got []EventChange
	err error
}

func (n *notifierStub) Notify(_ context.Context, change EventChange) error {
	n.got = append(n.got, change)
	return n.err
}

func TestBroadcastHandler(t *testing.T) {
	notifier := &notifierStub{}
	handler := NewBroadcastHandler(notifier, NewMetricsService())

	change := EventChange{Action: ChangeSaved, EventID: "ev-1", Kind: models.EventKindDojo}
	require.NoError(t, handler(context.Background(), jobs.Job[EventChange]{Payload: change}))
	assert.Equal(t, []EventChange{change}, notifier.got)

	err := handler(context.Background(), jobs.Job[EventChange]{Payload: EventChange{Action: ChangeSaved}})
	assert.ErrorIs(t, err, ErrEmptyChange)
	assert.Len(t, notifier.got, 1)
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	require.NoError(t, n.Notify(context.Background(), EventChange{Action: ChangeDeleted, EventID: "ev-1"}))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "ev-1", logs.All()[0].ContextMap()["event_id"])
}

type purgerStub struct {
	n   int64
	err error
	at  time.Time
}

func (p *purgerStub) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	p.at = now
	return p.n, p.err
}

func TestPurgeSchedulerRunOnce(t *testing.T) {
	purger := &purgerStub{n: 3}
	s, err := NewPurgeScheduler("@every 1h", purger, nil)
	require.NoError(t, err)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	n, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, fixed, purger.at)

	purger.err = errors.New("db down")
	_, err = s.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestPurgeSchedulerRejectsBadSchedule(t *testing.T) {
	_, err := NewPurgeScheduler("every now and then", &purgerStub{}, nil)
	assert.Error(t, err)
}

func TestPurgeSchedulerStartStop(t *testing.T) {
	s, err := NewPurgeScheduler("@every 1h", &purgerStub{}, nil)
	require.NoError(t, err)
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
