package audit

import (
	"commandr/bizerror"
	"commandr/idgen"
	"commandr/persistence"
	"context"
	"strings"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
)

// Recorder keeps the security audit trail.
type Recorder struct {
	ds  persistence.DataSource
	now func() time.Time
}

func NewRecorder(ds persistence.DataSource) *Recorder {
	return &Recorder{ds: ds, now: time.Now}
}

// Record persists e. Failures are logged and swallowed so auditing never fails the audited operation.
func (r *Recorder) Record(ctx context.Context, e Event) {
	if r == nil {
		return
	}
	record := SecurityEvent{ID: idgen.NextID(), Event: e, OccurredAt: types.Timestamp(r.now().Round(time.Microsecond))}
	record.Email = strings.ToLower(strings.TrimSpace(record.Email))

	entry := logrus.WithContext(ctx).WithFields(logrus.Fields{
		"event": record.Kind, "email": record.Email, "userId": record.UserID, "clientIp": record.ClientIP,
	})
	if record.Reason != "" {
		entry = entry.WithField("reason", record.Reason)
	}
	entry.Info("security event")

	db, err := persistence.Session(ctx, r.ds)
	if err == nil {
		err = db.Create(&record).Error
	}
	if err != nil {
		entry.WithError(err).Warn("failed to persist security event")
	}
}

func (r *Recorder) Query(ctx context.Context, q EventQuery) ([]SecurityEvent, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	db, err := persistence.Session(ctx, r.ds)
	if err != nil {
		return nil, err
	}
	db = db.Model(&SecurityEvent{})
	if q.UserID != 0 {
		db = db.Where("user_id = ?", q.UserID)
	}
	if q.Email != "" {
		db = db.Where("email = ?", strings.ToLower(strings.TrimSpace(q.Email)))
	}
	if q.Kind != "" {
		db = db.Where("kind = ?", q.Kind)
	}

	events := []SecurityEvent{}
	if err := db.Order("occurred_at DESC").Order("id DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, bizerror.StoreUnavailable(err)
	}
	return events, nil
}
