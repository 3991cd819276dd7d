// internal/app/notification_dispatcher.go
package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"peptrack_reminders/internal/domain/notification"
	"peptrack_reminders/internal/domain/reminder"

	"github.com/sirupsen/logrus"
)

// ReminderTitle is the fixed title of every dose reminder.
const ReminderTitle = "Dose Reminder"

// Dispatcher delivers one reminder and reports where it ended up.
type Dispatcher interface {
	Notify(ctx context.Context, occ reminder.Occurrence) notification.Delivery
}

// NotificationDispatcher renders reminders and delivers them through the native
// channel, degrading to the in-app toast when native delivery is unavailable or fails.
type NotificationDispatcher struct {
	native    notification.Notifier // may be nil: toast only
	toaster   notification.Toaster  // may be nil: native only
	alsoToast bool
	logger    *logrus.Entry
}

func NewNotificationDispatcher(
	native notification.Notifier,
	toaster notification.Toaster,
	alsoToast bool, // show a reinforcing toast even when native delivery worked
	logger *logrus.Entry,
) *NotificationDispatcher {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &NotificationDispatcher{
		native:    native,
		toaster:   toaster,
		alsoToast: alsoToast,
		logger:    logger.WithField("component", "dispatcher"),
	}
}

// BuildPayload renders the title, body and tag for an occurrence.
func BuildPayload(occ reminder.Occurrence) notification.Payload {
	var body strings.Builder
	body.WriteString("Time for your ")
	body.WriteString(displayName(occ))
	body.WriteString(" dose")
	if occ.HasAmount() {
		fmt.Fprintf(&body, " (%s mg)", strconv.FormatFloat(occ.AmountMg, 'f', -1, 64))
	}
	if occ.TimeOfDay != "" {
		body.WriteString(" scheduled at ")
		body.WriteString(occ.TimeOfDay)
	}
	if occ.ProtocolName != "" {
		body.WriteString(" - ")
		body.WriteString(occ.ProtocolName)
	}
	return notification.Payload{
		Title: ReminderTitle,
		Body:  body.String(),
		Tag:   "dose-reminder:" + occ.Key(),
	}
}

func displayName(occ reminder.Occurrence) string {
	if occ.PeptideName != "" {
		return occ.PeptideName
	}
	if occ.ProtocolName != "" {
		return occ.ProtocolName
	}
	return "scheduled"
}

// Notify never returns an error or panics: failures are logged and reflected
// in the returned Delivery.
func (d *NotificationDispatcher) Notify(ctx context.Context, occ reminder.Occurrence) (delivery notification.Delivery) {
	payload := BuildPayload(occ)
	logCtx := d.logger.WithFields(logrus.Fields{
		"schedule_id":      occ.ScheduleID,
		"time_of_day":      occ.TimeOfDay,
		"notification_key": occ.Key(),
	})

	defer func() {
		if r := recover(); r != nil {
			logCtx.WithField("panic", r).Error("Notification channel panicked")
		}
	}()

	if err := d.sendNative(ctx, payload); err != nil {
		logCtx.WithError(err).Warn("Native notification failed, falling back to toast")
	} else {
		delivery.Native = true
	}

	if !delivery.Native || d.alsoToast {
		if err := d.sendToast(payload); err != nil {
			logCtx.WithError(err).Error("Toast notification failed")
		} else {
			delivery.Toast = true
		}
	}

	if !delivery.Delivered() {
		logCtx.Error("Reminder could not be delivered on any channel")
		return delivery
	}
	logCtx.WithField("delivery", delivery.String()).Info("Reminder delivered")
	return delivery
}

func (d *NotificationDispatcher) sendNative(ctx context.Context, p notification.Payload) (err error) {
	if d.native == nil {
		return notification.ErrChannelUnavailable
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("native channel panic: %v", r)
		}
	}()
	return d.native.Notify(ctx, p.Title, p.Body, p.Tag)
}

func (d *NotificationDispatcher) sendToast(p notification.Payload) (err error) {
	if d.toaster == nil {
		return notification.ErrChannelUnavailable
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("toast panic: %v", r)
		}
	}()
	return d.toaster.Toast(p.Title+": "+p.Body, notification.SeverityInfo)
}
