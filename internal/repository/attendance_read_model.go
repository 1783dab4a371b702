package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	trmanager "github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/avito-tech/go-transaction-manager/trm/v2/settings"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"ticketing/internal/entities"
)

// AttendanceReadModelRepo keeps one JSON document per event with what was
// booked, cancelled and admitted. Handlers may see the same event twice, so
// every update is keyed by booking or ticket id.
type AttendanceReadModelRepo struct {
	db        *sqlx.DB
	getter    *trmsqlx.CtxGetter
	trManager *trmanager.Manager

	eventBus *cqrs.EventBus
}

func NewAttendanceReadModelRepo(
	db *sqlx.DB,
	getter *trmsqlx.CtxGetter,
	trManager *trmanager.Manager,
	eventBus *cqrs.EventBus,
) *AttendanceReadModelRepo {
	return &AttendanceReadModelRepo{
		db:        db,
		getter:    getter,
		trManager: trManager,
		eventBus:  eventBus,
	}
}

func (r *AttendanceReadModelRepo) GetByEventID(ctx context.Context, eventID uuid.UUID) (entities.AttendanceSummary, error) {
	var payload []byte
	err := r.db.QueryRowxContext(ctx,
		"SELECT payload FROM read_model_attendance WHERE event_id = $1",
		eventID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.NewAttendance(eventID).Summary(), nil
	}
	if err != nil {
		return entities.AttendanceSummary{}, fmt.Errorf("failed to get attendance: %w", err)
	}

	attendance, err := r.unmarshalReadModelFromDB(payload)
	if err != nil {
		return entities.AttendanceSummary{}, err
	}

	return attendance.Summary(), nil
}

func (r *AttendanceReadModelRepo) OnBookingConfirmedEvent(ctx context.Context, event *entities.BookingConfirmed_v1) error {
	log.FromContext(ctx).WithField("booking_id", event.BookingID).Info("OnBookingConfirmedEvent")

	return r.update(ctx, event.EventID, func(a *entities.Attendance) {
		if _, ok := a.Bookings[event.BookingID.String()]; ok {
			return
		}

		units := map[string]int{}
		for _, t := range event.Tickets {
			units[t.TicketTypeID.String()]++
		}
		a.Bookings[event.BookingID.String()] = entities.AttendanceBooking{
			Status: entities.BookingStatusConfirmed,
			Units:  units,
		}
	})
}

func (r *AttendanceReadModelRepo) OnBookingCancelledEvent(ctx context.Context, event *entities.BookingCancelled_v1) error {
	log.FromContext(ctx).WithField("booking_id", event.BookingID).Info("OnBookingCancelledEvent")

	return r.update(ctx, event.EventID, func(a *entities.Attendance) {
		units := map[string]int{}
		for _, released := range event.Released {
			units[released.TicketTypeID.String()] += released.Quantity
		}
		a.Bookings[event.BookingID.String()] = entities.AttendanceBooking{
			Status: entities.BookingStatusCancelled,
			Units:  units,
		}
	})
}

func (r *AttendanceReadModelRepo) OnTicketAdmittedEvent(ctx context.Context, event *entities.TicketAdmitted_v1) error {
	log.FromContext(ctx).WithField("ticket_id", event.TicketID).Info("OnTicketAdmittedEvent")

	return r.update(ctx, event.EventID, func(a *entities.Attendance) {
		a.Admitted[event.TicketID.String()] = entities.AttendanceTicket{
			TicketTypeID: event.TicketTypeID.String(),
			UsedAt:       event.UsedAt,
		}
	})
}

func (r *AttendanceReadModelRepo) update(
	ctx context.Context,
	eventID uuid.UUID,
	updateFn func(a *entities.Attendance),
) error {
	return r.trManager.DoWithSettings(
		ctx,
		trmsql.MustSettings(
			settings.Must(settings.WithCancelable(true)),
			trmsql.WithTxOptions(&sql.TxOptions{Isolation: sql.LevelReadCommitted}),
		),
		func(ctx context.Context) error {
			attendance, err := r.findForUpdate(ctx, eventID)
			if err != nil {
				return fmt.Errorf("failed to find attendance of event %s: %w", eventID, err)
			}

			updateFn(&attendance)
			attendance.LastUpdate = time.Now().UTC()

			payload, err := json.Marshal(attendance)
			if err != nil {
				return err
			}

			_, err = r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(
				ctx,
				"UPDATE read_model_attendance SET payload = $1 WHERE event_id = $2",
				payload,
				eventID,
			)
			if err != nil {
				return fmt.Errorf("failed to update attendance: %w", err)
			}

			return r.eventBus.Publish(ctx, &entities.AttendanceReadModelUpdated_v1{
				Header:  entities.NewEventHeader(),
				EventID: eventID,
			})
		},
	)
}

func (r *AttendanceReadModelRepo) findForUpdate(ctx context.Context, eventID uuid.UUID) (entities.Attendance, error) {
	tr := r.getter.DefaultTrOrDB(ctx, r.db)

	initial, err := json.Marshal(entities.NewAttendance(eventID))
	if err != nil {
		return entities.Attendance{}, err
	}

	_, err = tr.ExecContext(ctx, `
		INSERT INTO read_model_attendance (event_id, payload)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		eventID, initial,
	)
	if err != nil {
		return entities.Attendance{}, err
	}

	var payload []byte
	err = tr.QueryRowxContext(ctx,
		"SELECT payload FROM read_model_attendance WHERE event_id = $1 FOR UPDATE",
		eventID,
	).Scan(&payload)
	if err != nil {
		return entities.Attendance{}, err
	}

	return r.unmarshalReadModelFromDB(payload)
}

func (r *AttendanceReadModelRepo) unmarshalReadModelFromDB(payload []byte) (entities.Attendance, error) {
	var attendance entities.Attendance
	if err := json.Unmarshal(payload, &attendance); err != nil {
		return entities.Attendance{}, err
	}

	if attendance.Bookings == nil {
		attendance.Bookings = map[string]entities.AttendanceBooking{}
	}
	if attendance.Admitted == nil {
		attendance.Admitted = map[string]entities.AttendanceTicket{}
	}

	return attendance, nil
}
