package entities

import (
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID          uuid.UUID `json:"id" db:"id"`
	CreatorID   uuid.UUID `json:"creator_id" db:"creator_id"`
	Title       string    `json:"title" db:"title"`
	Location    string    `json:"location" db:"location"`
	StartDate   time.Time `json:"start_date" db:"start_date"`
	EndDate     time.Time `json:"end_date" db:"end_date"`
	IsPublished bool      `json:"is_published" db:"is_published"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

func NewEvent(
	creatorID uuid.UUID,
	title string,
	location string,
	startDate time.Time,
	endDate time.Time,
) (Event, error) {
	if creatorID == uuid.Nil {
		return Event{}, NewInvalidInput("creator_id", "creator must be set")
	}
	if title == "" {
		return Event{}, NewInvalidInput("title", "title must be set")
	}
	if startDate.IsZero() || endDate.IsZero() {
		return Event{}, NewInvalidInput("start_date", "event dates must be set")
	}
	if endDate.Before(startDate) {
		return Event{}, NewInvalidInput("end_date", "end date must not be before start date")
	}

	return Event{
		ID:        uuid.New(),
		CreatorID: creatorID,
		Title:     title,
		Location:  location,
		StartDate: startDate.UTC(),
		EndDate:   endDate.UTC(),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// EventPatch carries the optional fields of an event edit.
type EventPatch struct {
	Title       *string    `json:"title"`
	Location    *string    `json:"location"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	IsPublished *bool      `json:"is_published"`
}

func (e Event) Apply(p EventPatch) (Event, error) {
	if p.Title != nil {
		if *p.Title == "" {
			return Event{}, NewInvalidInput("title", "title must be set")
		}
		e.Title = *p.Title
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.StartDate != nil {
		e.StartDate = p.StartDate.UTC()
	}
	if p.EndDate != nil {
		e.EndDate = p.EndDate.UTC()
	}
	if p.IsPublished != nil {
		e.IsPublished = *p.IsPublished
	}
	if e.EndDate.Before(e.StartDate) {
		return Event{}, NewInvalidInput("end_date", "end date must not be before start date")
	}

	return e, nil
}
