package models

import "time"

// StudySpace is a bookable room with a fixed number of seats per day
type StudySpace struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CollegeID *int64    `json:"collegeId,omitempty" db:"college_id"`
	Capacity  int       `json:"capacity" db:"capacity"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ReservationStatus is the lifecycle of a study space reservation
type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "ACTIVE"
	ReservationCompleted ReservationStatus = "COMPLETED"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

// StudySpaceReservation holds one seat in a space for one day
type StudySpaceReservation struct {
	ID        int64             `json:"id" db:"id"`
	StudentID int64             `json:"studentId" db:"student_id"`
	SpaceID   int64             `json:"spaceId" db:"space_id"`
	Date      time.Time         `json:"date" db:"date"`
	Status    ReservationStatus `json:"status" db:"status"`
	CreatedAt time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time         `json:"updatedAt" db:"updated_at"`
}
