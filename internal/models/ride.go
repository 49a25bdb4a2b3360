package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RideStatus string

const (
	RideStatusRequested  RideStatus = "Requested"
	RideStatusScheduled  RideStatus = "Scheduled"
	RideStatusInProgress RideStatus = "InProgress"
	RideStatusCompleted  RideStatus = "Completed"
	RideStatusCancelled  RideStatus = "Cancelled"
)

// IsTerminal reports whether the status can no longer change.
func (s RideStatus) IsTerminal() bool {
	return s == RideStatusCompleted || s == RideStatusCancelled
}

// IsActive reports whether a ride in this status blocks a new booking.
func (s RideStatus) IsActive() bool {
	return s == RideStatusRequested || s == RideStatusInProgress
}

type Ride struct {
	ID                  primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	UserID              primitive.ObjectID  `json:"user_id" bson:"user_id"`
	DriverID            *primitive.ObjectID `json:"driver_id" bson:"driver_id"`
	PickupLocation      Location            `json:"pickup_location" bson:"pickup_location"`
	DropoffLocation     Location            `json:"dropoff_location" bson:"dropoff_location"`
	Stops               []Location          `json:"stops" bson:"stops"`
	PickupTime          time.Time           `json:"pickup_time" bson:"pickup_time"`
	DropoffTime         *time.Time          `json:"dropoff_time" bson:"dropoff_time"`
	ScheduledPickupTime *time.Time          `json:"scheduled_pickup_time,omitempty" bson:"scheduled_pickup_time,omitempty"`
	Fare                string              `json:"fare" bson:"fare"`
	Tip                 float64             `json:"tip" bson:"tip"`
	ExtraCharges        float64             `json:"extra_charges" bson:"extra_charges"`
	PassengerCount      int                 `json:"passenger_count" bson:"passenger_count"`
	PaymentMethod       PaymentMethod       `json:"payment_method" bson:"payment_method"`
	PaymentStatus       PaymentStatus       `json:"payment_status" bson:"payment_status"`
	Status              RideStatus          `json:"status" bson:"status"`
	IsAccepted          bool                `json:"is_accepted" bson:"is_accepted"`
	IsConfirmed         bool                `json:"is_confirmed" bson:"is_confirmed"`
	IsScheduled         bool                `json:"is_scheduled" bson:"is_scheduled"`
	IdempotencyKey      string              `json:"-" bson:"idempotency_key,omitempty"`
	CancelledAt         *time.Time          `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	CreatedAt           time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at" bson:"updated_at"`
}

func (r *Ride) HasDriver() bool {
	return r.DriverID != nil && !r.DriverID.IsZero()
}

func formatLatLng(lat, lng float64) string {
	return fmt.Sprintf("%.6f,%.6f", lat, lng)
}
