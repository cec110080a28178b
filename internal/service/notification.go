package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"poolride/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationBookingHeld      NotificationType = "BOOKING_HELD"
	NotificationBookingConfirmed NotificationType = "BOOKING_CONFIRMED"
	NotificationBookingCancelled NotificationType = "BOOKING_CANCELLED"
	NotificationRefundInitiated  NotificationType = "REFUND_INITIATED"
	NotificationTripConfirmed    NotificationType = "TRIP_CONFIRMED"
	NotificationTripExpired      NotificationType = "TRIP_EXPIRED"
	NotificationTripDispatched   NotificationType = "TRIP_DISPATCHED"
	NotificationTripStarted      NotificationType = "TRIP_STARTED"
	NotificationTripCompleted    NotificationType = "TRIP_COMPLETED"
	NotificationFareReduced      NotificationType = "FARE_REDUCED"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID string // User or Driver ID
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService handles notification delivery.
type NotificationService struct {
	// In a real system, this would have:
	// - Push notification client (FCM, APNS)
	// - SMS client (Twilio)
	// - WebSocket connections for real-time
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyBookingConfirmed notifies the user that their booking is confirmed
// and shares the boarding OTP.
func (s *NotificationService) NotifyBookingConfirmed(ctx context.Context, booking *domain.Booking) error {
	notification := Notification{
		Type:        NotificationBookingConfirmed,
		RecipientID: booking.UserID,
		Title:       "Booking Confirmed",
		Message:     fmt.Sprintf("Booking %s confirmed for %d seat(s). Boarding OTP: %s", booking.Code, booking.SeatsBooked, booking.OTP),
		Data: map[string]interface{}{
			"booking_id": booking.ID,
			"trip_id":    booking.TripID,
			"seats":      booking.SeatsBooked,
			"amount":     booking.TotalAmount,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyBookingCancelled notifies the user about a cancellation.
func (s *NotificationService) NotifyBookingCancelled(ctx context.Context, booking *domain.Booking, reason string) error {
	notification := Notification{
		Type:        NotificationBookingCancelled,
		RecipientID: booking.UserID,
		Title:       "Booking Cancelled",
		Message:     fmt.Sprintf("Booking %s was cancelled. %s", booking.Code, reason),
		Data: map[string]interface{}{
			"booking_id": booking.ID,
			"trip_id":    booking.TripID,
			"reason":     reason,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyRefundInitiated notifies the user that a refund is on its way.
func (s *NotificationService) NotifyRefundInitiated(ctx context.Context, booking *domain.Booking) error {
	notification := Notification{
		Type:        NotificationRefundInitiated,
		RecipientID: booking.UserID,
		Title:       "Refund Initiated",
		Message:     fmt.Sprintf("A refund of %.2f for booking %s has been initiated", booking.RefundAmount, booking.Code),
		Data: map[string]interface{}{
			"booking_id": booking.ID,
			"amount":     booking.RefundAmount,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyTripConfirmed tells every confirmed rider the trip will run.
func (s *NotificationService) NotifyTripConfirmed(ctx context.Context, trip *domain.Trip, riderIDs []string) error {
	for _, riderID := range riderIDs {
		notification := Notification{
			Type:        NotificationTripConfirmed,
			RecipientID: riderID,
			Title:       "Trip Confirmed",
			Message:     fmt.Sprintf("Trip %s has enough riders and will depart as scheduled", trip.Code),
			Data: map[string]interface{}{
				"trip_id":        trip.ID,
				"seats_booked":   trip.SeatsBooked,
				"per_head_price": trip.CurrentPerHeadPrice,
			},
			CreatedAt: time.Now(),
		}
		s.send(ctx, notification)
	}
	return nil
}

// NotifyFareReduced tells riders their per-head fare dropped after a new
// seat joined the pool.
func (s *NotificationService) NotifyFareReduced(ctx context.Context, trip *domain.Trip, riderIDs []string) error {
	for _, riderID := range riderIDs {
		notification := Notification{
			Type:        NotificationFareReduced,
			RecipientID: riderID,
			Title:       "Fare Reduced",
			Message:     fmt.Sprintf("More riders joined trip %s. Your fare is now %.2f/seat", trip.Code, trip.CurrentPerHeadPrice),
			Data: map[string]interface{}{
				"trip_id":        trip.ID,
				"per_head_price": trip.CurrentPerHeadPrice,
			},
			CreatedAt: time.Now(),
		}
		s.send(ctx, notification)
	}
	return nil
}

// NotifyTripDispatched notifies riders that a driver is on the way.
func (s *NotificationService) NotifyTripDispatched(ctx context.Context, trip *domain.Trip, driver *domain.Driver, riderIDs []string) error {
	for _, riderID := range riderIDs {
		notification := Notification{
			Type:        NotificationTripDispatched,
			RecipientID: riderID,
			Title:       "Driver Assigned",
			Message:     fmt.Sprintf("%s is on the way for trip %s", driver.Name, trip.Code),
			Data: map[string]interface{}{
				"trip_id":      trip.ID,
				"driver_id":    driver.ID,
				"driver_name":  driver.Name,
				"driver_phone": driver.Phone,
			},
			CreatedAt: time.Now(),
		}
		s.send(ctx, notification)
	}
	return nil
}

// NotifyTripStarted notifies onboarded riders that the trip is underway.
func (s *NotificationService) NotifyTripStarted(ctx context.Context, trip *domain.Trip, riderIDs []string) error {
	for _, riderID := range riderIDs {
		notification := Notification{
			Type:        NotificationTripStarted,
			RecipientID: riderID,
			Title:       "Trip Started",
			Message:     fmt.Sprintf("Trip %s is underway. Enjoy the ride!", trip.Code),
			Data: map[string]interface{}{
				"trip_id": trip.ID,
			},
			CreatedAt: time.Now(),
		}
		s.send(ctx, notification)
	}
	return nil
}

// NotifyTripCompleted notifies riders the trip reached its destination.
func (s *NotificationService) NotifyTripCompleted(ctx context.Context, trip *domain.Trip, riderIDs []string) error {
	for _, riderID := range riderIDs {
		notification := Notification{
			Type:        NotificationTripCompleted,
			RecipientID: riderID,
			Title:       "Trip Completed",
			Message:     fmt.Sprintf("Trip %s is complete. Fare paid: %.2f/seat", trip.Code, trip.CurrentPerHeadPrice),
			Data: map[string]interface{}{
				"trip_id":        trip.ID,
				"per_head_price": trip.CurrentPerHeadPrice,
			},
			CreatedAt: time.Now(),
		}
		s.send(ctx, notification)
	}
	return nil
}

// NotifyTripExpired notifies riders that the trip never filled.
func (s *NotificationService) NotifyTripExpired(ctx context.Context, trip *domain.Trip, riderIDs []string) error {
	for _, riderID := range riderIDs {
		notification := Notification{
			Type:        NotificationTripExpired,
			RecipientID: riderID,
			Title:       "Trip Expired",
			Message:     fmt.Sprintf("Trip %s did not fill in time. Any payment will be refunded.", trip.Code),
			Data: map[string]interface{}{
				"trip_id": trip.ID,
			},
			CreatedAt: time.Now(),
		}
		s.send(ctx, notification)
	}
	return nil
}

// send delivers a notification (mock implementation).
func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	// In a real implementation, this would:
	// 1. Store notification in database
	// 2. Send push notification via FCM/APNS
	// 3. Send SMS if enabled
	// 4. Broadcast via WebSocket for real-time updates

	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Title=%s, Message=%s",
		notification.Type, notification.RecipientID, notification.Title, notification.Message)

	return nil
}
