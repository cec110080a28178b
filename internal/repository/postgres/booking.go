package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"poolride/internal/domain"
	"poolride/internal/repository"
)

// BookingRepository is a PostgreSQL implementation of
// repository.BookingRepository.
type BookingRepository struct {
	q Querier
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{q: db}
}

// NewBookingRepositoryWithTx creates a booking repository using a transaction.
func NewBookingRepositoryWithTx(tx *sql.Tx) *BookingRepository {
	return &BookingRepository{q: tx}
}

const bookingColumns = `
	id, code, user_id, trip_id, booking_type, status, seats_booked,
	total_amount, per_seat_amount, payment_status, payment_method,
	payment_ref, commission_amount, commission_deducted,
	commission_deducted_at, otp, otp_verified, otp_verified_at,
	passengers_onboarded, refund_amount, cancel_reason, confirmed_at,
	cancelled_at, created_at, updated_at`

func scanBooking(s rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	var commissionDeductedAt, otpVerifiedAt, confirmedAt, cancelledAt sql.NullTime
	var paymentMethod, paymentRef, otp, cancelReason sql.NullString

	err := s.Scan(
		&b.ID,
		&b.Code,
		&b.UserID,
		&b.TripID,
		&b.BookingType,
		&b.Status,
		&b.SeatsBooked,
		&b.TotalAmount,
		&b.PerSeatAmount,
		&b.PaymentStatus,
		&paymentMethod,
		&paymentRef,
		&b.CommissionAmount,
		&b.CommissionDeducted,
		&commissionDeductedAt,
		&otp,
		&b.OTPVerified,
		&otpVerifiedAt,
		&b.PassengersOnboarded,
		&b.RefundAmount,
		&cancelReason,
		&confirmedAt,
		&cancelledAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if paymentMethod.Valid {
		b.PaymentMethod = domain.PaymentMethod(paymentMethod.String)
	}
	if paymentRef.Valid {
		b.PaymentRef = paymentRef.String
	}
	if otp.Valid {
		b.OTP = otp.String
	}
	if cancelReason.Valid {
		b.CancelReason = cancelReason.String
	}
	if commissionDeductedAt.Valid {
		b.CommissionDeductedAt = commissionDeductedAt.Time
	}
	if otpVerifiedAt.Valid {
		b.OTPVerifiedAt = otpVerifiedAt.Time
	}
	if confirmedAt.Valid {
		b.ConfirmedAt = confirmedAt.Time
	}
	if cancelledAt.Valid {
		b.CancelledAt = cancelledAt.Time
	}

	return &b, nil
}

func bookingArgs(b *domain.Booking) []any {
	nullString := func(s string) sql.NullString {
		if s == "" {
			return sql.NullString{}
		}
		return sql.NullString{String: s, Valid: true}
	}
	nullTime := func(t time.Time) sql.NullTime {
		if t.IsZero() {
			return sql.NullTime{}
		}
		return sql.NullTime{Time: t, Valid: true}
	}

	return []any{
		b.Code,
		b.UserID,
		b.TripID,
		b.BookingType,
		b.Status,
		b.SeatsBooked,
		b.TotalAmount,
		b.PerSeatAmount,
		b.PaymentStatus,
		nullString(string(b.PaymentMethod)),
		nullString(b.PaymentRef),
		b.CommissionAmount,
		b.CommissionDeducted,
		nullTime(b.CommissionDeductedAt),
		nullString(b.OTP),
		b.OTPVerified,
		nullTime(b.OTPVerifiedAt),
		b.PassengersOnboarded,
		b.RefundAmount,
		nullString(b.CancelReason),
		nullTime(b.ConfirmedAt),
		nullTime(b.CancelledAt),
		b.CreatedAt,
		b.UpdatedAt,
	}
}

// Create persists a new booking.
func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($25, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		        $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`

	args := append(bookingArgs(booking), booking.ID)
	_, err := r.q.ExecContext(ctx, query, args...)
	return err
}

// GetByID retrieves a booking by ID.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return booking, nil
}

// Update updates an existing booking.
func (r *BookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	query := `
		UPDATE bookings SET
			code = $1, user_id = $2, trip_id = $3, booking_type = $4,
			status = $5, seats_booked = $6, total_amount = $7,
			per_seat_amount = $8, payment_status = $9, payment_method = $10,
			payment_ref = $11, commission_amount = $12,
			commission_deducted = $13, commission_deducted_at = $14,
			otp = $15, otp_verified = $16, otp_verified_at = $17,
			passengers_onboarded = $18, refund_amount = $19,
			cancel_reason = $20, confirmed_at = $21, cancelled_at = $22,
			created_at = $23, updated_at = $24
		WHERE id = $25
	`

	args := append(bookingArgs(booking), booking.ID)
	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *BookingRepository) queryBookings(ctx context.Context, query string, args ...any) ([]*domain.Booking, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}

// GetByTripID retrieves all bookings on a trip.
func (r *BookingRepository) GetByTripID(ctx context.Context, tripID string) ([]*domain.Booking, error) {
	query := `SELECT` + bookingColumns + ` FROM bookings WHERE trip_id = $1 ORDER BY created_at ASC`
	return r.queryBookings(ctx, query, tripID)
}

// FindConfirmedByTripID retrieves CONFIRMED bookings on a trip, oldest
// confirmation first.
func (r *BookingRepository) FindConfirmedByTripID(ctx context.Context, tripID string) ([]*domain.Booking, error) {
	query := `
		SELECT` + bookingColumns + `
		FROM bookings
		WHERE trip_id = $1 AND status = $2
		ORDER BY confirmed_at ASC
	`
	return r.queryBookings(ctx, query, tripID, domain.BookingStatusConfirmed)
}

// FindStale retrieves HOLD/PENDING bookings created before cutoff.
func (r *BookingRepository) FindStale(ctx context.Context, cutoff time.Time) ([]*domain.Booking, error) {
	query := `
		SELECT` + bookingColumns + `
		FROM bookings
		WHERE status IN ($1, $2) AND created_at < $3
	`
	return r.queryBookings(ctx, query, domain.BookingStatusHold, domain.BookingStatusPending, cutoff)
}

// FindCashCommissionDue retrieves CASH bookings with an undeducted
// commission confirmed within [from, to).
func (r *BookingRepository) FindCashCommissionDue(ctx context.Context, from, to time.Time) ([]*domain.Booking, error) {
	query := `
		SELECT` + bookingColumns + `
		FROM bookings
		WHERE payment_method = $1
		  AND payment_status = $2
		  AND commission_deducted = FALSE
		  AND confirmed_at >= $3 AND confirmed_at < $4
	`
	return r.queryBookings(ctx, query,
		domain.PaymentMethodCash, domain.PaymentStatusCompleted, from, to)
}

// FindByDriverConfirmedBetween retrieves bookings confirmed within [from, to)
// on trips assigned to the driver.
func (r *BookingRepository) FindByDriverConfirmedBetween(ctx context.Context, driverID string, from, to time.Time) ([]*domain.Booking, error) {
	query := `
		SELECT ` + bookingSelectPrefixed + `
		FROM bookings b
		JOIN trips t ON t.id = b.trip_id
		WHERE t.driver_id = $1 AND b.confirmed_at >= $2 AND b.confirmed_at < $3
		ORDER BY b.confirmed_at ASC
	`
	return r.queryBookings(ctx, query, driverID, from, to)
}

const bookingSelectPrefixed = `
	b.id, b.code, b.user_id, b.trip_id, b.booking_type, b.status,
	b.seats_booked, b.total_amount, b.per_seat_amount, b.payment_status,
	b.payment_method, b.payment_ref, b.commission_amount,
	b.commission_deducted, b.commission_deducted_at, b.otp, b.otp_verified,
	b.otp_verified_at, b.passengers_onboarded, b.refund_amount,
	b.cancel_reason, b.confirmed_at, b.cancelled_at, b.created_at,
	b.updated_at`

// Ensure BookingRepository implements repository.BookingRepository.
var _ repository.BookingRepository = (*BookingRepository)(nil)
