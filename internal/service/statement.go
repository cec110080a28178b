package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"poolride/internal/domain"
	"poolride/internal/repository"
)

// StatementService builds driver settlement statements.
type StatementService struct {
	bookingRepo repository.BookingRepository
	driverRepo  repository.DriverRepository
}

// NewStatementService creates a new StatementService.
func NewStatementService(
	bookingRepo repository.BookingRepository,
	driverRepo repository.DriverRepository,
) *StatementService {
	return &StatementService{
		bookingRepo: bookingRepo,
		driverRepo:  driverRepo,
	}
}

// StatementLine is one booking on a driver statement.
type StatementLine struct {
	BookingID         string               `json:"booking_id"`
	BookingCode       string               `json:"booking_code"`
	TripID            string               `json:"trip_id"`
	Seats             int                  `json:"seats"`
	Amount            float64              `json:"amount"`
	Commission        float64              `json:"commission"`
	PaymentMethod     domain.PaymentMethod `json:"payment_method"`
	CommissionSettled bool                 `json:"commission_settled"`
	ConfirmedAt       time.Time            `json:"confirmed_at"`
}

// DriverStatement summarizes a driver's earnings over a period. Online
// fares flow through the platform and pay out net of commission; cash
// fares sit with the driver, whose commission is recovered by the daily
// wallet sweep.
type DriverStatement struct {
	ID              string          `json:"id"`
	DriverID        string          `json:"driver_id"`
	DriverName      string          `json:"driver_name"`
	From            time.Time       `json:"from"`
	To              time.Time       `json:"to"`
	Lines           []StatementLine `json:"lines"`
	GrossAmount     float64         `json:"gross_amount"`
	OnlineCollected float64         `json:"online_collected"`
	CashCollected   float64         `json:"cash_collected"`
	CommissionTotal float64         `json:"commission_total"`
	NetPayout       float64         `json:"net_payout"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

// GenerateStatement builds the settlement statement for a driver over
// [from, to).
func (s *StatementService) GenerateStatement(ctx context.Context, driverID string, from, to time.Time) (*DriverStatement, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}

	bookings, err := s.bookingRepo.FindByDriverConfirmedBetween(ctx, driverID, from, to)
	if err != nil {
		return nil, err
	}

	statement := &DriverStatement{
		ID:          uuid.New().String(),
		DriverID:    driver.ID,
		DriverName:  driver.Name,
		From:        from,
		To:          to,
		Lines:       make([]StatementLine, 0, len(bookings)),
		GeneratedAt: time.Now(),
	}

	for _, b := range bookings {
		statement.Lines = append(statement.Lines, StatementLine{
			BookingID:         b.ID,
			BookingCode:       b.Code,
			TripID:            b.TripID,
			Seats:             b.SeatsBooked,
			Amount:            b.TotalAmount,
			Commission:        b.CommissionAmount,
			PaymentMethod:     b.PaymentMethod,
			CommissionSettled: b.CommissionDeducted,
			ConfirmedAt:       b.ConfirmedAt,
		})

		statement.GrossAmount += b.TotalAmount
		statement.CommissionTotal += b.CommissionAmount
		if b.PaymentMethod == domain.PaymentMethodCash {
			statement.CashCollected += b.TotalAmount
		} else {
			statement.OnlineCollected += b.TotalAmount
		}
	}

	// Cash stays with the driver; its commission is recovered from the
	// wallet, so only online money moves in the payout.
	statement.NetPayout = Ceil2(statement.OnlineCollected - statement.CommissionTotal)
	if statement.NetPayout < 0 {
		statement.NetPayout = 0
	}

	return statement, nil
}

// FormatStatement formats the statement as a string (for email/print).
func (s *StatementService) FormatStatement(statement *DriverStatement) string {
	header := `
=====================================
      DRIVER SETTLEMENT STATEMENT
=====================================
Statement ID: ` + statement.ID + `
Driver: ` + statement.DriverName + `
Period: ` + statement.From.Format("Jan 02, 2006") + ` - ` + statement.To.Format("Jan 02, 2006") + `

BOOKINGS
-------------------------------------
`

	lines := ""
	for _, l := range statement.Lines {
		lines += fmt.Sprintf("%s  %d seat(s)  %s  %s%s\n",
			l.BookingCode, l.Seats, formatFloat(l.Amount), l.PaymentMethod, settledMark(l.CommissionSettled))
	}

	footer := `
SETTLEMENT
-------------------------------------
Gross:            ` + formatFloat(statement.GrossAmount) + `
Online collected: ` + formatFloat(statement.OnlineCollected) + `
Cash collected:   ` + formatFloat(statement.CashCollected) + `
Commission:       ` + formatFloat(statement.CommissionTotal) + `
-------------------------------------
NET PAYOUT:       ` + formatFloat(statement.NetPayout) + `
=====================================
`

	return header + lines + footer
}

func settledMark(settled bool) string {
	if settled {
		return ""
	}
	return "  (commission due)"
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}
