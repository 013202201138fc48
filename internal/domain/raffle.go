package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidRaffleKind   = errors.New("invalid raffle kind")
	ErrInvalidRaffleStatus = errors.New("invalid raffle status")
	ErrInvalidResultValue  = errors.New("result value is not a valid number")
)

// RaffleKind determines the width of the ticket numbers sold in a raffle.
type RaffleKind string

const (
	KindGroup     RaffleKind = "grupo"   // 01-25
	KindTens      RaffleKind = "dezena"  // 00-99
	KindHundreds  RaffleKind = "centena" // 000-999
	KindThousands RaffleKind = "milhar"  // 0000-9999
)

func (k RaffleKind) Valid() bool {
	switch k {
	case KindGroup, KindTens, KindHundreds, KindThousands:
		return true
	}
	return false
}

// Width is the fixed number of digits of a ticket number for this kind.
func (k RaffleKind) Width() int {
	switch k {
	case KindGroup, KindTens:
		return 2
	case KindHundreds:
		return 3
	case KindThousands:
		return 4
	}
	return 0
}

// PoolSize is how many tickets a raffle of this kind owns.
func (k RaffleKind) PoolSize() int {
	if k == KindGroup {
		return 25
	}
	return pow10(k.Width())
}

// FirstNumber is the lowest sellable number. Groups start at 01, the
// positional kinds at 00...0.
func (k RaffleKind) FirstNumber() int {
	if k == KindGroup {
		return 1
	}
	return 0
}

// FormatNumber renders n at the kind's fixed width, e.g. 7 -> "07" for tens.
func (k RaffleKind) FormatNumber(n int) string {
	return fmt.Sprintf("%0*d", k.Width(), n)
}

// NormalizeResult maps a raw drawn value onto the kind's ticket-number width,
// mirroring how ticket numbers are stored. Positional kinds take the trailing
// digits zero-padded; groups parse the whole value as an integer.
func (k RaffleKind) NormalizeResult(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", ErrInvalidResultValue
	}

	if k == KindGroup {
		n, err := strconv.Atoi(value)
		if err != nil {
			return "", ErrInvalidResultValue
		}
		return fmt.Sprintf("%02d", n), nil
	}

	if _, err := strconv.Atoi(value); err != nil {
		return "", ErrInvalidResultValue
	}

	width := k.Width()
	if len(value) > width {
		value = value[len(value)-width:]
	}
	return fmt.Sprintf("%0*s", width, value), nil
}

func pow10(n int) int {
	result := 1
	for i := 0; i < n; i++ {
		result *= 10
	}
	return result
}

// RaffleStatus is the raffle lifecycle axis.
type RaffleStatus string

const (
	RaffleDraft   RaffleStatus = "rascunho"
	RaffleActive  RaffleStatus = "ativa"
	RaffleClosed  RaffleStatus = "encerrada"
	RaffleSettled RaffleStatus = "apurada"
)

func (s RaffleStatus) Valid() bool {
	switch s {
	case RaffleDraft, RaffleActive, RaffleClosed, RaffleSettled:
		return true
	}
	return false
}

type Raffle struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	OwnerID     uuid.UUID
	Name        string
	Description string
	Kind        RaffleKind
	Status      RaffleStatus
	TicketPrice decimal.Decimal

	// DrawDeadline is when the external draw happens. ClosingTime, when set,
	// stops sales earlier; when nil the raffle closes at the deadline.
	DrawDeadline time.Time
	ClosingTime  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ClosesAt is the effective end of sales.
func (r Raffle) ClosesAt() time.Time {
	if r.ClosingTime != nil {
		return *r.ClosingTime
	}
	return r.DrawDeadline
}
