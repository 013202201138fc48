package request

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

type CreateRaffleRequest struct {
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Kind         string     `json:"kind"`
	TicketPrice  string     `json:"ticket_price"`
	DrawDeadline time.Time  `json:"draw_deadline"`
	ClosingTime  *time.Time `json:"closing_time"`
}

func (req *CreateRaffleRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.Description, validation.Length(0, 500)),
		validation.Field(&req.Kind, validation.Required, validation.In("grupo", "dezena", "centena", "milhar")),
		validation.Field(&req.TicketPrice, validation.Required),
		validation.Field(&req.DrawDeadline, validation.Required),
	)
}

type PublishResultRequest struct {
	Value   string    `json:"value"`
	Venue   string    `json:"venue"`
	DrawnAt time.Time `json:"drawn_at"`
}

func (req *PublishResultRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Value, validation.Required, validation.Length(1, 10)),
		validation.Field(&req.Venue, validation.Length(0, 100)),
		validation.Field(&req.DrawnAt, validation.Required),
	)
}
