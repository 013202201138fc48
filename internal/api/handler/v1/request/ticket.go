package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type PaymentWebhookRequest struct {
	CorrelationID string `json:"correlation_id"`
}

func (req *PaymentWebhookRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.CorrelationID, validation.Required),
	)
}

type BlockEntityRequest struct {
	Kind   string `json:"kind"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

func (req *BlockEntityRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Kind, validation.Required, validation.In("ip", "user")),
		validation.Field(&req.Value, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.Reason, validation.Length(0, 200)),
	)
}

type OwnerSettingsRequest struct {
	ReservationTimeoutMinutes int `json:"reservation_timeout_minutes"`
	ClosingLeadMinutes        int `json:"closing_lead_minutes"`
}

func (req *OwnerSettingsRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.ReservationTimeoutMinutes, validation.Required, validation.Min(1), validation.Max(1440)),
		validation.Field(&req.ClosingLeadMinutes, validation.Required, validation.Min(1), validation.Max(1440)),
	)
}
