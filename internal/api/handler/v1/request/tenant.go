package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type CreateTenantRequest struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

func (req *CreateTenantRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.Domain, validation.Required, validation.Length(3, 253)),
	)
}
