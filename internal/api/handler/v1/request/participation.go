package request

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/flyerdrop/tournees-api/internal/domain"
)

const maxSectorsPerBooking = 200

var errEmptySectorCode = errors.New("sector codes must not be empty")

type CreateDraftRequest struct {
	City      string `json:"city"`
	StartDate string `json:"start_date" example:"2025-03-17"`
}

func (req *CreateDraftRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.City, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.StartDate, validation.Required, validation.Date(domain.DateLayout)),
	)
}

func (req *CreateDraftRequest) Start() time.Time {
	t, _ := time.Parse(domain.DateLayout, req.StartDate)

	return t
}

type AddSectorRequest struct {
	SectorCode string `json:"sector_code"`
}

func (req *AddSectorRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.SectorCode, validation.Required, validation.Length(1, 64)),
	)
}

type SubmitParticipationRequest struct {
	City        string        `json:"city"`
	StartDate   string        `json:"start_date" example:"2025-03-17"`
	SectorCodes []string      `json:"sector_codes"`
	Flyer       *FlyerRequest `json:"flyer,omitempty"`
}

func (req *SubmitParticipationRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.City, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.StartDate, validation.Required, validation.Date(domain.DateLayout)),
		validation.Field(&req.SectorCodes, validation.Required, validation.Length(1, maxSectorsPerBooking)),
	)
	if err != nil {
		return err
	}

	for _, code := range req.SectorCodes {
		if strings.TrimSpace(code) == "" {
			return errEmptySectorCode
		}
	}

	return nil
}

func (req *SubmitParticipationRequest) Start() time.Time {
	t, _ := time.Parse(domain.DateLayout, req.StartDate)

	return t
}

// ParseDate reads a calendar day as found in URLs.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(domain.DateLayout, s)
}
