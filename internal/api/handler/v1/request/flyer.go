package request

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/flyerdrop/tournees-api/internal/domain"
)

var phoneExp = regexp.MustCompile(`^\+?[0-9][0-9 .\-]{5,19}$`)

type ContactRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

func (c ContactRequest) Validate() error {
	return validation.ValidateStruct(
		&c,
		validation.Field(&c.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&c.Email, validation.Required, is.Email),
		validation.Field(&c.Phone, validation.Match(phoneExp)),
	)
}

// FlyerRequest carries either kind of flyer. PickupAddress is required for
// provided flyers and PrintFormat for flyers to create.
type FlyerRequest struct {
	Kind          string         `json:"kind" enums:"provided,to_create"`
	Title         string         `json:"title"`
	Company       string         `json:"company"`
	Contact       ContactRequest `json:"contact"`
	PickupAddress string         `json:"pickup_address,omitempty"`
	PrintFormat   string         `json:"print_format,omitempty" enums:"A6,A5,A4,DL"`
}

func (req *FlyerRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Kind, validation.Required, validation.In(string(domain.FlyerKindProvided), string(domain.FlyerKindToCreate))),
		validation.Field(&req.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&req.Company, validation.Required, validation.Length(1, 200)),
		validation.Field(&req.Contact),
	)
	if err != nil {
		return err
	}

	switch domain.FlyerKind(req.Kind) {
	case domain.FlyerKindProvided:
		return validation.Errors{
			"pickup_address": validation.Validate(req.PickupAddress, validation.Required, validation.Length(1, 300)),
		}.Filter()
	default:
		formats := make([]interface{}, 0, len(domain.PrintFormats))
		for _, f := range domain.PrintFormats {
			formats = append(formats, string(f))
		}

		return validation.Errors{
			"print_format": validation.Validate(req.PrintFormat, validation.Required, validation.In(formats...)),
		}.Filter()
	}
}

// ToDomain validates the request and builds the matching flyer variant.
func (req *FlyerRequest) ToDomain() (domain.Flyer, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	contact := domain.Contact{
		Name:  req.Contact.Name,
		Email: req.Contact.Email,
		Phone: req.Contact.Phone,
	}
	if domain.FlyerKind(req.Kind) == domain.FlyerKindProvided {
		return domain.FlyerProvided{
			Title:         req.Title,
			Company:       req.Company,
			Contact:       contact,
			PickupAddress: req.PickupAddress,
		}, nil
	}

	return domain.FlyerToCreate{
		Title:       req.Title,
		Company:     req.Company,
		Contact:     contact,
		PrintFormat: domain.PrintFormat(req.PrintFormat),
	}, nil
}
