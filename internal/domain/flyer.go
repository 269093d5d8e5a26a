package domain

type FlyerKind string

const (
	// FlyerKindProvided means the customer already has printed flyers to hand over.
	FlyerKindProvided FlyerKind = "provided"
	// FlyerKindToCreate means the flyers still have to be designed and printed.
	FlyerKindToCreate FlyerKind = "to_create"
)

type PrintFormat string

const (
	PrintFormatA6 PrintFormat = "A6"
	PrintFormatA5 PrintFormat = "A5"
	PrintFormatA4 PrintFormat = "A4"
	PrintFormatDL PrintFormat = "DL"
)

var PrintFormats = []PrintFormat{PrintFormatA6, PrintFormatA5, PrintFormatA4, PrintFormatDL}

type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Flyer is either FlyerProvided or FlyerToCreate.
type Flyer interface {
	Kind() FlyerKind
}

type FlyerProvided struct {
	Title         string  `json:"title"`
	Company       string  `json:"company"`
	Contact       Contact `json:"contact"`
	PickupAddress string  `json:"pickup_address"`
}

func (FlyerProvided) Kind() FlyerKind { return FlyerKindProvided }

type FlyerToCreate struct {
	Title       string      `json:"title"`
	Company     string      `json:"company"`
	Contact     Contact     `json:"contact"`
	PrintFormat PrintFormat `json:"print_format"`
}

func (FlyerToCreate) Kind() FlyerKind { return FlyerKindToCreate }

// HasFlyer reports whether the customer supplies the flyers.
func HasFlyer(f Flyer) bool {
	return f != nil && f.Kind() == FlyerKindProvided
}

// FlyerPayload is the serialisable form of a Flyer, tagged by Kind.
type FlyerPayload struct {
	Kind     FlyerKind      `json:"kind"`
	Provided *FlyerProvided `json:"provided,omitempty"`
	ToCreate *FlyerToCreate `json:"to_create,omitempty"`
}

func NewFlyerPayload(f Flyer) *FlyerPayload {
	switch v := f.(type) {
	case FlyerProvided:
		return &FlyerPayload{Kind: FlyerKindProvided, Provided: &v}
	case FlyerToCreate:
		return &FlyerPayload{Kind: FlyerKindToCreate, ToCreate: &v}
	}

	return nil
}

func (d *FlyerPayload) Flyer() Flyer {
	if d == nil {
		return nil
	}
	switch d.Kind {
	case FlyerKindProvided:
		if d.Provided != nil {
			return *d.Provided
		}
	case FlyerKindToCreate:
		if d.ToCreate != nil {
			return *d.ToCreate
		}
	}

	return nil
}
