package service

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/flyerdrop/tournees-api/internal/domain"
)

const (
	participationsSheet = "Participations"
	selectionsSheet     = "Sectors"
)

var participationsHeader = []any{
	"ID", "User ID", "City", "Tour start", "Tour end", "Status",
	"Housing units", "Cost (EUR)", "Has flyer", "Flyer kind", "Flyer title",
	"Company", "Contact name", "Contact email", "Contact phone",
	"Pickup address", "Print format", "Created at",
}

var selectionsHeader = []any{"Participation ID", "Sector code", "Sector name", "Housing units"}

// Export renders every participation and its sector selections as an XLSX
// workbook.
func (s *AdminService) Export(ctx context.Context) ([]byte, error) {
	participations, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err = f.SetSheetName("Sheet1", participationsSheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet -> %w", err)
	}
	if _, err = f.NewSheet(selectionsSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet -> %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style -> %w", err)
	}

	if err = writeRow(f, participationsSheet, 1, participationsHeader); err != nil {
		return nil, err
	}
	if err = writeRow(f, selectionsSheet, 1, selectionsHeader); err != nil {
		return nil, err
	}
	for sheet, width := range map[string]int{participationsSheet: len(participationsHeader), selectionsSheet: len(selectionsHeader)} {
		last, err := excelize.CoordinatesToCellName(width, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates -> %w", err)
		}
		if err = f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to set header style -> %w", err)
		}
	}

	selRow := 2
	for i, p := range participations {
		if err = writeRow(f, participationsSheet, i+2, participationRow(p)); err != nil {
			return nil, err
		}
		for _, sel := range p.Selections {
			row := []any{p.ID, sel.SectorCode, sel.SectorName, sel.HousingUnits}
			if err = writeRow(f, selectionsSheet, selRow, row); err != nil {
				return nil, err
			}
			selRow++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook -> %w", err)
	}

	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates -> %w", err)
	}
	if err = f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d of %s -> %w", row, sheet, err)
	}

	return nil
}

func participationRow(p domain.Participation) []any {
	var (
		kind, title, company             string
		contactName, contactEmail, phone string
		pickup, format                   string
	)
	switch f := p.Flyer.Flyer().(type) {
	case domain.FlyerProvided:
		kind, title, company, pickup = string(f.Kind()), f.Title, f.Company, f.PickupAddress
		contactName, contactEmail, phone = f.Contact.Name, f.Contact.Email, f.Contact.Phone
	case domain.FlyerToCreate:
		kind, title, company, format = string(f.Kind()), f.Title, f.Company, string(f.PrintFormat)
		contactName, contactEmail, phone = f.Contact.Name, f.Contact.Email, f.Contact.Phone
	}

	hasFlyer := "No"
	if p.HasFlyer {
		hasFlyer = "Yes"
	}

	return []any{
		p.ID,
		p.UserID,
		p.City,
		p.TourStartDate.Format(domain.DateLayout),
		p.TourEndDate.Format(domain.DateLayout),
		string(p.Status),
		p.TotalHousingUnits,
		float64(p.CostCents) / 100,
		hasFlyer,
		kind,
		title,
		company,
		contactName,
		contactEmail,
		phone,
		pickup,
		format,
		p.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
