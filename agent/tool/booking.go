package tool

import (
	"context"
	"strings"
)

type CoverageInput struct {
	Address string `json:"address"`
}

type CoverageOutput struct {
	IsCovered bool   `json:"is_covered"`
	Reason    string `json:"reason"`
}

type SlotsInput struct {
	Address string `json:"address"`
}

type BookingInput struct {
	Name           string `json:"name"`
	Address        string `json:"address"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	ServiceRequest string `json:"service_request"`
	Slot           string `json:"slot"`
}

type BookingOutput struct {
	Success        bool   `json:"success"`
	ConfirmationID string `json:"confirmation_id"`
	Message        string `json:"message"`
}

func (c *Catalog) checkCoverage(_ context.Context, args map[string]any) (any, error) {
	var in CoverageInput
	if err := decodeArgs(args, c.spec(ToolCheckCoverage), &in); err != nil {
		return nil, err
	}
	return CheckCoverage(in), nil
}

func CheckCoverage(in CoverageInput) CoverageOutput {
	if len(strings.TrimSpace(in.Address)) < 5 {
		return CoverageOutput{IsCovered: false, Reason: "Address missing or invalid."}
	}
	if IsCovered(in.Address) {
		return CoverageOutput{IsCovered: true, Reason: "Coverage confirmed."}
	}
	return CoverageOutput{IsCovered: false, Reason: "Outside service area."}
}

func (c *Catalog) getAvailableSlots(_ context.Context, args map[string]any) (any, error) {
	var in SlotsInput
	if err := decodeArgs(args, c.spec(ToolGetAvailableSlots), &in); err != nil {
		return nil, err
	}
	return c.slots.Available(in.Address), nil
}

func (c *Catalog) bookAppointment(_ context.Context, args map[string]any) (any, error) {
	var in BookingInput
	if err := decodeArgs(args, c.spec(ToolBookAppointment), &in); err != nil {
		return nil, err
	}
	return c.Book(in), nil
}

// Book takes the slot and records the booking, or reports the slot as gone
// without touching the store.
func (c *Catalog) Book(in BookingInput) BookingOutput {
	if !c.slots.Take(in.Address, in.Slot) {
		return BookingOutput{
			Success:        false,
			ConfirmationID: "",
			Message:        "Requested slot no longer available.",
		}
	}

	id := ConfirmationID(in.Name, in.Address, in.Slot)
	c.ledger.Append(Booking{
		ConfirmationID: id,
		Name:           in.Name,
		Address:        in.Address,
		Phone:          in.Phone,
		Email:          in.Email,
		ServiceRequest: in.ServiceRequest,
		Slot:           in.Slot,
		BookedAt:       c.slots.now().UTC(),
	})
	return BookingOutput{
		Success:        true,
		ConfirmationID: id,
		Message:        "Appointment booked.",
	}
}
