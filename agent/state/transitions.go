package state

import (
	"fmt"
	"strings"
	"time"
)

const (
	farewellCue = "goodbye"
	thanksCue   = "thank you"
)

// BeginCustomerTurn moves a fresh call out of the greeting.
func (c *Call) BeginCustomerTurn() {
	c.Turns++
	if c.Context.State == StateGreeting {
		c.Context.State = StateCollectingInfo
	}
}

func (c *Call) CheckingCoverage(address string) {
	c.Context.State = StateCheckingCoverage
	if a := strings.TrimSpace(address); a != "" {
		c.Context.ServiceAddress = a
	}
}

func (c *Call) OfferingSlots(address string, slots []string) {
	c.Context.State = StateOfferingSlots
	if a := strings.TrimSpace(address); a != "" {
		c.Context.ServiceAddress = a
	}
	c.Context.AvailableSlots = append([]string(nil), slots...)
}

type BookingDetails struct {
	Name           string
	Address        string
	Phone          string
	Email          string
	ServiceRequest string
	Slot           string
}

func (c *Call) Booking(d BookingDetails) {
	c.Context.State = StateBooking
	setIfPresent(&c.Context.CustomerName, d.Name)
	setIfPresent(&c.Context.ServiceAddress, d.Address)
	setIfPresent(&c.Context.CustomerPhone, d.Phone)
	setIfPresent(&c.Context.CustomerEmail, d.Email)
	setIfPresent(&c.Context.ServiceRequest, d.ServiceRequest)
	setIfPresent(&c.Context.SelectedSlot, d.Slot)
}

func (c *Call) Confirmed(confirmationID string) {
	c.Context.State = StateConfirmation
	c.Context.ConfirmationID = confirmationID
	slot := c.Context.SelectedSlot
	kept := c.Context.AvailableSlots[:0]
	for _, s := range c.Context.AvailableSlots {
		if s != slot {
			kept = append(kept, s)
		}
	}
	c.Context.AvailableSlots = kept
}

// Spoke inspects an assistant utterance for closing cues. A goodbye always
// closes; a thank-you only closes once the booking is confirmed.
func (c *Call) Spoke(text string) {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, farewellCue):
		c.Context.State = StateClosing
	case strings.Contains(lower, thanksCue) && c.Context.ConfirmationID != "":
		c.Context.State = StateClosing
	}
}

func (c *Call) Failed(err error) {
	c.Context.State = StateError
	if err != nil {
		c.SetMetadata("last_error", err.Error())
	}
}

func (c *Call) End(now time.Time) {
	c.Ended = true
	c.Context.State = StateClosing
	c.Touch(now)
}

func (c *Call) SetMetadata(key string, value any) {
	if c.Context.Metadata == nil {
		c.Context.Metadata = map[string]any{}
	}
	c.Context.Metadata[key] = value
}

func (c *Call) Validate() error {
	if c == nil {
		return ErrNilCall
	}
	if strings.TrimSpace(c.ID) == "" {
		return ErrInvalidCall
	}
	switch c.Context.State {
	case StateGreeting, StateCollectingInfo, StateCheckingCoverage, StateOfferingSlots,
		StateBooking, StateConfirmation, StateClosing, StateError:
	default:
		return fmt.Errorf("unknown conversation state %q", c.Context.State)
	}
	if c.Nudges < 0 || c.Turns < 0 {
		return fmt.Errorf("negative counters on call %s", c.ID)
	}
	return nil
}

func setIfPresent(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
