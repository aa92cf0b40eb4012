package tool

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

const (
	slotDays   = 3
	slotLayout = "Monday, 2006-01-02 03:04 PM"
)

// Hours of day offered on each seeded day.
var slotHours = []int{11, 15}

// SlotStore hands out fake availability per address. Slots are seeded lazily on
// first access and removed once booked; nothing outlives the process.
type SlotStore struct {
	mu    sync.Mutex
	slots map[string][]string
	now   func() time.Time
}

func NewSlotStore(now func() time.Time) *SlotStore {
	if now == nil {
		now = time.Now
	}
	return &SlotStore{
		slots: make(map[string][]string, 4),
		now:   now,
	}
}

// Available returns a copy of the open slots for address, seeding it if needed.
func (s *SlotStore) Available(address string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	avail, ok := s.slots[address]
	if !ok {
		avail = s.seed()
		s.slots[address] = avail
	}
	return slices.Clone(avail)
}

// Take removes slot from address's list. It reports false, leaving the store
// untouched, when the slot is not open. An address seen for the first time is
// only recorded when the take succeeds.
func (s *SlotStore) Take(address, slot string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	avail, ok := s.slots[address]
	if !ok {
		avail = s.seed()
	}
	idx := slices.Index(avail, slot)
	if idx < 0 {
		return false
	}
	s.slots[address] = slices.Delete(avail, idx, idx+1)
	return true
}

func (s *SlotStore) seed() []string {
	today := s.now()
	avail := make([]string, 0, slotDays*len(slotHours))
	for d := 1; d <= slotDays; d++ {
		day := today.AddDate(0, 0, d)
		for _, hour := range slotHours {
			at := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location())
			avail = append(avail, at.Format(slotLayout))
		}
	}
	return avail
}

// Booking is the snapshot recorded when a slot is taken.
type Booking struct {
	ConfirmationID string    `json:"confirmation_id"`
	Name           string    `json:"name"`
	Address        string    `json:"address"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email"`
	ServiceRequest string    `json:"service_request"`
	Slot           string    `json:"slot"`
	BookedAt       time.Time `json:"booked_at"`
}

type Ledger struct {
	mu       sync.Mutex
	bookings []Booking
}

func NewLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) Append(b Booking) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bookings = append(l.bookings, b)
}

func (l *Ledger) List() []Booking {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.bookings)
}

// ConfirmationID is stable for the same (name, address, slot); it is not unique.
func ConfirmationID(name, address, slot string) string {
	h := xxhash.New()
	_, _ = h.WriteString(name)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(address)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(slot)
	return fmt.Sprintf("JAC-%06d", h.Sum64()%1_000_000)
}

// IsCovered marks roughly nine addresses out of ten as inside the service area.
func IsCovered(address string) bool {
	return xxhash.Sum64String(address)%10 != 0
}
