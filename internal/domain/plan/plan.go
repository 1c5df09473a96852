package plan

import (
	"fmt"
	"strconv"
	"time"
)

// MinCycles and MaxCycles bound the supported installment range. A cycle
// count outside this range never produces an installment plan.
const (
	MinCycles = 2
	MaxCycles = 4
)

// ValidCycles reports whether n is a supported installment cycle count.
func ValidCycles(n int) bool {
	return n >= MinCycles && n <= MaxCycles
}

// PerCycleAmount splits an installment total into equal monthly charges.
// Integer floor division: a non-exact remainder is absorbed, never collected
// on any cycle, so perCycle*cycles <= total always holds.
func PerCycleAmount(total int64, cycles int) int64 {
	return total / int64(cycles)
}

// CancelAt computes the subscription's hard cancellation instant for an
// installment plan whose first charge posted at created. The processor
// charges again at each monthly anniversary, so created + (cycles-1)
// calendar months falls strictly after the Nth charge and strictly before
// an (N+1)th attempt.
func CancelAt(created time.Time, cycles int) time.Time {
	return addCalendarMonths(created, cycles-1)
}

// addCalendarMonths adds n calendar months, clamping to the last day of the
// target month the way the processor anchors billing dates (Jan 31 + 1 month
// is Feb 28/29, not Mar 2/3 as time.AddDate would normalize it).
func addCalendarMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	target := time.Date(year, month+time.Month(n), 1,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := lastDayOfMonth(target); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func lastDayOfMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// ModeLabel renders the catalog mode string carried in session metadata
// ("1x" for one-shot, "2x".."4x" for installment plans).
func ModeLabel(cycles int) string {
	return strconv.Itoa(cycles) + "x"
}

// Metadata is the typed envelope carried through the processor's key/value
// metadata bags. It is validated at the write boundary (session creation)
// and at the read boundary (webhook) so a malformed bag is an explicit
// parse error rather than a silent zero.
type Metadata struct {
	OfferID   string
	Mode      string
	Cycles    int
	FirstName string
	LastName  string
	Phone     string
	PromoCode string
}

const (
	keyOfferID   = "offerId"
	keyMode      = "mode"
	keyCycles    = "cycles"
	keyFirstName = "firstName"
	keyLastName  = "lastName"
	keyPhone     = "phone"
	keyPromoCode = "promoCode"
)

// Encode renders the envelope into the processor's metadata representation.
// Zero-cycle (one-shot) envelopes omit the cycles key entirely.
func (m Metadata) Encode() map[string]string {
	out := map[string]string{
		keyOfferID:   m.OfferID,
		keyMode:      m.Mode,
		keyFirstName: m.FirstName,
		keyLastName:  m.LastName,
		keyPhone:     m.Phone,
	}
	if m.Cycles > 0 {
		out[keyCycles] = strconv.Itoa(m.Cycles)
	}
	if m.PromoCode != "" {
		out[keyPromoCode] = m.PromoCode
	}
	return out
}

// ParseMetadata reads the envelope back from a processor metadata bag.
// An absent cycles key yields Cycles == 0 (not an installment plan); a
// present but unparseable cycles value is an error, never a default.
func ParseMetadata(bag map[string]string) (Metadata, error) {
	m := Metadata{
		OfferID:   bag[keyOfferID],
		Mode:      bag[keyMode],
		FirstName: bag[keyFirstName],
		LastName:  bag[keyLastName],
		Phone:     bag[keyPhone],
		PromoCode: bag[keyPromoCode],
	}
	if raw, ok := bag[keyCycles]; ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Metadata{}, fmt.Errorf("malformed cycles metadata %q: %w", raw, err)
		}
		m.Cycles = n
	}
	return m, nil
}
