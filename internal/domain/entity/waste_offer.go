package entity

import (
	"strings"
	"time"
)

const (
	// MaxActiveOffers caps offers per user in an active status.
	MaxActiveOffers = 3
	// MaxImages caps photos attached to a single offer.
	MaxImages = 3
)

type MaterialType string

const (
	MaterialPlastic    MaterialType = "PLASTIC"
	MaterialGlass      MaterialType = "GLASS"
	MaterialMetal      MaterialType = "METAL"
	MaterialPaper      MaterialType = "PAPER"
	MaterialCardboard  MaterialType = "CARDBOARD"
	MaterialElectronic MaterialType = "ELECTRONIC"
	MaterialTextile    MaterialType = "TEXTILE"
	MaterialWood       MaterialType = "WOOD"
	MaterialRubber     MaterialType = "RUBBER"
	MaterialOrganic    MaterialType = "ORGANIC"
	MaterialOther      MaterialType = "OTHER"
)

func (m MaterialType) Valid() bool {
	switch m {
	case MaterialPlastic, MaterialGlass, MaterialMetal, MaterialPaper,
		MaterialCardboard, MaterialElectronic, MaterialTextile, MaterialWood,
		MaterialRubber, MaterialOrganic, MaterialOther:
		return true
	default:
		return false
	}
}

type OfferType string

const (
	OfferSell   OfferType = "SELL"
	OfferDonate OfferType = "DONATE"
)

func (o OfferType) Valid() bool {
	return o == OfferSell || o == OfferDonate
}

type OfferStatus string

const (
	StatusAvailable OfferStatus = "AVAILABLE"
	StatusReserved  OfferStatus = "RESERVED"
	StatusTaken     OfferStatus = "TAKEN"
	StatusCompleted OfferStatus = "COMPLETED"
	StatusCancelled OfferStatus = "CANCELLED"
)

func ParseOfferStatus(s string) (OfferStatus, bool) {
	st := OfferStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusAvailable, StatusReserved, StatusTaken, StatusCompleted, StatusCancelled:
		return st, true
	default:
		return "", false
	}
}

func (s OfferStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Active statuses count against the per-user offer quota.
func (s OfferStatus) Active() bool {
	switch s {
	case StatusAvailable, StatusReserved, StatusTaken:
		return true
	default:
		return false
	}
}

func ActiveStatuses() []OfferStatus {
	return []OfferStatus{StatusAvailable, StatusReserved, StatusTaken}
}

type WasteOffer struct {
	ID             string       `bson:"_id,omitempty"`
	Title          string       `bson:"title"`
	Description    string       `bson:"description"`
	MaterialType   MaterialType `bson:"material_type"`
	Weight         *float64     `bson:"weight,omitempty"` // kilograms
	Condition      string       `bson:"condition,omitempty"`
	OfferType      OfferType    `bson:"offer_type"`
	SuggestedPrice *float64     `bson:"suggested_price,omitempty"`
	Images         []string     `bson:"images"`
	Status         OfferStatus  `bson:"status"`
	Address        string       `bson:"address"`
	Latitude       float64      `bson:"latitude"`
	Longitude      float64      `bson:"longitude"`
	UserID         string       `bson:"user_id"`
	PengepulID     *string      `bson:"pengepul_id,omitempty"`
	CreatedAt      time.Time    `bson:"created_at"`
	UpdatedAt      time.Time    `bson:"updated_at"`
	ReservedAt     *time.Time   `bson:"reserved_at,omitempty"`
	TakenAt        *time.Time   `bson:"taken_at,omitempty"`
	CompletedAt    *time.Time   `bson:"completed_at,omitempty"`
	Version        int          `bson:"version"`
}

// CanTransitionTo reports whether the status change is allowed. The valid set
// is {AVAILABLE→RESERVED, AVAILABLE→TAKEN, RESERVED→TAKEN} plus any
// non-terminal status into COMPLETED or CANCELLED. A transition to the current
// status is allowed but is a no-op for the caller.
func (o *WasteOffer) CanTransitionTo(newStatus OfferStatus) bool {
	if o.Status == newStatus {
		return true
	}
	if o.Status.Terminal() {
		return false
	}
	if newStatus == StatusCompleted || newStatus == StatusCancelled {
		return true
	}
	validTransitions := map[OfferStatus][]OfferStatus{
		StatusAvailable: {StatusReserved, StatusTaken},
		StatusReserved:  {StatusTaken},
		StatusTaken:     {},
	}
	for _, s := range validTransitions[o.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}

// OfferDetail carries an offer plus the public summaries of its owner and the
// assigned collector, the shape returned to API callers.
type OfferDetail struct {
	WasteOffer
	Owner    *UserSummary `json:"owner,omitempty"`
	Pengepul *UserSummary `json:"pengepul,omitempty"`
}

// OfferStats summarizes a user's offers for the dashboard.
type OfferStats struct {
	ActiveCount    int64 `json:"activeCount"`
	AvailableSlots int64 `json:"availableSlots"`
	CompletedCount int64 `json:"completedCount"`
	CancelledCount int64 `json:"cancelledCount"`
}
