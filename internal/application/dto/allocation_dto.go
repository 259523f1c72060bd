package dto

import "github.com/shopspring/decimal"

// AllocationSearchRequest body for POST /api/allocation/search.
type AllocationSearchRequest struct {
	OrderID            string   `json:"order_id,omitempty"`
	Size               string   `json:"cylinder_size"`
	Quantity           int      `json:"quantity"`
	DeliveryLatitude   float64  `json:"delivery_latitude"`
	DeliveryLongitude  float64  `json:"delivery_longitude"`
	MaxDistanceKm      float64  `json:"max_distance_km,omitempty"` // default 50
	Urgent             bool     `json:"is_emergency,omitempty"`
	MinFillPercentage  float64  `json:"min_fill_percentage,omitempty"` // default 90
	PreferredVendorID  string   `json:"preferred_vendor_id,omitempty"`
	RequiredCheckTypes []string `json:"quality_requirements,omitempty"`
}

// AllocationOptionDTO is one fulfillable (vendor, location, cylinder set)
// combination with its metrics and rank.
type AllocationOptionDTO struct {
	VendorID              string          `json:"vendor_id"`
	LocationID            string          `json:"location_id"`
	CylinderIDs           []string        `json:"cylinder_ids"`
	DistanceKm            float64         `json:"distance_km"`
	TotalCapacityLiters   decimal.Decimal `json:"total_capacity_liters"`
	AverageFillPercentage float64         `json:"average_fill_percentage"`
	TotalCost             decimal.Decimal `json:"total_cost"`
	Currency              string          `json:"currency"`
	DeliveryTimeMinutes   int             `json:"estimated_delivery_time_minutes"`
	QualityScore          float64         `json:"quality_score"`
	ReliabilityScore      float64         `json:"reliability_score"`
	CompositeScore        float64         `json:"composite_score"`
}

// AllocationSearchResponse is the ranked result of one allocation query.
// Zero options is a valid outcome, not an error.
type AllocationSearchResponse struct {
	OrderID     string                `json:"order_id,omitempty"`
	Options     []AllocationOptionDTO `json:"options"`
	Recommended *AllocationOptionDTO  `json:"recommended_option,omitempty"`
	Count       int                   `json:"total_options_found"`
}

// ReserveRequest body for POST /api/allocation/reserve.
type ReserveRequest struct {
	CylinderIDs []string `json:"cylinder_ids"`
	VendorID    string   `json:"vendor_id"`
	OrderID     string   `json:"order_id"`
	Actor       string   `json:"actor"`
}

// ReleaseRequest body for POST /api/allocation/release.
type ReleaseRequest struct {
	CylinderIDs []string `json:"cylinder_ids"`
	VendorID    string   `json:"vendor_id"`
	Actor       string   `json:"actor"`
	Reason      string   `json:"reason,omitempty"`
}
