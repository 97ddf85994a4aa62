package noshow

type recordRequest struct {
	CustomerID string  `json:"customer_id" validate:"required,uuid"`
	BookingRef *string `json:"booking_ref,omitempty"`
}

type recordResponse struct {
	Record   *Record  `json:"record"`
	Standing Standing `json:"standing"`
}

type disputeRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type resolveRequest struct {
	Resolution string `json:"resolution" validate:"required,dispute_resolution"`
}

type standingResponse struct {
	CustomerID     string   `json:"customer_id"`
	ShopID         string   `json:"shop_id"`
	Standing       Standing `json:"standing"`
	EffectiveCount int      `json:"effective_count"`
}
