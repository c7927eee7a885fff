package reservations

type SubmitReservationRequest struct {
	EventID         string `json:"event_id" binding:"required,uuid" validate:"required,uuid"`
	CustomerName    string `json:"customer_name" binding:"required,min=2,max=255" validate:"required,min=2,max=255"`
	Email           string `json:"email" binding:"required,email" validate:"required,email"`
	Phone           string `json:"phone" binding:"omitempty,max=50" validate:"omitempty,max=50"`
	Notes           string `json:"notes" binding:"omitempty,max=2000" validate:"omitempty,max=2000"`
	NumberOfPersons int    `json:"number_of_persons" binding:"required,min=1,max=500" validate:"required,min=1,max=500"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending waitlisted confirmed cancelled rejected"`
}

type ListReservationsQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=pending waitlisted confirmed cancelled rejected"`
}
