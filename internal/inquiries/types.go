package inquiries

import (
	"errors"
	"time"
)

// Status tracks an inquiry through review.
type Status string

const (
	StatusPending     Status = "Pending"
	StatusReviewed    Status = "Reviewed"
	StatusActionTaken Status = "Action Taken"
)

var statusRank = map[Status]int{
	StatusPending:     0,
	StatusReviewed:    1,
	StatusActionTaken: 2,
}

// ParseStatus accepts a status by its display name.
func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	_, ok := statusRank[st]
	return st, ok
}

// Inquiry is a price-overcharge report against a pharmacy.
type Inquiry struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	MedicineName string    `json:"medicineName"`
	PricePaid    string    `json:"pricePaid"`
	PharmacyName string    `json:"pharmacyName"`
	Location     string    `json:"location"`
	Date         string    `json:"date"`
	NIC          string    `json:"nic"`
	Phone        string    `json:"phone"`
	BillImage    string    `json:"billImage,omitempty"`
	Status       Status    `json:"status"`
	SubmittedAt  time.Time `json:"submittedAt"`
}

// SubmitRequest is the inquiry form.
type SubmitRequest struct {
	MedicineName string `json:"medicineName" validate:"required,max=120"`
	PricePaid    string `json:"pricePaid" validate:"required,max=32"`
	PharmacyName string `json:"pharmacyName" validate:"required,max=120"`
	Location     string `json:"location" validate:"max=120"`
	Date         string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	NIC          string `json:"nic" validate:"max=12"`
	Phone        string `json:"phone" validate:"max=20"`
	BillImage    string `json:"billImage"`
}

// MedicineCount is one row of the top-medicines table.
type MedicineCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// StatusDistribution counts inquiries per status.
type StatusDistribution struct {
	Pending     int `json:"pending"`
	Reviewed    int `json:"reviewed"`
	ActionTaken int `json:"actionTaken"`
}

// Analytics summarises all inquiries for the admin dashboard.
type Analytics struct {
	Total              int                `json:"total"`
	StatusDistribution StatusDistribution `json:"statusDistribution"`
	TopMedicines       []MedicineCount    `json:"topMedicines"`
	Locations          map[string]int     `json:"locations"`
}

// TopMedicineLimit bounds Analytics.TopMedicines.
const TopMedicineLimit = 5

// UnknownLocation labels inquiries without a location.
const UnknownLocation = "Unknown"

var (
	ErrInvalid           = errors.New("Please fill all required fields.")
	ErrNotFound          = errors.New("inquiry not found")
	ErrInvalidTransition = errors.New("inquiry status can only move forward")
)
