package domain

// Branch is a physical bank branch.
type Branch struct {
	BranchID      ID      `json:"branchId"`
	BranchName    string  `json:"branchName"`
	Address       string  `json:"address"`
	City          string  `json:"city"`
	State         string  `json:"state"`
	PostalCode    string  `json:"postalCode"`
	PhoneNumber   string  `json:"phoneNumber"`
	Email         string  `json:"email"`
	BranchManager string  `json:"branchManager,omitempty"`
	Lat           float64 `json:"lat,omitempty"`
	Lng           float64 `json:"lng,omitempty"`
}

// Banker is a branch employee customers can book appointments with.
type Banker struct {
	BankerID    ID     `json:"bankerId"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	JobTitle    string `json:"jobTitle"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

// TimeslotLayout is how appointment times travel to the gateway.
const TimeslotLayout = "2006-01-02T15:04:05"

// AppointmentRequest books a banker at a branch.
type AppointmentRequest struct {
	UserID      ID     `json:"userId"`
	BranchID    ID     `json:"branchId"`
	BankerID    ID     `json:"bankerId"`
	ServiceID   ID     `json:"serviceId,omitempty"`
	Timeslot    string `json:"timeslot"`
	Description string `json:"description,omitempty"`
}

// Appointment is a booked appointment.
type Appointment struct {
	AppointmentID ID     `json:"appointmentId"`
	BankerID      ID     `json:"bankerId"`
	Timeslot      string `json:"timeslot"`
}
