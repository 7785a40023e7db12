package domain

// UserDetails is the profile returned by the user service.
type UserDetails struct {
	UserID      ID     `json:"userId"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	Phone       string `json:"phone,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Address     string `json:"address,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	ZipCode     string `json:"zipCode,omitempty"`
	Role        string `json:"role,omitempty"`
	IsVerified  bool   `json:"isVerified"`
}

// UserUpdate is the PATCH payload for profile edits. Empty fields are
// omitted and left unchanged by the backend.
type UserUpdate struct {
	Email       string `json:"email,omitempty"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	Phone       string `json:"phone,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Address     string `json:"address,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	ZipCode     string `json:"zipCode,omitempty"`
}

// Deactivation closes the user's online account. The backend re-checks
// the current password.
type Deactivation struct {
	IsActive        bool   `json:"isActive"`
	CurrentPassword string `json:"currentPassword"`
}
