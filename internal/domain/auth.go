package domain

// AuthenticationRequest is the sign-in payload.
type AuthenticationRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthenticationResponse carries the token issued on sign-in or sign-up.
type AuthenticationResponse struct {
	Token string `json:"token"`
}

// ForgotPasswordRequest starts the password reset flow.
type ForgotPasswordRequest struct {
	EmailOrUsername string `json:"emailOrUsername"`
}

// ResetPasswordRequest completes the password reset flow.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}
