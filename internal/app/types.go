package app

type RegisterRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Alias    *string `json:"alias"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type UpdateMeRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Alias    *string `json:"alias"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type PhotoResponse struct {
	PhotoURL string `json:"photo_url"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

type LivenessResponse struct {
	Status     string `json:"status"`
	Host       string `json:"host"`
	GOMAXPROCS int    `json:"gomaxprocs"`
}
