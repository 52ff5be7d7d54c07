package models

type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

type AuthResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}

type SessionResponse struct {
	LoggedIn bool  `json:"loggedIn"`
	UserID   int64 `json:"userId,omitempty"`
}
