package api

import "net/url"

// User is the profile returned for the authenticated user.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Submission is a new price report, POST /fuel-price.
type Submission struct {
	FuelType       string  `json:"fuelType" validate:"required,oneof=1 2 3 4 5 6 7 8"`
	Price          float64 `json:"price" validate:"gt=0"`
	GasStationName string  `json:"gasStationName" validate:"required"`
	Address        string  `json:"address" validate:"required"`
}

// Filters narrows GET /fuel-prices.
type Filters struct {
	FuelType string
}

func (f Filters) values() url.Values {
	v := url.Values{}
	if f.FuelType != "" {
		v.Set("fuelType", f.FuelType)
	}
	return v
}

type tokenResponse struct {
	Token string `json:"token"`
}

type validateRequest struct {
	Token string `json:"token"`
}

type validateResponse struct {
	Valid bool `json:"valid"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
