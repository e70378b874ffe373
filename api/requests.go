package api

import (
	"strings"

	"github.com/Kamiltczarnik/Lira/advisor"
	"github.com/Kamiltczarnik/Lira/apperror"
	"github.com/Kamiltczarnik/Lira/models"
)

// ChatRequest accepts two shapes. The single-message shape sets Message and History;
// the transcript shape sets Messages, whose last entry is the new user turn.
type ChatRequest struct {
	Message  string                  `json:"message"`
	History  []advisor.Message       `json:"history" validate:"dive"`
	Messages []advisor.Message       `json:"messages" validate:"dive"`
	UserData *models.CustomerProfile `json:"user_data"`
}

// ChatResponse carries history for the message shape and audio_url for the transcript shape.
type ChatResponse struct {
	Reply    string            `json:"reply"`
	History  []advisor.Message `json:"history,omitempty"`
	AudioURL string            `json:"audio_url,omitempty"`
}

// LoginRequest is the login body. Password is accepted but not checked.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password"`
}

// LoginResponse returns the matched customer id.
type LoginResponse struct {
	CustomerID string `json:"customer_id"`
}

// SignupRequest is the signup body; Street is split into number and name.
type SignupRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Street    string `json:"street" validate:"required"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required"`
	Zip       string `json:"zip" validate:"required"`
}

const streetFormatMessage = "Street must be in the format 'Number Street Name'"

// splitStreet splits "12 Main St" on the first space into number and name.
func splitStreet(street string) (string, string, error) {
	number, name, ok := strings.Cut(strings.TrimSpace(street), " ")
	name = strings.TrimSpace(name)
	if !ok || number == "" || name == "" {
		return "", "", &apperror.ValidationError{Field: "street", Message: streetFormatMessage}
	}
	return number, name, nil
}

func (r SignupRequest) toSignup() (models.Signup, error) {
	number, name, err := splitStreet(r.Street)
	if err != nil {
		return models.Signup{}, err
	}
	return models.Signup{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Address: models.Address{
			StreetNumber: number,
			StreetName:   name,
			City:         r.City,
			State:        r.State,
			Zip:          r.Zip,
		},
	}, nil
}
