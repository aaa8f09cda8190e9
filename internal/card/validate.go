package card

import (
	"fmt"
	"strings"
)

// Validate checks that a draft can be sent to the backend
func Validate(f Fields) error {
	if strings.TrimSpace(f.Front) == "" {
		return fmt.Errorf("front text cannot be empty")
	}
	return nil
}

// ValidateID checks that an ID addresses a stored card
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("card id cannot be empty")
	}
	if strings.Contains(id, "/") {
		return fmt.Errorf("invalid card id: %s", id)
	}
	return nil
}
