package utils

import (
	"fmt"

	"github.com/google/uuid"
)

// GenerateID returns a random identifier of the form "<prefix>-<uuid>".
func GenerateID(prefix string) string {
	if prefix == "" {
		return uuid.NewString()
	}
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}
