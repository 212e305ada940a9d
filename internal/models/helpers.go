package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateMatchID returns a globally unique match identifier. A random UUID is
// used instead of a time-plus-uid key so two matches started by the same player
// in the same instant can never collide.
func GenerateMatchID() string {
	return fmt.Sprintf("match_%s_%s",
		time.Now().Format("20060102"),
		strings.ReplaceAll(uuid.New().String(), "-", ""))
}

// FormatCurrency renders centavos as pesos for log output.
func FormatCurrency(centavos int64) string {
	return fmt.Sprintf("₱%d.%02d", centavos/100, centavos%100)
}
