package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewReference returns a transaction reference of the form PAY-<unix millis>-<12 hex>.
func NewReference() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("PAY-%d-%s", time.Now().UnixMilli(), id[:12])
}
