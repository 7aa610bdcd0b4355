// Package notification keeps the user's notification inbox in sync and
// extracts the order references embedded in notification text.
package notification

import (
	"regexp"

	"github.com/google/uuid"
)

// orderIDPattern matches the order id that follows the "Mã đơn :" label.
// Whitespace around the colon varies between server templates.
var orderIDPattern = regexp.MustCompile(`Mã đơn\s*:\s*([0-9a-fA-F-]{36})`)

// ExtractOrderID returns the order id embedded in text. ok is false when
// the label is absent or the value is not a valid UUID.
func ExtractOrderID(text string) (string, bool) {
	m := orderIDPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	id, err := uuid.Parse(m[1])
	if err != nil {
		return "", false
	}
	return id.String(), true
}
