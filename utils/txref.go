package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Transaction references follow {prefix}_{entityID}_{timestamp}. Providers
// echo them back on webhooks, so they must be globally unique; a short uuid
// fragment covers same-second retries for the same entity.
func NewTxRef(prefix string, entityID uint) string {
	frag := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("%s_%d_%d%s", prefix, entityID, time.Now().Unix(), frag)
}

// NewOrderNumber builds a human-readable order number, e.g. ORD-20250830-1a2b3c.
func NewOrderNumber() string {
	frag := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("ORD-%s-%s", time.Now().Format("20060102"), frag)
}
