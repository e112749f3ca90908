package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a wallet owner registered by connecting a wallet.
// PublicAddress is stored lowercase.
type User struct {
	ID            uuid.UUID `json:"id"`
	PublicAddress string    `json:"publicAddress"`
	CreatedAt     time.Time `json:"createdAt"`
}
