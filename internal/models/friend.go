package models

import (
	"time"

	"github.com/google/uuid"
)

// Friend is a nominee candidate registered by a wallet owner. Uniqueness is
// per owner: the same wallet can be a friend of many distinct owners, but
// only once per owner.
type Friend struct {
	ID                  uuid.UUID `json:"id"`
	OwnerAddress        string    `json:"publicAddress"`
	FriendWalletAddress string    `json:"friendWalletAddress"`
	FriendName          string    `json:"friendName"`
	FriendEmail         *string   `json:"friendEmail,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
}
