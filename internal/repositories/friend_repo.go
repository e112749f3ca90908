package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vaultguard/backend/internal/models"
)

type FriendRepo struct {
	pool *pgxpool.Pool
}

func NewFriendRepo(pool *pgxpool.Pool) *FriendRepo {
	return &FriendRepo{pool: pool}
}

// Create inserts a friend for an owner. The (owner_address,
// friend_wallet_address) pair is unique; conflicts return ErrDuplicate.
func (r *FriendRepo) Create(ctx context.Context, f *models.Friend) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO friends (owner_address, friend_wallet_address, friend_name, friend_email)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, f.OwnerAddress, f.FriendWalletAddress, f.FriendName, f.FriendEmail).Scan(&f.ID, &f.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *FriendRepo) ListByOwner(ctx context.Context, ownerAddress string) ([]models.Friend, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_address, friend_wallet_address, friend_name, friend_email, created_at
		FROM friends
		WHERE owner_address = $1
		ORDER BY created_at DESC
	`, ownerAddress)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	friends := make([]models.Friend, 0)
	for rows.Next() {
		var f models.Friend
		if err := rows.Scan(&f.ID, &f.OwnerAddress, &f.FriendWalletAddress, &f.FriendName, &f.FriendEmail, &f.CreatedAt); err != nil {
			return nil, err
		}
		friends = append(friends, f)
	}
	return friends, rows.Err()
}
