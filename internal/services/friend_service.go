package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vaultguard/backend/internal/models"
	"github.com/vaultguard/backend/internal/repositories"
	"go.uber.org/zap"
)

// Local validation failures, resolved before any database or network work.
var (
	ErrInvalidAddress  = errors.New("not a valid wallet address")
	ErrMissingFields   = errors.New("missing required fields")
	ErrOwnerNotFound   = errors.New("owner does not exist, create user first")
	ErrDuplicateFriend = errors.New("friend already exists for this owner")
)

type AddFriendInput struct {
	PublicAddress       string
	FriendName          string
	FriendEmail         string
	FriendWalletAddress string
}

// FriendService manages the user and friend directory. Addresses are
// normalized to lowercase before they touch storage.
type FriendService struct {
	userRepo   *repositories.UserRepo
	friendRepo *repositories.FriendRepo
	log        *zap.Logger
}

func NewFriendService(userRepo *repositories.UserRepo, friendRepo *repositories.FriendRepo, log *zap.Logger) *FriendService {
	return &FriendService{userRepo: userRepo, friendRepo: friendRepo, log: log}
}

// RegisterUser creates a user for a wallet address. Registration is
// idempotent: an existing user is returned with created=false, which lets
// the wallet-connect side effect treat conflicts as success.
func (s *FriendService) RegisterUser(ctx context.Context, publicAddress string) (*models.User, bool, error) {
	addr, err := normalizeAddress(publicAddress)
	if err != nil {
		return nil, false, err
	}

	user, err := s.userRepo.Create(ctx, addr)
	if errors.Is(err, repositories.ErrDuplicate) {
		existing, getErr := s.userRepo.GetByAddress(ctx, addr)
		if getErr != nil {
			return nil, false, getErr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	s.log.Info("user registered", zap.String("address", addr))
	return user, true, nil
}

func (s *FriendService) AddFriend(ctx context.Context, in AddFriendInput) (*models.Friend, error) {
	var missing []string
	if strings.TrimSpace(in.PublicAddress) == "" {
		missing = append(missing, "publicAddress")
	}
	if strings.TrimSpace(in.FriendName) == "" {
		missing = append(missing, "friendName")
	}
	if strings.TrimSpace(in.FriendWalletAddress) == "" {
		missing = append(missing, "friendWalletAddress")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}

	owner, err := normalizeAddress(in.PublicAddress)
	if err != nil {
		return nil, fmt.Errorf("publicAddress: %w", err)
	}
	friendAddr, err := normalizeAddress(in.FriendWalletAddress)
	if err != nil {
		return nil, fmt.Errorf("friendWalletAddress: %w", err)
	}

	if _, err := s.userRepo.GetByAddress(ctx, owner); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOwnerNotFound
		}
		return nil, err
	}

	friend := &models.Friend{
		OwnerAddress:        owner,
		FriendWalletAddress: friendAddr,
		FriendName:          strings.TrimSpace(in.FriendName),
	}
	if e := strings.TrimSpace(in.FriendEmail); e != "" {
		friend.FriendEmail = &e
	}

	if err := s.friendRepo.Create(ctx, friend); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrDuplicateFriend
		}
		return nil, err
	}

	s.log.Info("friend added",
		zap.String("owner", owner),
		zap.String("friend", friendAddr),
	)
	return friend, nil
}

func (s *FriendService) ListFriends(ctx context.Context, publicAddress string) ([]models.Friend, error) {
	addr, err := normalizeAddress(publicAddress)
	if err != nil {
		return nil, err
	}
	return s.friendRepo.ListByOwner(ctx, addr)
}

func normalizeAddress(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if !common.IsHexAddress(addr) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	return strings.ToLower(addr), nil
}
