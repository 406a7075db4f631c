package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"WakeOrPay/internal/model"
	"WakeOrPay/internal/model/dto"
	"WakeOrPay/internal/store"
	pkgerrors "WakeOrPay/pkg/errors"
	"WakeOrPay/pkg/snowflake"
	"WakeOrPay/pkg/token"
)

// UserService issues token pairs. Identity arrives pre-verified from the
// app's sign-in flow; this service keys users by email.
type UserService struct {
	store store.Store
}

var (
	userService *UserService
	userOnce    sync.Once
)

func User() *UserService {
	userOnce.Do(func() {
		userService = NewUserService(defaultStore())
	})
	return userService
}

func NewUserService(st store.Store) *UserService {
	return &UserService{store: st}
}

// IssueTokens returns a token pair for the user, creating the account on
// first sight of the email.
func (s *UserService) IssueTokens(ctx context.Context, req dto.TokenRequest) (*dto.TokenResponse, error) {
	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, store.ErrNotFound) {
		user, err = s.createUser(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	return s.tokensFor(user)
}

// Refresh trades a valid refresh token for a new pair.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	uid, err := token.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, pkgerrors.Unauthorized
	}

	publicID, err := strconv.ParseInt(uid, 10, 64)
	if err != nil {
		return nil, pkgerrors.InvalidUserID
	}

	user, err := s.store.GetUserByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, pkgerrors.Unauthorized
		}
		return nil, err
	}

	return s.tokensFor(user)
}

// ResolveUser maps a token identity to the internal user row.
func (s *UserService) ResolveUser(ctx context.Context, uid string) (*model.User, error) {
	publicID, err := strconv.ParseInt(uid, 10, 64)
	if err != nil {
		return nil, pkgerrors.InvalidUserID
	}
	user, err := s.store.GetUserByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, pkgerrors.Unauthorized
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) createUser(ctx context.Context, req dto.TokenRequest) (*model.User, error) {
	publicID, err := snowflake.NextID()
	if err != nil {
		return nil, err
	}

	tz := req.Timezone
	if tz == "" {
		tz = "Asia/Tokyo"
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return nil, pkgerrors.TimezoneInvalid
	}

	user := &model.User{
		PublicID: publicID,
		Email:    req.Email,
		Nickname: req.Nickname,
		Timezone: tz,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// Concurrent first sign-in; adopt the winner's row.
			return s.store.GetUserByEmail(ctx, req.Email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *UserService) tokensFor(user *model.User) (*dto.TokenResponse, error) {
	uid := fmt.Sprintf("%d", user.PublicID)
	access, refresh, expiresIn, err := token.GenerateTokenPair(uid)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}
	return &dto.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    expiresIn,
		UserID:       uid,
	}, nil
}
