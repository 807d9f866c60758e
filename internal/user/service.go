package user

import (
	"context"
	"fmt"
	"strings"

	"milkdirect-be/internal/auth"
	"milkdirect-be/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	Register(ctx context.Context, email, password string) (string, User, error)
	Login(ctx context.Context, email, password string) (string, User, error)
	GetProfile(ctx context.Context, session auth.Session) (*Profile, error)
	UpdateProfile(ctx context.Context, session auth.Session, params UpdateProfileParams) (*Profile, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Register(ctx context.Context, email, password string) (string, User, error) {
	log := logger.FromCtx(ctx)

	hashed, err := auth.HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return "", User{}, err
	}

	u, err := s.repo.Create(ctx, email, hashed, string(auth.RoleUser))
	if err != nil {
		log.Error("failed to create user", zap.String("email", email), zap.Error(err))
		if strings.Contains(err.Error(), "users_email_key") {
			return "", User{}, ErrEmailExists
		}
		return "", User{}, err
	}

	token, err := auth.GenerateJWT(u.ID, u.Role, email)
	if err != nil {
		log.Error("failed to generate jwt", zap.String("user_id", fmt.Sprint(u.ID)), zap.Error(err))
		return "", User{}, err
	}

	log.Info("register service completed",
		zap.String("user_id", fmt.Sprint(u.ID)),
		zap.String("email", email),
	)

	return token, u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (string, User, error) {
	log := logger.FromCtx(ctx)

	u, err := s.repo.FindByEmail(email)
	if err != nil {
		log.Info("email not found", zap.String("email", email))
		return "", User{}, ErrInvalidCredentials
	}

	if !auth.CheckPasswordHash(password, u.Password) {
		log.Info("password not match", zap.String("email", email))
		return "", User{}, ErrInvalidCredentials
	}

	token, err := auth.GenerateJWT(u.ID, u.Role, email)
	return token, u, err
}

func (s *service) GetProfile(ctx context.Context, session auth.Session) (*Profile, error) {
	if !session.Valid() {
		return nil, auth.ErrUnauthenticated
	}
	return s.repo.GetProfile(ctx, session.UserID)
}

func (s *service) UpdateProfile(ctx context.Context, session auth.Session, params UpdateProfileParams) (*Profile, error) {
	if !session.Valid() {
		return nil, auth.ErrUnauthenticated
	}
	return s.repo.UpsertProfile(ctx, session.UserID, params)
}
