package usecase

import (
	"context"
	"errors"

	"coursehub-backend/internal/domain"
	"coursehub-backend/pkg/utils"
)

type authUsecase struct {
	userRepo domain.UserRepository
}

func NewAuthUsecase(ur domain.UserRepository) domain.AuthUsecase {
	return &authUsecase{userRepo: ur}
}

func (uc *authUsecase) Register(ctx context.Context, user *domain.User) error {
	existing, err := uc.userRepo.GetByEmail(ctx, user.Email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if existing != nil {
		return domain.Conflictf("email %s already registered", user.Email)
	}

	if !user.Role.ValidForSignup() {
		return domain.BadRequestf("invalid role %q", user.Role)
	}

	hashed, err := utils.HashPassword(user.Password)
	if err != nil {
		return err
	}
	user.Password = hashed

	return uc.userRepo.Create(ctx, user)
}

func (uc *authUsecase) Login(ctx context.Context, email, password string) (string, error) {
	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		// same message for unknown email and wrong password
		return "", domain.BadRequestf("invalid credentials")
	}

	if !utils.CheckPasswordHash(password, user.Password) {
		return "", domain.BadRequestf("invalid credentials")
	}

	return utils.GenerateJWT(user.ID, string(user.Role))
}

func (uc *authUsecase) UpdateUser(ctx context.Context, user *domain.User) error {
	existing, err := uc.userRepo.GetByID(ctx, user.ID)
	if err != nil {
		return err
	}

	if user.FirstName != "" {
		existing.FirstName = user.FirstName
	}
	if user.LastName != "" {
		existing.LastName = user.LastName
	}
	if user.Country != "" {
		existing.Country = user.Country
	}
	if user.ProfilePicture != "" {
		existing.ProfilePicture = user.ProfilePicture
	}
	if user.Password != "" {
		hashed, err := utils.HashPassword(user.Password)
		if err != nil {
			return err
		}
		existing.Password = hashed
	}

	return uc.userRepo.Update(ctx, existing)
}

func (uc *authUsecase) GetUserByID(ctx context.Context, id uint) (*domain.User, error) {
	return uc.userRepo.GetByID(ctx, id)
}
