package service

import (
	"errors"

	"medprep_backend/internal/model"
	"medprep_backend/internal/repository"
	"medprep_backend/internal/util"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	UserRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{UserRepo: userRepo}
}

func (s *UserService) GetByID(id uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	return user, err
}

type ProfileUpdate struct {
	Name       string `json:"name"`
	TargetExam string `json:"targetExam"`
	PrepYear   int    `json:"prepYear"`
	Avatar     string `json:"avatar"`
}

func (s *UserService) UpdateProfile(userID uint, update ProfileUpdate) (*model.User, error) {
	user, err := s.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if update.Name != "" {
		user.Name = update.Name
	}
	if update.TargetExam != "" {
		user.TargetExam = update.TargetExam
	}
	if update.PrepYear != 0 {
		user.PrepYear = update.PrepYear
	}
	if update.Avatar != "" {
		user.Avatar = update.Avatar
	}
	return user, s.UserRepo.Update(user)
}

func (s *UserService) ChangePassword(userID uint, current, next string) error {
	user, err := s.GetByID(userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return errors.New("current password is incorrect")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hashed)
	return s.UserRepo.Update(user)
}

func (s *UserService) List(query string, page, limit int) ([]model.User, int64, error) {
	return s.UserRepo.List(query, limit, (page-1)*limit)
}

func (s *UserService) SetDisabled(userID uint, disabled bool) error {
	user, err := s.GetByID(userID)
	if err != nil {
		return err
	}
	user.Disabled = disabled
	return s.UserRepo.Update(user)
}

func (s *UserService) TouchLastSeen(userID uint) {
	s.UserRepo.UpdateLastSeen(userID)
}
