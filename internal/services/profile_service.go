package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"oneridetho/internal/models"
	"oneridetho/internal/repositories/interfaces"
	"oneridetho/internal/utils"
	"oneridetho/internal/validators"
	"oneridetho/pkg/logger"
	"oneridetho/pkg/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProfileService interface {
	GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	UploadPhoto(ctx context.Context, userID primitive.ObjectID, filename string, file io.Reader, size int64) (*models.User, error)
	UploadVerificationPhoto(ctx context.Context, userID primitive.ObjectID, filename string, file io.Reader, size int64) (string, error)
	GetVerification(ctx context.Context, userID primitive.ObjectID) (*VerificationDetails, error)
	UpdateVerification(ctx context.Context, userID primitive.ObjectID, request *VerificationRequest) (*VerificationDetails, error)
}

type VerificationRequest struct {
	GovernmentIssuedID   string `json:"government_issued_id" validate:"required,max=64"`
	VerificationPhotoURL string `json:"verification_photo_url" validate:"required,url,max=2048"`
}

type VerificationDetails struct {
	GovernmentIssuedID   string `json:"government_issued_id"`
	VerificationPhotoURL string `json:"verification_photo_url"`
	Verified             bool   `json:"verified"`
}

type profileService struct {
	userRepo     interfaces.UserRepository
	storage      storage.StorageProvider
	maxImageSize int64
	maxImageEdge uint
	now          func() time.Time
	logger       *logger.Logger
}

func NewProfileService(
	userRepo interfaces.UserRepository,
	store storage.StorageProvider,
	maxImageSize int64,
	maxImageEdge uint,
	logger *logger.Logger,
) ProfileService {
	if maxImageSize <= 0 {
		maxImageSize = utils.MaxImageSize
	}
	return &profileService{
		userRepo:     userRepo,
		storage:      store,
		maxImageSize: maxImageSize,
		maxImageEdge: maxImageEdge,
		now:          time.Now,
		logger:       logger,
	}
}

func (s *profileService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return user, nil
}

func (s *profileService) UploadPhoto(ctx context.Context, userID primitive.ObjectID, filename string, file io.Reader, size int64) (*models.User, error) {
	url, err := s.storeImage(ctx, userID, "photos", filename, file, size)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.Update(ctx, userID, map[string]interface{}{"photo_url": url}); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return s.GetProfile(ctx, userID)
}

func (s *profileService) UploadVerificationPhoto(ctx context.Context, userID primitive.ObjectID, filename string, file io.Reader, size int64) (string, error) {
	if _, err := s.GetProfile(ctx, userID); err != nil {
		return "", err
	}
	return s.storeImage(ctx, userID, "verification", filename, file, size)
}

func (s *profileService) GetVerification(ctx context.Context, userID primitive.ObjectID) (*VerificationDetails, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &VerificationDetails{
		GovernmentIssuedID:   user.GovernmentIssuedID,
		VerificationPhotoURL: user.VerificationPhotoURL,
		Verified:             user.Verified,
	}, nil
}

func (s *profileService) UpdateVerification(ctx context.Context, userID primitive.ObjectID, request *VerificationRequest) (*VerificationDetails, error) {
	request.GovernmentIssuedID = strings.TrimSpace(request.GovernmentIssuedID)
	request.VerificationPhotoURL = strings.TrimSpace(request.VerificationPhotoURL)
	if errs := validators.ValidateStruct(request); errs != nil {
		return nil, &InputError{Fields: errs.Details()}
	}

	// an operator flips verified after reviewing the documents
	err := s.userRepo.Update(ctx, userID, map[string]interface{}{
		"government_issued_id":   request.GovernmentIssuedID,
		"verification_photo_url": request.VerificationPhotoURL,
		"verified":               false,
	})
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return s.GetVerification(ctx, userID)
}

func (s *profileService) storeImage(ctx context.Context, userID primitive.ObjectID, folder, filename string, file io.Reader, size int64) (string, error) {
	if s.storage == nil {
		return "", fmt.Errorf("file storage is not configured")
	}
	if size > s.maxImageSize {
		return "", invalidInput("file", fmt.Sprintf("image must be at most %d bytes", s.maxImageSize))
	}
	if !utils.IsValidImageFormat(filename) {
		return "", invalidInput("file", "only jpg and png images are accepted")
	}

	data, _, err := utils.NormalizeImage(io.LimitReader(file, s.maxImageSize+1), filename, s.maxImageEdge)
	if err != nil {
		return "", invalidInput("file", "image could not be read")
	}

	key := fmt.Sprintf("users/%s/%s/%d.jpg", userID.Hex(), folder, s.now().UnixNano())
	resp, err := s.storage.Upload(ctx, &storage.UploadRequest{
		Key:          key,
		Reader:       bytes.NewReader(data),
		ContentType:  "image/jpeg",
		Size:         int64(len(data)),
		CacheControl: "public, max-age=31536000",
	})
	if err != nil {
		s.logger.WithError(err).WithUserID(userID).Error("Failed to store image")
		return "", fmt.Errorf("%s: %w", utils.ErrFileUploadFailed, err)
	}
	return resp.URL, nil
}
