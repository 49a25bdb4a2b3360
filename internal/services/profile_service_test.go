package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"

	"oneridetho/internal/models"
	"oneridetho/pkg/logger"
	"oneridetho/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (s *fakeStorage) Upload(ctx context.Context, request *storage.UploadRequest) (*storage.UploadResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	data, err := io.ReadAll(request.Reader)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[request.Key] = data
	s.types[request.Key] = request.ContentType
	return &storage.UploadResponse{Key: request.Key, URL: "https://cdn.example.com/" + request.Key, Size: int64(len(data))}, nil
}

func (s *fakeStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newProfileFixture(store storage.StorageProvider) (*profileService, *fakeUserRepo, *models.User) {
	user := &models.User{Name: "Keisha Rolle", Email: "keisha@example.com"}
	users := newFakeUserRepo(user)
	svc := NewProfileService(users, store, 1<<20, 256, logger.NewNop()).(*profileService)
	return svc, users, user
}

func TestUploadPhotoStoresResizedJPEG(t *testing.T) {
	store := newFakeStorage()
	svc, _, user := newProfileFixture(store)
	data := pngBytes(t, 1024, 512)

	updated, err := svc.UploadPhoto(context.Background(), user.ID, "me.png", bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	require.Len(t, store.objects, 1)
	for key, stored := range store.objects {
		assert.True(t, strings.HasPrefix(key, "users/"+user.ID.Hex()+"/photos/"))
		assert.Equal(t, "image/jpeg", store.types[key])
		assert.Equal(t, "https://cdn.example.com/"+key, updated.PhotoURL)

		cfg, err := jpeg.DecodeConfig(bytes.NewReader(stored))
		require.NoError(t, err)
		assert.Equal(t, 256, cfg.Width)
		assert.Equal(t, 128, cfg.Height)
	}
	assert.True(t, updated.HasPhoto())
}

func TestUploadPhotoRejections(t *testing.T) {
	data := pngBytes(t, 10, 10)

	tests := []struct {
		name     string
		filename string
		body     []byte
		size     int64
	}{
		{"too large", "me.png", data, 2 << 20},
		{"wrong type", "me.gif", data, int64(len(data))},
		{"not an image", "me.png", []byte("definitely not a png"), 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStorage()
			svc, _, user := newProfileFixture(store)

			_, err := svc.UploadPhoto(context.Background(), user.ID, tt.filename, bytes.NewReader(tt.body), tt.size)

			var inputErr *InputError
			require.True(t, errors.As(err, &inputErr), "got %v", err)
			assert.Contains(t, inputErr.Fields, "file")
			assert.Empty(t, store.objects)
		})
	}
}

func TestUploadPhotoStorageFailure(t *testing.T) {
	store := newFakeStorage()
	store.err = errors.New("bucket unavailable")
	svc, users, user := newProfileFixture(store)
	data := pngBytes(t, 10, 10)

	_, err := svc.UploadPhoto(context.Background(), user.ID, "me.png", bytes.NewReader(data), int64(len(data)))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidInput))

	stored, err := users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.PhotoURL)
}

func TestUploadPhotoWithoutStorage(t *testing.T) {
	svc, _, user := newProfileFixture(nil)
	data := pngBytes(t, 10, 10)

	_, err := svc.UploadPhoto(context.Background(), user.ID, "me.png", bytes.NewReader(data), int64(len(data)))
	assert.Error(t, err)
}

func TestVerificationDetails(t *testing.T) {
	svc, _, user := newProfileFixture(newFakeStorage())
	ctx := context.Background()

	_, err := svc.UpdateVerification(ctx, user.ID, &VerificationRequest{GovernmentIssuedID: "P1234567", VerificationPhotoURL: "not a url"})
	var inputErr *InputError
	require.True(t, errors.As(err, &inputErr))
	assert.Contains(t, inputErr.Fields, "VerificationPhotoURL")

	details, err := svc.UpdateVerification(ctx, user.ID, &VerificationRequest{
		GovernmentIssuedID:   "  P1234567 ",
		VerificationPhotoURL: "https://cdn.example.com/id.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, "P1234567", details.GovernmentIssuedID)
	assert.Equal(t, "https://cdn.example.com/id.jpg", details.VerificationPhotoURL)
	assert.False(t, details.Verified)

	again, err := svc.GetVerification(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, details, again)
}

func TestProfileUnknownUser(t *testing.T) {
	svc, _, _ := newProfileFixture(newFakeStorage())

	_, err := svc.GetProfile(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.GetVerification(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrUserNotFound)
}
