package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/JayMung/FactureX-sub003/internal/domain"
	"github.com/JayMung/FactureX-sub003/pkg/errors"
)

type MockAPIKeyRepo struct {
	mock.Mock
}

func (m *MockAPIKeyRepo) Create(ctx context.Context, key *domain.APIKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockAPIKeyRepo) List(ctx context.Context) ([]domain.APIKey, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepo) GetByKeyHash(ctx context.Context, hash string) (*domain.APIKey, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepo) Revoke(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAPIKeyRepo) UpdateLastUsed(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestCreateKey_StoresHashNotRawKey(t *testing.T) {
	repo := new(MockAPIKeyRepo)
	var stored *domain.APIKey
	repo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*domain.APIKey)
	}).Return(nil)

	svc := NewAPIKeyService(repo)
	key, rawKey, err := svc.CreateKey(context.Background(), "dashboard", nil)

	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(rawKey, "fx_live_"))
	assert.Equal(t, rawKey[:12], key.KeyPrefix)
	assert.NotContains(t, stored.KeyHash, rawKey)

	hash := sha256.Sum256([]byte(rawKey))
	assert.Equal(t, hex.EncodeToString(hash[:]), stored.KeyHash)
}

func TestValidateKey_UnknownKey(t *testing.T) {
	repo := new(MockAPIKeyRepo)
	repo.On("GetByKeyHash", mock.Anything, mock.Anything).Return(nil, nil)

	svc := NewAPIKeyService(repo)
	key, err := svc.ValidateKey(context.Background(), "fx_live_deadbeef")

	assert.Nil(t, key)
	assert.ErrorIs(t, err, errors.ErrInvalidAPIKey)
}

func TestValidateKey_RoundTrip(t *testing.T) {
	repo := new(MockAPIKeyRepo)
	var storedHash string
	repo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		storedHash = args.Get(1).(*domain.APIKey).KeyHash
	}).Return(nil)

	svc := NewAPIKeyService(repo)
	created, rawKey, err := svc.CreateKey(context.Background(), "ci", nil)
	assert.NoError(t, err)

	repo.On("GetByKeyHash", mock.Anything, storedHash).Return(&domain.APIKey{
		ID:        created.ID,
		Nom:       "ci",
		KeyHash:   storedHash,
		IsActive:  true,
		CreatedAt: time.Now(),
	}, nil)
	repo.On("UpdateLastUsed", mock.Anything, created.ID).Return(nil)

	resolved, err := svc.ValidateKey(context.Background(), rawKey)
	assert.NoError(t, err)
	assert.Equal(t, created.ID, resolved.ID)
}
