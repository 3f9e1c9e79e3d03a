package address

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kevmwangi/shoplink-backend/pkg/db/models"
	pkgerrors "github.com/kevmwangi/shoplink-backend/pkg/errors"
)

// CreateParams holds the fields of a new delivery address.
type CreateParams struct {
	Recipient  string
	Line1      string
	Line2      *string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      *string
}

// Service manages customer delivery addresses.
type Service struct {
	db *gorm.DB
}

// NewService wires an address service.
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("address service requires a database")
	}
	return &Service{db: db}, nil
}

// Create stores a new address for the user.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, params CreateParams) (*models.Address, error) {
	for field, value := range map[string]string{
		"recipient":   params.Recipient,
		"line1":       params.Line1,
		"city":        params.City,
		"state":       params.State,
		"postal_code": params.PostalCode,
		"country":     params.Country,
	} {
		if strings.TrimSpace(value) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, field+" is required")
		}
	}

	record := models.Address{
		ID:         uuid.New(),
		UserID:     userID,
		Recipient:  params.Recipient,
		Line1:      params.Line1,
		Line2:      params.Line2,
		City:       params.City,
		State:      params.State,
		PostalCode: params.PostalCode,
		Country:    params.Country,
		Phone:      params.Phone,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create address")
	}
	return &record, nil
}

// List returns the user's addresses, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var rows []models.Address
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list addresses")
	}
	return rows, nil
}

// Delete removes one of the user's addresses. Orders keep their address id;
// deletion only stops future use.
func (s *Service) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		Delete(&models.Address{})
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "failed to delete address")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return nil
}

// IsOwnedAddress reports whether the address exists and belongs to the user.
// Settlement calls this before attaching an address to an order.
func (s *Service) IsOwnedAddress(ctx context.Context, userID, addressID uuid.UUID) (bool, error) {
	var record models.Address
	err := s.db.WithContext(ctx).
		Select("id").
		Where("id = ? AND user_id = ?", addressID, userID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to check address ownership")
	}
	return true, nil
}
