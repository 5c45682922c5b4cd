// internal/services/payment_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"github.com/stripe/stripe-go/v74/refund"
	"gorm.io/gorm"

	"github.com/rodoaet/aet-backend/internal/config"
	"github.com/rodoaet/aet-backend/internal/models"
	"github.com/rodoaet/aet-backend/internal/store"
	"github.com/rodoaet/aet-backend/internal/utils"
)

// PaymentService charges the platform service fee per license request. Payment
// never gates the licensing workflow: staff process requests regardless of
// transaction state, and billing is reconciled separately.
type PaymentService struct {
	db           *gorm.DB
	licenseStore store.LicenseStore
	config       *config.Config
}

type CreatePaymentIntentRequest struct {
	LicenseRequestID uuid.UUID `json:"license_request_id" validate:"required"`
}

type PaymentIntentResponse struct {
	ClientSecret  string    `json:"client_secret"`
	PaymentID     string    `json:"payment_id"`
	Status        string    `json:"status"`
	TransactionID uuid.UUID `json:"transaction_id"`
	Amount        float64   `json:"amount"`
}

type ConfirmPaymentRequest struct {
	PaymentIntentID string    `json:"payment_intent_id" validate:"required"`
	TransactionID   uuid.UUID `json:"transaction_id" validate:"required"`
}

type RefundRequest struct {
	TransactionID uuid.UUID `json:"transaction_id" validate:"required"`
	Reason        string    `json:"reason" validate:"required"`
}

func NewPaymentService(db *gorm.DB, licenseStore store.LicenseStore, config *config.Config) *PaymentService {
	stripe.Key = config.Payment.StripeSecretKey

	return &PaymentService{
		db:           db,
		licenseStore: licenseStore,
		config:       config,
	}
}

// ServiceFee is the base fee times the number of covered states: each state
// is an independent filing.
func (s *PaymentService) ServiceFee(request *models.LicenseRequest) float64 {
	return s.config.Payment.BaseServiceFee * float64(len(request.States))
}

func (s *PaymentService) CreatePaymentIntent(userID uuid.UUID, req *CreatePaymentIntentRequest) (*PaymentIntentResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	request, err := s.licenseStore.Load(req.LicenseRequestID)
	if err != nil {
		return nil, err
	}
	if request.UserID != userID {
		return nil, errors.New("unauthorized to pay for this license request")
	}

	var existing models.Transaction
	err = s.db.Where("license_request_id = ? AND status IN (?, ?)",
		request.ID, models.TransactionStatusPending, models.TransactionStatusCompleted).
		First(&existing).Error
	if err == nil {
		if existing.Status == models.TransactionStatusCompleted {
			return nil, errors.New("service fee already paid for this license request")
		}
		return nil, errors.New("a payment for this license request is already pending")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	amount := s.ServiceFee(request)

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(amount * 100)),
		Currency: stripe.String("brl"),
	}
	params.AddMetadata("user_id", userID.String())
	params.AddMetadata("license_request_id", request.ID.String())
	params.AddMetadata("request_number", request.RequestNumber)

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	transaction := &models.Transaction{
		TransactionType:  models.TransactionTypeServiceFee,
		UserID:           userID,
		LicenseRequestID: request.ID,
		Amount:           amount,
		Currency:         "brl",
		PaymentReference: pi.ID,
		Status:           models.TransactionStatusPending,
	}
	if err := s.db.Create(transaction).Error; err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	return &PaymentIntentResponse{
		ClientSecret:  pi.ClientSecret,
		PaymentID:     pi.ID,
		Status:        string(pi.Status),
		TransactionID: transaction.ID,
		Amount:        amount,
	}, nil
}

func (s *PaymentService) ConfirmPayment(userID uuid.UUID, req *ConfirmPaymentRequest) (*models.Transaction, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	pi, err := paymentintent.Get(req.PaymentIntentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}

	var transaction models.Transaction
	if err := s.db.First(&transaction, "id = ?", req.TransactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("transaction not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if transaction.UserID != userID {
		return nil, errors.New("unauthorized to confirm this transaction")
	}
	if transaction.PaymentReference != pi.ID {
		return nil, errors.New("payment intent does not match transaction")
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		now := time.Now()
		transaction.Status = models.TransactionStatusCompleted
		transaction.ProcessedAt = &now
	case stripe.PaymentIntentStatusRequiresAction, stripe.PaymentIntentStatusRequiresConfirmation,
		stripe.PaymentIntentStatusRequiresPaymentMethod, stripe.PaymentIntentStatusProcessing:
		transaction.Status = models.TransactionStatusPending
	default:
		transaction.Status = models.TransactionStatusFailed
	}

	if err := s.db.Save(&transaction).Error; err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}
	return &transaction, nil
}

// ProcessRefund refunds a completed service fee, staff only.
func (s *PaymentService) ProcessRefund(req *RefundRequest) (*models.Transaction, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var transaction models.Transaction
	if err := s.db.First(&transaction, "id = ?", req.TransactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("transaction not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if transaction.Status != models.TransactionStatusCompleted {
		return nil, errors.New("can only refund completed transactions")
	}

	if transaction.PaymentReference != "" {
		params := &stripe.RefundParams{
			PaymentIntent: stripe.String(transaction.PaymentReference),
			Amount:        stripe.Int64(int64(transaction.Amount * 100)),
			Reason:        stripe.String("requested_by_customer"),
		}
		if _, err := refund.New(params); err != nil {
			return nil, fmt.Errorf("failed to process refund: %w", err)
		}
	}

	now := time.Now()
	transaction.Status = models.TransactionStatusRefunded
	transaction.RefundedAt = &now
	transaction.RefundReason = req.Reason

	if err := s.db.Save(&transaction).Error; err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}
	return &transaction, nil
}

func (s *PaymentService) GetPaymentHistory(userID uuid.UUID, params utils.PaginationParams) ([]models.Transaction, int64, error) {
	query := s.db.Model(&models.Transaction{}).
		Where("user_id = ?", userID).
		Preload("LicenseRequest")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	var transactions []models.Transaction
	query = utils.ApplySort(query, params, []string{"created_at", "amount", "status"})
	query = utils.ApplyPagination(query, params)
	if err := query.Find(&transactions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	return transactions, total, nil
}
