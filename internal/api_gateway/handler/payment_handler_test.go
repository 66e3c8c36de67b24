package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/card"
	"github.com/grymey-ledger/internal/domain/shared"
	"github.com/grymey-ledger/internal/domain/transaction"
	"github.com/grymey-ledger/internal/domain/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestTransaction(typ transaction.Type, amount int64) *transaction.Transaction {
	now := time.Now()
	return &transaction.Transaction{
		ID:          uuid.New(),
		Reference:   "TXN-" + uuid.NewString()[:8],
		Amount:      amount,
		Currency:    "NGN",
		Type:        typ,
		Status:      transaction.StatusCompleted,
		CreatedAt:   now,
		UpdatedAt:   now,
		CompletedAt: &now,
	}
}

func TestPaymentHandler_Deposit(t *testing.T) {
	logger := newTestLogger()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockPaymentService)
		h := NewPaymentHandler(logger, mockService)
		router := setupTestRouter()
		router.POST("/deposits", h.Deposit)

		txn := newTestTransaction(transaction.TypeDeposit, 10000)
		mockService.On("Deposit", mock.Anything, testUserID, int64(10000), wallet.ModeGhost).Return(txn, nil)

		rr := performRequest(router, http.MethodPost, "/deposits", DepositRequest{Amount: 10000, Mode: "ghost"})

		assert.Equal(t, http.StatusCreated, rr.Code)
		var body TransactionResponse
		decodeData(t, rr, &body)
		assert.Equal(t, txn.Reference, body.Reference)
		mockService.AssertExpectations(t)
	})

	t.Run("RejectsNonPositiveAmount", func(t *testing.T) {
		mockService := new(MockPaymentService)
		h := NewPaymentHandler(logger, mockService)
		router := setupTestRouter()
		router.POST("/deposits", h.Deposit)

		rr := performRequest(router, http.MethodPost, "/deposits", `{"amount": -5}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "Deposit")
	})

	t.Run("RejectsUnknownMode", func(t *testing.T) {
		mockService := new(MockPaymentService)
		h := NewPaymentHandler(logger, mockService)
		router := setupTestRouter()
		router.POST("/deposits", h.Deposit)

		rr := performRequest(router, http.MethodPost, "/deposits", `{"amount": 5, "mode": "shadow"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestPaymentHandler_Transfer(t *testing.T) {
	logger := newTestLogger()

	tests := []struct {
		name           string
		serviceErr     error
		expectedStatus int
		expectedCode   string
	}{
		{"Success", nil, http.StatusCreated, ""},
		{"InsufficientFunds", fmt.Errorf("%w: balance 100", shared.ErrInsufficientFunds), http.StatusConflict, "INSUFFICIENT_FUNDS"},
		{"ReceiverMissing", wallet.ErrWalletNotFound{OwnerID: "bob"}, http.StatusNotFound, "NOT_FOUND"},
		{"LockBusy", fmt.Errorf("%w: wallet:bob", shared.ErrLockUnavailable), http.StatusServiceUnavailable, "LOCK_UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockPaymentService)
			h := NewPaymentHandler(logger, mockService)
			router := setupTestRouter()
			router.POST("/transfers", h.Transfer)

			if tt.serviceErr == nil {
				mockService.On("Transfer", mock.Anything, testUserID, "bob", int64(2500), wallet.ModeReal, "lunch").
					Return(newTestTransaction(transaction.TypeTransfer, 2500), nil)
			} else {
				mockService.On("Transfer", mock.Anything, testUserID, "bob", int64(2500), wallet.ModeReal, "lunch").
					Return(nil, tt.serviceErr)
			}

			rr := performRequest(router, http.MethodPost, "/transfers", TransferRequest{ReceiverID: "bob", Amount: 2500, Note: "lunch"})

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, rr).Code)
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestPaymentHandler_PayBill(t *testing.T) {
	mockService := new(MockPaymentService)
	h := NewPaymentHandler(newTestLogger(), mockService)
	router := setupTestRouter()
	router.POST("/bills", h.PayBill)

	mockService.On("PayBill", mock.Anything, testUserID, "DSTV", "1234567890", int64(7500)).
		Return(newTestTransaction(transaction.TypeBillPayment, 7500), nil)

	rr := performRequest(router, http.MethodPost, "/bills", PayBillRequest{BillerCode: "DSTV", CustomerRef: "1234567890", Amount: 7500})

	assert.Equal(t, http.StatusCreated, rr.Code)
	var body TransactionResponse
	decodeData(t, rr, &body)
	assert.Equal(t, "bill_payment", body.Type)
	mockService.AssertExpectations(t)
}

func TestPaymentHandler_Cards(t *testing.T) {
	logger := newTestLogger()
	cardID := uuid.New()
	now := time.Now()

	t.Run("Issue", func(t *testing.T) {
		mockService := new(MockPaymentService)
		h := NewPaymentHandler(logger, mockService)
		router := setupTestRouter()
		router.POST("/cards", h.IssueCard)

		mockService.On("IssueCard", mock.Anything, testUserID).
			Return(&card.VirtualCard{ID: cardID, UserID: testUserID, Status: card.StatusActive, CreatedAt: now}, nil)

		rr := performRequest(router, http.MethodPost, "/cards", nil)

		assert.Equal(t, http.StatusCreated, rr.Code)
		var body card.VirtualCard
		decodeData(t, rr, &body)
		assert.Equal(t, cardID, body.ID)
	})

	t.Run("List", func(t *testing.T) {
		mockService := new(MockPaymentService)
		h := NewPaymentHandler(logger, mockService)
		router := setupTestRouter()
		router.GET("/cards", h.ListCards)

		mockService.On("ListCards", mock.Anything, testUserID).
			Return([]*card.VirtualCard{{ID: cardID, UserID: testUserID, Status: card.StatusActive, CreatedAt: now}}, nil)

		rr := performRequest(router, http.MethodGet, "/cards", nil)

		assert.Equal(t, http.StatusOK, rr.Code)
		var body []card.VirtualCard
		decodeData(t, rr, &body)
		require.Len(t, body, 1)
		assert.Equal(t, cardID, body[0].ID)
		mockService.AssertExpectations(t)
	})

	t.Run("FundFrozenCard", func(t *testing.T) {
		mockService := new(MockPaymentService)
		h := NewPaymentHandler(logger, mockService)
		router := setupTestRouter()
		router.POST("/cards/:id/fund", h.FundCard)

		mockService.On("FundCard", mock.Anything, cardID, testUserID, int64(300)).
			Return(nil, shared.StateError{Resource: "card", ID: cardID.String(), Status: "frozen", Operation: "fund"})

		rr := performRequest(router, http.MethodPost, "/cards/"+cardID.String()+"/fund", AmountRequest{Amount: 300})

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, "INVALID_STATE", decodeError(t, rr).Code)
	})

	t.Run("FreezeSomeoneElsesCard", func(t *testing.T) {
		mockService := new(MockPaymentService)
		h := NewPaymentHandler(logger, mockService)
		router := setupTestRouter()
		router.POST("/cards/:id/freeze", h.FreezeCard)

		mockService.On("FreezeCard", mock.Anything, cardID, testUserID).
			Return(nil, fmt.Errorf("%w: alice does not own card", shared.ErrUnauthorized))

		rr := performRequest(router, http.MethodPost, "/cards/"+cardID.String()+"/freeze", nil)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("MalformedCardID", func(t *testing.T) {
		mockService := new(MockPaymentService)
		h := NewPaymentHandler(logger, mockService)
		router := setupTestRouter()
		router.GET("/cards/:id", h.GetCard)

		rr := performRequest(router, http.MethodGet, "/cards/not-a-uuid", nil)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "GetCard")
	})
}
