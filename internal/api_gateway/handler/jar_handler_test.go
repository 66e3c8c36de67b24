package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/jar"
	"github.com/grymey-ledger/internal/domain/shared"
	"github.com/grymey-ledger/internal/domain/transaction"
	settlement "github.com/grymey-ledger/internal/settlement/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestJar() *jar.MoneyJar {
	now := time.Now()
	return &jar.MoneyJar{
		ID:           uuid.New(),
		UserID:       testUserID,
		Name:         "holiday",
		TargetAmount: 100000,
		Currency:     "NGN",
		PenaltyRate:  decimal.RequireFromString("0.05"),
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      1,
	}
}

func TestJarHandler_Create(t *testing.T) {
	logger := newTestLogger()

	t.Run("WithPenaltyRate", func(t *testing.T) {
		mockService := new(MockJarService)
		h := NewJarHandler(logger, mockService)
		router := setupTestRouter()
		router.POST("/jars", h.Create)

		mockService.On("Create", mock.Anything, mock.MatchedBy(func(in settlement.CreateJarInput) bool {
			return in.UserID == testUserID && in.Name == "holiday" &&
				in.PenaltyRate != nil && in.PenaltyRate.Equal(decimal.RequireFromString("0.1"))
		})).Return(newTestJar(), nil)

		rate := "0.1"
		rr := performRequest(router, http.MethodPost, "/jars", CreateJarRequest{Name: "holiday", TargetAmount: 100000, PenaltyRate: &rate})

		assert.Equal(t, http.StatusCreated, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("DefaultPenaltyRate", func(t *testing.T) {
		mockService := new(MockJarService)
		h := NewJarHandler(logger, mockService)
		router := setupTestRouter()
		router.POST("/jars", h.Create)

		mockService.On("Create", mock.Anything, mock.MatchedBy(func(in settlement.CreateJarInput) bool {
			return in.PenaltyRate == nil
		})).Return(newTestJar(), nil)

		rr := performRequest(router, http.MethodPost, "/jars", CreateJarRequest{Name: "holiday"})

		assert.Equal(t, http.StatusCreated, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("MalformedPenaltyRate", func(t *testing.T) {
		mockService := new(MockJarService)
		h := NewJarHandler(logger, mockService)
		router := setupTestRouter()
		router.POST("/jars", h.Create)

		rr := performRequest(router, http.MethodPost, "/jars", `{"name":"holiday","penalty_rate":"lots"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "Create")
	})
}

func TestJarHandler_Withdraw(t *testing.T) {
	logger := newTestLogger()
	j := newTestJar()
	path := "/jars/" + j.ID.String() + "/withdraw"

	t.Run("LockedJarChargesPenalty", func(t *testing.T) {
		mockService := new(MockJarService)
		h := NewJarHandler(logger, mockService)
		router := setupTestRouter()
		router.POST("/jars/:id/withdraw", h.Withdraw)

		result := &settlement.JarWithdrawal{
			Jar:      j,
			Penalty:  500,
			Credited: 9500,
			Transactions: []*transaction.Transaction{
				newTestTransaction(transaction.TypePenalty, 500),
				newTestTransaction(transaction.TypeJarWithdrawal, 9500),
			},
		}
		mockService.On("Withdraw", mock.Anything, j.ID, testUserID, int64(10000)).Return(result, nil)

		rr := performRequest(router, http.MethodPost, path, AmountRequest{Amount: 10000})

		assert.Equal(t, http.StatusOK, rr.Code)
		var body JarWithdrawalResponse
		decodeData(t, rr, &body)
		assert.Equal(t, int64(500), body.Penalty)
		assert.Equal(t, int64(9500), body.Credited)
		assert.Len(t, body.Transactions, 2)
		assert.Equal(t, "penalty", body.Transactions[0].Type)
	})

	t.Run("MoreThanSaved", func(t *testing.T) {
		mockService := new(MockJarService)
		h := NewJarHandler(logger, mockService)
		router := setupTestRouter()
		router.POST("/jars/:id/withdraw", h.Withdraw)

		mockService.On("Withdraw", mock.Anything, j.ID, testUserID, int64(10000)).
			Return(nil, fmt.Errorf("%w: jar holds 0", shared.ErrInsufficientFunds))

		rr := performRequest(router, http.MethodPost, path, AmountRequest{Amount: 10000})

		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestJarHandler_Lifecycle(t *testing.T) {
	logger := newTestLogger()
	j := newTestJar()
	base := "/jars/" + j.ID.String()

	mockService := new(MockJarService)
	h := NewJarHandler(logger, mockService)
	router := setupTestRouter()
	router.GET("/jars", h.List)
	router.GET("/jars/:id", h.Get)
	router.POST("/jars/:id/fund", h.Fund)
	router.POST("/jars/:id/lock", h.Lock)
	router.POST("/jars/:id/unlock", h.Unlock)

	mockService.On("ListForUser", mock.Anything, testUserID).Return([]*jar.MoneyJar{j}, nil)
	mockService.On("Get", mock.Anything, j.ID, testUserID).Return(j, nil)
	mockService.On("Fund", mock.Anything, j.ID, testUserID, int64(2000)).Return(j, nil)
	mockService.On("Lock", mock.Anything, j.ID, testUserID).Return(j, nil)
	mockService.On("Unlock", mock.Anything, j.ID, testUserID).
		Return(nil, shared.StateError{Resource: "jar", ID: j.ID.String(), Status: "unlocked", Operation: "unlock"})

	assert.Equal(t, http.StatusOK, performRequest(router, http.MethodGet, "/jars", nil).Code)
	assert.Equal(t, http.StatusOK, performRequest(router, http.MethodGet, base, nil).Code)
	assert.Equal(t, http.StatusOK, performRequest(router, http.MethodPost, base+"/fund", AmountRequest{Amount: 2000}).Code)
	assert.Equal(t, http.StatusOK, performRequest(router, http.MethodPost, base+"/lock", nil).Code)
	assert.Equal(t, http.StatusConflict, performRequest(router, http.MethodPost, base+"/unlock", nil).Code)

	mockService.AssertExpectations(t)
}
