package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecoveryRouter(buf *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CorrelationID())
	router.Use(Recovery(slog.New(slog.NewJSONHandler(buf, nil))))
	router.Use(UserID())
	return router
}

func TestRecovery_PanicBecomes500(t *testing.T) {
	var logs bytes.Buffer
	router := newRecoveryRouter(&logs)
	router.POST("/transfers", func(c *gin.Context) {
		panic(errors.New("ledger exploded"))
	})

	req, _ := http.NewRequest(http.MethodPost, "/transfers", nil)
	req.Header.Set(CorrelationIDHeader, "corr-42")
	req.Header.Set(UserIDHeader, "alice")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		CorrelationID string `json:"correlation_id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_SERVER_ERROR", body.Error.Code)
	assert.NotContains(t, body.Error.Message, "ledger exploded")
	assert.Equal(t, "corr-42", body.CorrelationID)

	out := logs.String()
	assert.Contains(t, out, `"level":"ERROR"`)
	assert.Contains(t, out, `"error":"ledger exploded"`)
	assert.Contains(t, out, `"user_id":"alice"`)
	assert.Contains(t, out, `"correlation_id":"corr-42"`)
	assert.Contains(t, out, `"stack":`)
}

func TestRecovery_PanicAfterWrite(t *testing.T) {
	var logs bytes.Buffer
	router := newRecoveryRouter(&logs)
	router.GET("/history", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		panic("late failure")
	})

	req, _ := http.NewRequest(http.MethodGet, "/history", nil)
	req.Header.Set(UserIDHeader, "bob")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "partial", rr.Body.String())
	assert.Contains(t, logs.String(), `"error":"late failure"`)
}

func TestRecovery_NoPanic(t *testing.T) {
	var logs bytes.Buffer
	router := newRecoveryRouter(&logs)
	router.GET("/wallets/personal", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	req, _ := http.NewRequest(http.MethodGet, "/wallets/personal", nil)
	req.Header.Set(UserIDHeader, "carol")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, logs.String())
}
