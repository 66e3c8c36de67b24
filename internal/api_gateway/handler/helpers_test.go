package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/grymey-ledger/internal/api_gateway/middleware"
	"github.com/stretchr/testify/require"
)

const testUserID = "alice"

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// setupTestRouter installs the identity middleware so handlers see a caller
func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.CorrelationID())
	r.Use(middleware.UserID())
	return r
}

func performRequest(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		jsonBody, _ := json.Marshal(b)
		reader = bytes.NewBuffer(jsonBody)
	}

	req, _ := http.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(middleware.UserIDHeader, testUserID)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

// decodeData unmarshals the data field of a standard response into out
func decodeData(t *testing.T, rr *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data, "'data' field should not be empty")
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorInfo {
	t.Helper()
	var response Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	require.NotNil(t, response.Error)
	return *response.Error
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder, out *Response) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), out))
}
