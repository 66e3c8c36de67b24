package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grymey-ledger/internal/api_gateway/middleware"
)

// Response is the envelope of every gateway reply. Exactly one of Data and
// Error is set; CorrelationID echoes the request's X-Correlation-ID.
type Response struct {
	Data          any        `json:"data,omitempty"`
	Error         *ErrorInfo `json:"error,omitempty"`
	CorrelationID string     `json:"correlation_id,omitempty"`
	Meta          *MetaInfo  `json:"meta,omitempty"`
}

// ErrorInfo carries a stable machine code next to a readable message
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MetaInfo describes one page of a list endpoint
type MetaInfo struct {
	Page       int `json:"page,omitempty"`
	PerPage    int `json:"per_page,omitempty"`
	TotalPages int `json:"total_pages,omitempty"`
	TotalItems int `json:"total_items,omitempty"`
}

// NewPaginatedResponse wraps one page of data. A non-positive perPage yields a
// single page.
func NewPaginatedResponse(data any, page, perPage, totalItems int) *Response {
	totalPages := 1
	if perPage > 0 {
		totalPages = (totalItems + perPage - 1) / perPage
	}

	return &Response{
		Data: data,
		Meta: &MetaInfo{
			Page:       page,
			PerPage:    perPage,
			TotalPages: totalPages,
			TotalItems: totalItems,
		},
	}
}

func respond(c *gin.Context, statusCode int, response *Response) {
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, response)
}

func RespondWithData(c *gin.Context, statusCode int, data any) {
	respond(c, statusCode, &Response{Data: data})
}

func RespondWithError(c *gin.Context, statusCode int, code, message string) {
	respond(c, statusCode, &Response{Error: &ErrorInfo{Code: code, Message: message}})
}

func RespondWithPaginatedData(c *gin.Context, statusCode int, data any, page, perPage, totalItems int) {
	respond(c, statusCode, NewPaginatedResponse(data, page, perPage, totalItems))
}

func RespondOK(c *gin.Context, data any) {
	RespondWithData(c, http.StatusOK, data)
}

func RespondCreated(c *gin.Context, data any) {
	RespondWithData(c, http.StatusCreated, data)
}

// RespondAccepted is used when money has not moved yet, such as a circle
// withdrawal still waiting for approvals
func RespondAccepted(c *gin.Context, data any) {
	RespondWithData(c, http.StatusAccepted, data)
}

func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

func RespondInternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An internal server error occurred")
}
