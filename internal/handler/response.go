package handler

import (
	"errors"
	"net/http"

	"github.com/bookline/service-booking/internal/domain/apperr"
	"github.com/gin-gonic/gin"
)

// envelope is the uniform JSON response shape.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// paginatedEnvelope wraps a page of items with pagination metadata.
type paginatedEnvelope struct {
	Success bool  `json:"success"`
	Data    any   `json:"data"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
}

// Success writes a 200 response.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

// Created writes a 201 response.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, envelope{Success: true, Data: data})
}

// Paginated writes a 200 response with pagination metadata.
func Paginated(c *gin.Context, items any, total int64, page, limit int) {
	c.JSON(http.StatusOK, paginatedEnvelope{Success: true, Data: items, Total: total, Page: page, Limit: limit})
}

// BadRequest writes a 400 response with the given message.
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, envelope{Error: msg, Code: string(apperr.CodeValidation)})
}

// Error maps an application error to its HTTP status.
func Error(c *gin.Context, err error) {
	var ae *apperr.AppError
	if !errors.As(err, &ae) {
		c.JSON(http.StatusInternalServerError, envelope{Error: "internal server error"})
		return
	}

	status := http.StatusInternalServerError
	switch ae.Code {
	case apperr.CodeValidation, apperr.CodeInvalidSnapshot:
		status = http.StatusBadRequest
	case apperr.CodeInvalidTransition, apperr.CodeConflict:
		status = http.StatusConflict
	case apperr.CodeForbidden:
		status = http.StatusForbidden
	case apperr.CodeNotFound:
		status = http.StatusNotFound
	case apperr.CodeDependency:
		status = http.StatusBadGateway
	}

	c.JSON(status, envelope{Error: ae.Message, Code: string(ae.Code)})
}
