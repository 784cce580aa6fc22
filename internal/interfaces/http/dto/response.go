package dto

import "github.com/invoicer/backend/internal/domain/shared"

// Response is the JSON envelope of every API answer. Successful calls carry
// Data, failed ones Error and optionally Details.
type Response struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

// Meta is the pagination block of list responses
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewMeta fills in TotalPages. Page and page size fall back to the first
// page of default size.
func NewMeta(total int64, page, pageSize int) *Meta {
	page = max(page, 1)
	if pageSize < 1 {
		pageSize = shared.DefaultPageSize
	}
	size := int64(pageSize)
	return &Meta{
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int((total + size - 1) / size),
	}
}

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func NewSuccessResponse(message string, data any) Response {
	return Response{Message: message, Data: data}
}

func NewSuccessResponseWithMeta(message string, data any, total int64, page, pageSize int) Response {
	resp := NewSuccessResponse(message, data)
	resp.Meta = NewMeta(total, page, pageSize)
	return resp
}

func NewErrorResponse(code, message string) Response {
	return Response{Message: message, Error: code}
}

// NewErrorResponseWithDetails attaches domain error details, such as the
// open amount of a rejected payment.
func NewErrorResponseWithDetails(code, message string, details any) Response {
	resp := NewErrorResponse(code, message)
	resp.Details = details
	return resp
}

// NewValidationErrorResponse lists the rejected fields of a request
func NewValidationErrorResponse(message string, details []ValidationDetail) Response {
	return NewErrorResponseWithDetails(ErrCodeValidation, message, details)
}
