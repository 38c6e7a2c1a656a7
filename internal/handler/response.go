package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/forgo/shiftboard/api/internal/model"
)

// DataResponse wraps a successful response with optional HATEOAS links
type DataResponse struct {
	Data  interface{}       `json:"data"`
	Links map[string]string `json:"_links,omitempty"`
}

// CollectionResponse wraps a collection response with pagination
type CollectionResponse struct {
	Data       interface{}       `json:"data"`
	Pagination *PaginationInfo   `json:"pagination,omitempty"`
	Links      map[string]string `json:"_links,omitempty"`
}

// PaginationInfo contains page-based pagination info
type PaginationInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	Total    int  `json:"total"`
	HasMore  bool `json:"has_more"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteData writes a successful data response
func WriteData(w http.ResponseWriter, status int, data interface{}, links map[string]string) {
	response := DataResponse{
		Data:  data,
		Links: links,
	}
	WriteJSON(w, status, response)
}

// WriteCollection writes a collection response with pagination
func WriteCollection(w http.ResponseWriter, status int, data interface{}, pagination *PaginationInfo, links map[string]string) {
	response := CollectionResponse{
		Data:       data,
		Pagination: pagination,
		Links:      links,
	}
	WriteJSON(w, status, response)
}

// WriteError writes an error response using RFC 9457 Problem Details
func WriteError(w http.ResponseWriter, err *model.ProblemDetails) {
	err.WriteJSON(w)
}

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 1 << 20

// DecodeJSON decodes a JSON request body into the given struct
func DecodeJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// validatable is implemented by request bodies that check their own fields
type validatable interface {
	Validate() []model.FieldError
}

// decodeValid decodes and validates a request body, writing the problem
// response itself when either step fails. An empty body is accepted when
// allowEmpty is set, leaving v at its zero value.
func decodeValid(w http.ResponseWriter, r *http.Request, v validatable, allowEmpty bool) bool {
	if err := DecodeJSON(r, v); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			WriteError(w, model.NewBadRequestError("invalid request body"))
			return false
		}
	}
	if errs := v.Validate(); len(errs) > 0 {
		WriteError(w, model.NewValidationError(errs))
		return false
	}
	return true
}

// WriteNoContent writes a 204 No Content response
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
