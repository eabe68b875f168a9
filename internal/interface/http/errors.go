package handlers

import (
	"errors"
	"net/http"

	"github.com/oksasatya/resident-registration/internal/domain"
	"github.com/oksasatya/resident-registration/pkg/response"
)

var statusByKind = map[domain.Kind]int{
	domain.KindValidation:     http.StatusBadRequest,
	domain.KindDuplicateEmail: http.StatusConflict,
	domain.KindSessionExpired: http.StatusGone,
	domain.KindInvalidCode:    http.StatusUnauthorized,
	domain.KindExpiredCode:    http.StatusGone,
	domain.KindDelivery:       http.StatusAccepted,
	domain.KindStorage:        http.StatusServiceUnavailable,
}

// StatusFor maps an error to its HTTP status and client-facing message.
// Unclassified errors become 500 with a generic message.
func StatusFor(err error) (int, string) {
	var de *domain.Error
	if !errors.As(err, &de) {
		return http.StatusInternalServerError, "internal server error"
	}
	status, ok := statusByKind[de.Kind]
	if !ok {
		return http.StatusInternalServerError, "internal server error"
	}
	if de.Kind == domain.KindValidation && de.Field != "" {
		return status, de.Field + " " + de.Message
	}
	return status, de.Message
}

func errorBody(err error) response.ErrorBody {
	var de *domain.Error
	if !errors.As(err, &de) {
		return response.ErrorBody{Kind: "internal_error"}
	}
	body := response.ErrorBody{Kind: string(de.Kind), Field: de.Field}
	if de.Kind == domain.KindValidation && de.Field != "" {
		body.Details = map[string]string{de.Field: de.Message}
	}
	return body
}

func validationBody(field string, details map[string]string) response.ErrorBody {
	return response.ErrorBody{Kind: string(domain.KindValidation), Field: field, Details: details}
}
