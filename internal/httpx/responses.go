package httpx

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"opdsapi/internal/errs"
	"opdsapi/internal/logging"
)

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type ErrorResponse struct {
	Success bool              `json:"success"`
	Error   ErrorResponseBody `json:"error"`
	Meta    interface{}       `json:"meta,omitempty"`
}

type ErrorResponseBody struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

type ErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func buildMeta(r *http.Request) interface{} {
	requestID := RequestIDFrom(r)
	if requestID == "" {
		return nil
	}
	return map[string]interface{}{"request_id": requestID}
}

// WriteJSON writes v as the whole response body.
func WriteJSON(w http.ResponseWriter, status int, contentType string, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("encode response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":"INTERNAL_ERROR","message":"An internal error occurred"}}`))
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func JSONSuccess(w http.ResponseWriter, r *http.Request, data interface{}) {
	WriteJSON(w, http.StatusOK, "application/json", SuccessResponse{
		Success: true,
		Data:    data,
		Meta:    buildMeta(r),
	})
}

func JSONError(w http.ResponseWriter, r *http.Request, statusCode int, code string, message string, details []ErrorDetail) {
	WriteJSON(w, statusCode, "application/json", ErrorResponse{
		Success: false,
		Error: ErrorResponseBody{
			Code:    code,
			Message: message,
			Details: details,
		},
		Meta: buildMeta(r),
	})
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(err error) int {
	switch errs.KindOf(err) {
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindInvalidRequest:
		return http.StatusBadRequest
	case errs.KindProvider:
		return http.StatusBadGateway
	case errs.KindProviderUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err in the error envelope. Only the message of a
// classified client or upstream error reaches the body; everything else is
// logged and reported as INTERNAL_ERROR.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)
	code := errs.CodeOf(err)
	message := "An internal error occurred"

	var e *errs.Error
	if status != http.StatusInternalServerError && errors.As(err, &e) && e.Message != "" {
		message = e.Message
	}
	if status == http.StatusInternalServerError {
		code = errs.CodeInternal
	}

	event := logging.Ctx(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		event = logging.Ctx(r.Context()).Error()
	}
	event.Err(err).Int("status", status).Str("code", code).Str("path", r.URL.Path).Msg("request failed")

	JSONError(w, r, status, code, message, nil)
}
