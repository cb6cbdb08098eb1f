// Package httputil provides shared HTTP response and middleware helpers.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
)

type dataEnvelope struct {
	Data any `json:"data"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes a raw JSON body without the {"data": ...} envelope.
func JSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// Text writes a plain text body.
func Text(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(text)); err != nil {
		slog.Error("write response", "error", err)
	}
}

// Success writes body wrapped in the {"data": ...} envelope.
func Success(w http.ResponseWriter, status int, body any) {
	JSON(w, status, dataEnvelope{Data: body})
}

// Error writes message wrapped in the {"error": {"message": ...}} envelope.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, errorEnvelope{Error: errorBody{Message: message}})
}

// ValidationError writes a 400 with per-field details when err is a
// validator.ValidationErrors, or err.Error() as the details otherwise.
func ValidationError(w http.ResponseWriter, err error) {
	var details any
	if fieldErrs, ok := err.(validator.ValidationErrors); ok {
		fields := make([]map[string]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields = append(fields, map[string]string{
				"field":   fe.Field(),
				"message": fe.Tag(),
			})
		}
		details = fields
	} else {
		details = err.Error()
	}

	JSON(w, http.StatusBadRequest, errorEnvelope{Error: errorBody{
		Message: "validation error",
		Details: details,
	}})
}
