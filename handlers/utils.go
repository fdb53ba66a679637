package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"pickem-go/logging"
	"pickem-go/models"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

var validate = newValidator()

// newValidator reports fields by their JSON names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Errorf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// On failure the 400 response has already been written.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "validation failed",
			Fields: parseValidationError(err),
		})
		return false
	}
	return true
}

// parseValidationError maps each failing field to a readable message
func parseValidationError(err error) map[string]string {
	fields := make(map[string]string)
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		fields["error"] = err.Error()
		return fields
	}
	for _, fe := range ve {
		key := fe.Namespace()
		if i := strings.Index(key, "."); i >= 0 {
			key = key[i+1:]
		}
		switch fe.Tag() {
		case "required":
			fields[key] = fmt.Sprintf("The %s field is required.", fe.Field())
		case "min":
			fields[key] = fmt.Sprintf("The %s field must be at least %s.", fe.Field(), fe.Param())
		case "max":
			fields[key] = fmt.Sprintf("The %s field must not exceed %s.", fe.Field(), fe.Param())
		case "gt":
			fields[key] = fmt.Sprintf("The %s field must be greater than %s.", fe.Field(), fe.Param())
		case "url":
			fields[key] = fmt.Sprintf("The %s field must be a valid URL.", fe.Field())
		default:
			fields[key] = fmt.Sprintf("Field validation for '%s' failed on the '%s' tag.", fe.Field(), fe.Tag())
		}
	}
	return fields
}

// dayFromRequest reads the optional {day} path variable; without one it is
// today. ok is false when the value is not a real calendar day.
func dayFromRequest(r *http.Request, today time.Time, loc *time.Location) (time.Time, bool) {
	value, present := mux.Vars(r)["day"]
	if !present || value == "" {
		return today, true
	}
	day, err := models.ParseDay(value, loc)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}
