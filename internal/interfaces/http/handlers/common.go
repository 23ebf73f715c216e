// Package handlers implements the HTTP handlers of the chemtemplates API.
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/turtacn/chemtemplates/internal/domain/repository"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemtemplates/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeAppError maps err to its HTTP status. Errors without an AppError in
// the chain and internal errors are masked.
func writeAppError(w http.ResponseWriter, r *http.Request, logger logging.Logger, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)

	var ae *errors.AppError
	if !stderrors.As(err, &ae) || code == errors.ErrCodeInternal {
		logger.WithContext(r.Context()).Error("unhandled request error", logging.Err(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Code:    string(errors.ErrCodeInternal),
			Message: errors.DefaultMessageForCode(errors.ErrCodeInternal),
		})
		return
	}
	if status >= http.StatusInternalServerError {
		logger.WithContext(r.Context()).Error("request failed", logging.Err(err))
	}
	writeJSON(w, status, ErrorResponse{Code: string(ae.Code), Message: ae.Message, Detail: ae.Detail})
}

// decodeJSON reads the request body into the struct dst and validates it.
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := readJSON(r, dst); err != nil {
		return err
	}
	return validateStruct(dst)
}

func readJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if stderrors.Is(err, io.EOF) {
			return errors.NewValidationError("body", "request body is required")
		}
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.NewValidationError("body", fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		}
		return errors.Wrap(err, errors.ErrCodeValidation, "malformed JSON body")
	}
	return nil
}

func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := strings.TrimPrefix(fe.Namespace(), fieldRoot(fe))
		return errors.NewValidationError(field, fmt.Sprintf("%s failed on the '%s' rule", field, fe.Tag()))
	}
	return errors.Wrap(err, errors.ErrCodeValidation, "invalid request")
}

// fieldRoot is the struct-name prefix validator puts in front of a namespace.
func fieldRoot(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[:i+1]
	}
	return ""
}

// parseListOptions reads skip and limit query parameters.
func parseListOptions(r *http.Request) (repository.ListOptions, error) {
	var opts repository.ListOptions
	q := r.URL.Query()
	if v := q.Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, errors.NewValidationError("skip", "skip must be a non-negative integer")
		}
		opts.Skip = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			return opts, errors.NewValidationError("limit", "limit must be between 1 and 1000")
		}
		opts.Limit = n
	}
	return opts, nil
}

// queryBoolDefault returns def when the parameter is absent.
func queryBoolDefault(r *http.Request, key string, def bool) (bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.NewValidationError(key, key+" must be a boolean")
	}
	return b, nil
}

func pathID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// versionParam is the optional version used for optimistic updates; the
// body value wins over the If-Match header.
func versionParam(r *http.Request, body int) (int, error) {
	if body != 0 {
		return body, nil
	}
	v := strings.Trim(r.Header.Get("If-Match"), `"`)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, errors.NewValidationError("If-Match", "If-Match must carry a positive version")
	}
	return n, nil
}

//Personal.AI order the ending
