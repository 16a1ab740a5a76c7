package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"

	log "github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

var ErrBadBody = errors.New("request body must be a JSON object")

// BadBodyError is a body that decoded but does not fit the request shape.
// It matches ErrBadBody and its message is safe to return to the client.
type BadBodyError struct {
	Message string
}

func (e *BadBodyError) Error() string { return e.Message }

func (e *BadBodyError) Is(target error) bool { return target == ErrBadBody }

type ErrorResponse struct {
	Error string `json:"error"`
}

// JSON writes v with the given status. A nil v writes only the status.
func JSON(w http.ResponseWriter, code int, v interface{}) {
	if v == nil {
		w.WriteHeader(code)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func Error(w http.ResponseWriter, code int, msg string) {
	JSON(w, code, ErrorResponse{Error: msg})
}

// Internal logs err and answers with a generic 500; details stay in the log.
func Internal(w http.ResponseWriter, r *http.Request, err error) {
	logger(r).Errorf("%s %s: %v", r.Method, r.URL.Path, err)
	Error(w, http.StatusInternalServerError, "Internal error")
}

// DecodeJSON reads a single JSON object body into v. An empty body leaves v
// untouched.
func DecodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var terr *json.UnmarshalTypeError
		if errors.As(err, &terr) && terr.Field != "" {
			return &BadBodyError{Message: fmt.Sprintf("%s must be %s", terr.Field, kindName(terr.Type))}
		}
		return ErrBadBody
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return &BadBodyError{Message: "request body must contain a single JSON object"}
	}
	return nil
}

func kindName(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return "a valid value"
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Slice, reflect.Array:
		return "an array"
	case reflect.Map, reflect.Struct:
		return "an object"
	}
	return "a " + t.String()
}
