package web

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"mime"
	"net/http"

	"github.com/dailypixel/storydesk/internal/errors"
)

const maxBodyBytes = 64 << 10

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderError writes a JSON error body with the error's HTTP status.
// Internal error messages are replaced with a generic one.
func renderError(w http.ResponseWriter, err error) {
	sErr := errors.As(err)

	message := sErr.Message
	if sErr.Code == errors.ErrInternal {
		message = "an internal error occurred"
	}

	renderJSON(w, sErr.Status, map[string]any{
		"error": map[string]any{
			"code":    string(sErr.Code),
			"message": message,
			"status":  sErr.Status,
		},
	})
}

// decodeFields fills fields from a JSON object body. Form-encoded bodies
// are accepted too, so plain HTML forms can post to the same endpoints.
// An empty body leaves fields untouched.
func decodeFields(w http.ResponseWriter, r *http.Request, fields map[string]string) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data" {
		if err := r.ParseForm(); err != nil {
			return errors.NewInvalidRequest("invalid form body")
		}
		for k := range fields {
			fields[k] = r.PostForm.Get(k)
		}
		return nil
	}

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil
		}
		return errors.NewInvalidRequest("invalid JSON body")
	}
	for k := range fields {
		v, ok := body[k]
		if !ok {
			continue
		}
		s, isString := v.(string)
		if !isString {
			return errors.NewInvalidRequest(k + " must be a string")
		}
		fields[k] = s
	}
	return nil
}
