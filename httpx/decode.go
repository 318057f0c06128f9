package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// ErrInvalidJSON is returned by DecodeJSON for any malformed or non-conforming body.
var ErrInvalidJSON = errors.New("invalid json body")

// DecodeJSON decodes exactly one JSON object into dst. Unknown fields and
// trailing data are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", ErrInvalidJSON)
	}
	return nil
}
