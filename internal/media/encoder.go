package media

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
)

// EncodingError reports that a captured media reference could not be read or
// encoded. It is fatal to the pipeline run that triggered it.
type EncodingError struct {
	Ref string
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("media: encode %s: %v", e.Ref, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// Encode reads the capture at ref and returns it as a base64 data URI
// suitable for JSON transport. Pure function of the referenced bytes; a
// single read failure surfaces immediately, no retries.
func Encode(ref string) (string, error) {
	data, err := os.ReadFile(ref)
	if err != nil {
		return "", &EncodingError{Ref: ref, Err: err}
	}
	if len(data) == 0 {
		return "", &EncodingError{Ref: ref, Err: fmt.Errorf("empty capture")}
	}

	mime := http.DetectContentType(data)
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
