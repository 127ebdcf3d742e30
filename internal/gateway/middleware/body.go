package middleware

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/chatwire/gateway/internal/gateway/apierror"
	"github.com/chatwire/gateway/internal/gateway/jsoncodec"
)

// oversizedBodyMessage is the one message every oversized-body rejection
// carries, whether raised up front by BodyLimit or by the decode helpers.
const oversizedBodyMessage = "request body exceeds the 50mb limit"

// DecodeJSON reads a JSON body into dst. A body over the cap surfaces as a
// PayloadTooLarge failure, malformed JSON as a BadRequest; route handlers
// never see a partially parsed payload.
func DecodeJSON(r *http.Request, dst any) error {
	if err := jsoncodec.Decode(r.Body, dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apierror.PayloadTooLarge(oversizedBodyMessage)
		}
		return apierror.BadRequest("invalid json payload")
	}
	return nil
}

// ParseForm parses a urlencoded body, applying the same size cap mapping and
// collapsing duplicate body keys to their last value.
func ParseForm(r *http.Request) (url.Values, error) {
	if err := r.ParseForm(); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, apierror.PayloadTooLarge(oversizedBodyMessage)
		}
		return nil, apierror.BadRequest("invalid form payload")
	}
	form := r.PostForm
	for key, values := range form {
		if len(values) > 1 {
			form[key] = values[len(values)-1:]
		}
	}
	return form, nil
}
