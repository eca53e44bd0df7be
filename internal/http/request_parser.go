package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"subtrack/internal/core"
)

const maxJSONBodyBytes = 64 << 10

// subscriptionRequest accepts cost as either "12.34" or 12.34.
type subscriptionRequest struct {
	Name             string          `json:"name"`
	Cost             json.RawMessage `json:"cost"`
	SubscriptionDate string          `json:"subscription_date"`
	RenewalType      string          `json:"renewal_type"`
}

func (req subscriptionRequest) input() core.SubscriptionInput {
	return core.SubscriptionInput{
		Name:             req.Name,
		Cost:             rawScalar(req.Cost),
		SubscriptionDate: req.SubscriptionDate,
		RenewalType:      req.RenewalType,
	}
}

// rawScalar returns a JSON string's contents or a number's literal text.
// Anything else becomes a string the money parser will reject.
func rawScalar(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return string(raw)
}

// decodeJSON reads one JSON object from the body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body", core.ErrMalformedInput)
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("%w: body must contain a single JSON object", core.ErrMalformedInput)
	}
	return nil
}

// pathID parses the {id} URL parameter. A non-numeric id cannot exist.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.ErrNotFound
	}
	return id, nil
}
