package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"subtrack/internal/core"
)

func TestRawScalar(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`"12.34"`, "12.34"},
		{`12.34`, "12.34"},
		{`5`, "5"},
		{`null`, ""},
		{``, ""},
		{`true`, "true"},
		{`{"x":1}`, `{"x":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := rawScalar(json.RawMessage(tt.raw)); got != tt.want {
				t.Errorf("rawScalar(%s) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSubscriptionRequestCostForms(t *testing.T) {
	for _, body := range []string{
		`{"name":"Netflix","cost":"12.99","subscription_date":"2026-10-01","renewal_type":"monthly"}`,
		`{"name":"Netflix","cost":12.99,"subscription_date":"2026-10-01","renewal_type":"monthly"}`,
	} {
		var req subscriptionRequest
		if err := json.Unmarshal([]byte(body), &req); err != nil {
			t.Fatal(err)
		}
		sub, err := req.input().Parse()
		if err != nil {
			t.Fatalf("parse %s: %v", body, err)
		}
		if sub.Cost.Cents != 1299 {
			t.Errorf("cost = %d, want 1299", sub.Cost.Cents)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"x"}`, false},
		{"garbage", `{name`, true},
		{"trailing object", `{"name":"x"}{"name":"y"}`, true},
		{"too large", `{"name":"` + strings.Repeat("a", maxJSONBodyBytes) + `"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst subscriptionRequest
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			err := decodeJSON(httptest.NewRecorder(), r, &dst)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), core.ErrMalformedInput.Error()) {
				t.Errorf("error should be malformed input: %v", err)
			}
		})
	}
}
