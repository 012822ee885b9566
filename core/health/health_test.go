package health

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func TestHandle(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()

	handle(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("content type = %q", got)
	}
	var body struct {
		Status    string `json:"status"`
		Timestamp string `json:"timestamp"`
		Version   string `json:"version"`
		Component string `json:"component"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Component != "bot" {
		t.Errorf("body = %+v", body)
	}
	if body.Timestamp == "" || body.Version == "" {
		t.Errorf("missing metadata: %+v", body)
	}
}
