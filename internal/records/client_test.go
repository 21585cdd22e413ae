package records

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL, "key-test", 5*time.Second, nil)
}

func TestGetByID(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method %s", r.Method)
		}
		if r.URL.Path != "/appBase/Content%20Initiators/rec1" && r.URL.Path != "/appBase/Content Initiators/rec1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key-test" {
			t.Errorf("unexpected auth header %q", got)
		}
		json.NewEncoder(w).Encode(Record{ID: "rec1", Fields: map[string]any{"Goal": "write a post"}})
	}))

	record, err := client.GetByID(context.Background(), "appBase", "Content Initiators", "rec1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.ID != "rec1" {
		t.Fatalf("unexpected record id %q", record.ID)
	}
	if StringField(record.Fields, "Goal") != "write a post" {
		t.Fatalf("unexpected goal field: %+v", record.Fields)
	}
}

func TestGetByIDStoreError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"NOT_FOUND"}`, http.StatusNotFound)
	}))

	_, err := client.GetByID(context.Background(), "appBase", "Roots", "missing")
	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if storeErr.Status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", storeErr.Status)
	}
	if storeErr.Body == "" {
		t.Fatal("expected raw body to be preserved")
	}
}

func TestListByFormulaPaginates(t *testing.T) {
	calls := 0
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if got := r.URL.Query().Get("filterByFormula"); got != "{Slug}='alpha'" {
			t.Errorf("unexpected formula %q", got)
		}
		switch r.URL.Query().Get("offset") {
		case "":
			json.NewEncoder(w).Encode(map[string]any{
				"records": []Record{{ID: "rec1"}},
				"offset":  "page2",
			})
		case "page2":
			json.NewEncoder(w).Encode(map[string]any{
				"records": []Record{{ID: "rec2"}},
			})
		default:
			t.Errorf("unexpected offset %q", r.URL.Query().Get("offset"))
		}
	}))

	listed, err := client.ListByFormula(context.Background(), "appBase", "Personas", "{Slug}='alpha'", ListOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 page fetches, got %d", calls)
	}
	if len(listed) != 2 || listed[0].ID != "rec1" || listed[1].ID != "rec2" {
		t.Fatalf("unexpected records: %+v", listed)
	}
}

func TestUpdateRecords(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		var payload struct {
			Records []RecordUpdate `json:"records"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if len(payload.Records) != 1 || payload.Records[0].ID != "rec1" {
			t.Errorf("unexpected payload: %+v", payload)
		}
		json.NewEncoder(w).Encode(map[string]any{"records": []Record{{ID: "rec1", Fields: payload.Records[0].Fields}}})
	}))

	updated, err := client.UpdateRecords(context.Background(), "appBase", "Content Initiators", []RecordUpdate{
		{ID: "rec1", Fields: map[string]any{"Status": "Generated"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updated) != 1 || StringField(updated[0].Fields, "Status") != "Generated" {
		t.Fatalf("unexpected update result: %+v", updated)
	}
}

func TestStringSliceField(t *testing.T) {
	fields := map[string]any{
		"Personas": []any{"p1", " p2 ", ""},
		"Goal":     "text",
	}
	ids := StringSliceField(fields, "Personas")
	if len(ids) != 2 || ids[0] != "p1" || ids[1] != "p2" {
		t.Fatalf("unexpected ids: %+v", ids)
	}
	if StringSliceField(fields, "Absent") != nil {
		t.Fatal("expected nil for absent relation field")
	}
	if StringSliceField(fields, "Goal") != nil {
		t.Fatal("expected nil for non-array field")
	}
}
