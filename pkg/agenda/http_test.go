package agenda

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prontrack/platform/pkg/record"
)

func newTestServer(t *testing.T) (*record.Service, *httptest.Server) {
	t.Helper()
	records := record.NewService(record.NewMemoryStore(), nil)
	svc := newTestServiceWith(t, records)
	router := mux.NewRouter()
	NewHandler(svc, 1<<20).Register(router)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return records, server
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestExtractEndpoint(t *testing.T) {
	_, server := newTestServer(t)

	resp := postJSON(t, server.URL+"/agenda/extract",
		`{"grid":[["PROFISSIONAL: Dr. Souza","ESPECIALIDADE: Cardiologia"],["07:00","Maria Silva","PRONTUARIO: 1001"]]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result ExtractResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result.Entries))
	}
	if result.Metadata.Doctor != "Dr. Souza" {
		t.Errorf("expected doctor Dr. Souza, got %q", result.Metadata.Doctor)
	}
}

func TestExtractEndpointEmptyGrid(t *testing.T) {
	_, server := newTestServer(t)

	resp := postJSON(t, server.URL+"/agenda/extract", `{"grid":[["Relatório"],["Unidade Central"]]}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	var body struct {
		Error    string `json:"error"`
		RowCount int    `json:"row_count"`
		Guidance string `json:"guidance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.RowCount != 2 {
		t.Errorf("expected row_count 2, got %d", body.RowCount)
	}
	if body.Guidance != Guidance {
		t.Errorf("expected operator guidance in response, got %q", body.Guidance)
	}
}

func TestExtractEndpointMalformedBody(t *testing.T) {
	_, server := newTestServer(t)

	resp := postJSON(t, server.URL+"/agenda/extract", `{"grid":`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestProcessEndpointConflict(t *testing.T) {
	records, server := newTestServer(t)

	seedRecord(t, records, "1002", "Ana Souza", "Internação")

	body := `{"user":"operador","entries":[{"record_number":"1002","patient_name":"Ana Souza","selected":true,"status":"pendente"}]}`

	resp := postJSON(t, server.URL+"/agenda/process", body)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}

	var result BatchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(result.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict in body, got %d", len(result.Conflicts))
	}
	if result.Conflicts[0].CurrentLocation != "Internação" {
		t.Errorf("expected conflict location Internação, got %s", result.Conflicts[0].CurrentLocation)
	}
}

func TestProcessEndpointRequiresUser(t *testing.T) {
	_, server := newTestServer(t)

	resp := postJSON(t, server.URL+"/agenda/process",
		`{"entries":[{"record_number":"1001","patient_name":"Maria Silva","selected":true}]}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing user, got %d", resp.StatusCode)
	}
}

func TestHistoryEndpointLifecycle(t *testing.T) {
	_, server := newTestServer(t)

	resp := postJSON(t, server.URL+"/agenda/process",
		`{"user":"operador","entries":[{"record_number":"3001","patient_name":"Maria Silva","selected":true,"status":"pendente"}]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var result BatchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/agenda/history/"+result.Digest.ID, nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	del, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	del.Body.Close()
	if del.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", del.StatusCode)
	}

	del2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	del2.Body.Close()
	if del2.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", del2.StatusCode)
	}
}
