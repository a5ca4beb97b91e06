package solver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Solve_Success(t *testing.T) {
	// Given a solver that returns an optimal solution
	var gotPath string
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "OPTIMAL",
			"objective_value": 150,
			"wall_time": 0.01,
			"variables": [],
			"bool_variables": [],
			"intervals": [{"id": "task_a", "start": 540, "end": 600, "presence": true}]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	problem := &Problem{
		Variables: []Variable{{ID: "start", Min: 0, Max: 1440}},
	}

	// When solving
	resp, err := client.Solve(context.Background(), problem)

	// Then the solution is decoded and the request hit /solve
	require.NoError(t, err)
	assert.Equal(t, "/solve", gotPath)
	assert.Contains(t, gotBody, "variables")
	assert.Equal(t, StatusOptimal, resp.Status)
	require.Len(t, resp.Intervals, 1)
	assert.Equal(t, 540, resp.Intervals[0].Start)
}

func TestClient_Solve_InvalidModelError(t *testing.T) {
	// Given a solver that rejects the model with a structured 400
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail": {"error": "invalid_model", "details": "unknown variable: task_b_start"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	// When solving
	_, err := client.Solve(context.Background(), &Problem{})

	// Then the wrapped error body is surfaced as a RequestError
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusBadRequest, reqErr.StatusCode)
	assert.Equal(t, "invalid_model", reqErr.ErrorCode)
	assert.Contains(t, reqErr.Details, "task_b_start")
}

func TestClient_Solve_UnwrappedErrorBody(t *testing.T) {
	// Given an error body without the FastAPI detail wrapper
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "solver_crash", "details": "worker died"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	// When solving
	_, err := client.Solve(context.Background(), &Problem{})

	// Then the flat body is parsed as well
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "solver_crash", reqErr.ErrorCode)
	assert.Equal(t, "worker died", reqErr.Details)
}

func TestClient_Solve_UnparseableErrorBody(t *testing.T) {
	// Given a non-JSON error response
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream choked"))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	// When solving
	_, err := client.Solve(context.Background(), &Problem{})

	// Then the status code alone is reported
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusBadGateway, reqErr.StatusCode)
	assert.Empty(t, reqErr.ErrorCode)
}

func TestClient_Solve_Timeout(t *testing.T) {
	// Given a solver slower than the client's timeout
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"status": "OPTIMAL"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 20*time.Millisecond)

	// When solving
	_, err := client.Solve(context.Background(), &Problem{})

	// Then the caller sees a typed timeout error
	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 20*time.Millisecond, timeoutErr.Timeout)
}

func TestClient_Solve_UnreachableSolver(t *testing.T) {
	// Given a base URL nothing listens on
	client := NewClient("http://127.0.0.1:1", 1*time.Second)

	// When solving
	_, err := client.Solve(context.Background(), &Problem{})

	// Then a connection error is returned, not a timeout
	require.Error(t, err)
	var timeoutErr *TimeoutError
	assert.False(t, errors.As(err, &timeoutErr))
}

func TestClient_Health(t *testing.T) {
	// Given a healthy solver
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.Write([]byte(`{"status": "healthy", "ortools_version": "9.10", "timeout_seconds": 30, "num_workers": 8}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", 5*time.Second)

	// When probing health
	info, err := client.Health(context.Background())

	// Then the probe reports the solver's configuration
	require.NoError(t, err)
	assert.Equal(t, "healthy", info.Status)
	assert.Equal(t, "9.10", info.OrtoolsVersion)
	assert.Equal(t, 8, info.NumWorkers)
}
