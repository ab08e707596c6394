package backlab

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestListStrategies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/strategies" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string][]string{"strategies": {"alpha", "beta"}})
	}))
	defer srv.Close()

	names, err := NewClient(srv.URL).ListStrategies(context.Background())
	if err != nil {
		t.Fatalf("ListStrategies: %v", err)
	}
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("ListStrategies = %v, want [alpha beta]", names)
	}
}

func TestRunBacktest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/backtest" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var params BacktestParams
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if params.Strategy != "trend" || params.Symbol != "AAPL" {
			t.Errorf("params = %+v", params)
		}
		json.NewEncoder(w).Encode(map[string]any{"strategy": params.Strategy, "symbol": params.Symbol})
	}))
	defer srv.Close()

	raw, err := NewClient(srv.URL).RunBacktest(context.Background(), BacktestParams{
		Strategy: "trend",
		Symbol:   "AAPL",
	})
	if err != nil {
		t.Fatalf("RunBacktest: %v", err)
	}
	var resp struct {
		Strategy string `json:"strategy"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if resp.Strategy != "trend" {
		t.Errorf("strategy = %q, want trend", resp.Strategy)
	}
}

func TestSaveAndDeleteStrategy(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	ctx := context.Background()

	if err := c.SaveStrategy(ctx, "my strategy", map[string]string{"signal_type": "breakout"}); err != nil {
		t.Fatalf("SaveStrategy: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/api/strategies/my%20strategy" {
		t.Errorf("SaveStrategy sent %s %s", gotMethod, gotPath)
	}

	if err := c.DeleteStrategy(ctx, "my strategy"); err != nil {
		t.Fatalf("DeleteStrategy: %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Errorf("DeleteStrategy sent method %s", gotMethod)
	}
}

func TestGetBarsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/bars/AAPL" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("period") != "30d" || r.URL.Query().Get("interval") != "1h" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(map[string]any{"symbol": "AAPL", "bars": []any{}})
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).GetBars(context.Background(), "AAPL", "30d", "1h"); err != nil {
		t.Fatalf("GetBars: %v", err)
	}
}

func TestErrorResponseCarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "strategy \"ghost\" not found"})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).GetStrategy(context.Background(), "ghost")
	if err == nil {
		t.Fatal("GetStrategy did not fail on a 404")
	}
	if !strings.Contains(err.Error(), "ghost") {
		t.Errorf("error %q does not carry the server message", err)
	}
}
