package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/optionlab/pricer/internal/pricing"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected metrics handler to return 200, got %d", rr.Code)
	}
	return rr.Body.String()
}

func TestCollectorRecordsHTTPMetrics(t *testing.T) {
	collector, err := NewCollector()
	if err != nil {
		t.Fatalf("NewCollector returned error: %v", err)
	}

	handlerInvoked := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerInvoked = true
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	})

	instrumented := collector.InstrumentHandler(handler)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()

	instrumented.ServeHTTP(rr, req)

	if !handlerInvoked {
		t.Fatal("expected handler to be invoked")
	}

	if rr.Code != http.StatusAccepted {
		t.Fatalf("unexpected status code: %d", rr.Code)
	}

	body := scrape(t, collector)
	if !strings.Contains(body, `pricer_http_requests_total{method="GET",path="/test",status="202"} 1`) {
		t.Fatalf("requests_total metric not recorded, body=%q", body)
	}

	if !strings.Contains(body, `pricer_http_request_duration_seconds_count{method="GET",path="/test",status="202"} 1`) {
		t.Fatalf("request_duration_seconds_count metric not recorded, body=%q", body)
	}
}

func TestCollectorLabelsByPattern(t *testing.T) {
	collector, err := NewCollector()
	if err != nil {
		t.Fatalf("NewCollector returned error: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/quotes/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := collector.InstrumentHandler(mux)

	for _, id := range []string{"a", "b", "c"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/quotes/"+id, nil))
	}

	body := scrape(t, collector)
	if !strings.Contains(body, `pricer_http_requests_total{method="GET",path="GET /api/v1/quotes/{id}",status="200"} 3`) {
		t.Fatalf("expected pattern label, body=%q", body)
	}
}

func TestInstrumentedEngine(t *testing.T) {
	collector, err := NewCollector()
	if err != nil {
		t.Fatalf("NewCollector returned error: %v", err)
	}

	p := pricing.Params{Type: pricing.Call, Strike: 100, Expiry: 1, Spot: 100, Rate: 0.05, Volatility: 0.2}

	analytic := collector.InstrumentEngine(pricing.NewAnalyticEngine())
	if _, err := analytic.Price(p); err != nil {
		t.Fatalf("Price: %v", err)
	}
	if _, err := analytic.Delta(p); err != nil {
		t.Fatalf("Delta: %v", err)
	}
	bad := p
	bad.Spot = -1
	if _, err := analytic.Price(bad); err == nil {
		t.Fatal("expected error for negative spot")
	}
	if _, err := analytic.Simulate(p); !errors.Is(err, pricing.ErrNoStatistics) {
		t.Fatalf("Simulate on analytic: expected ErrNoStatistics, got %v", err)
	}

	mc, err := pricing.NewMonteCarloEngine(pricing.MonteCarloConfig{Paths: 500, Steps: 1, Workers: 2})
	if err != nil {
		t.Fatalf("NewMonteCarloEngine: %v", err)
	}
	wrapped := collector.InstrumentEngine(mc)
	price, err := wrapped.Price(p)
	if err != nil {
		t.Fatalf("monte carlo Price: %v", err)
	}
	direct, _ := mc.Price(p)
	if price != direct {
		t.Errorf("instrumented price %f != direct %f", price, direct)
	}

	body := scrape(t, collector)
	expected := []string{
		`pricer_engine_evaluations_total{engine="analytic",operation="price",status="ok"} 1`,
		`pricer_engine_evaluations_total{engine="analytic",operation="price",status="error"} 1`,
		`pricer_engine_evaluations_total{engine="analytic",operation="delta",status="ok"} 1`,
		`pricer_engine_evaluations_total{engine="montecarlo",operation="price",status="ok"} 1`,
		`pricer_montecarlo_paths_total 500`,
	}
	for _, line := range expected {
		if !strings.Contains(body, line) {
			t.Errorf("missing %s", line)
		}
	}
}

func TestInstrumentedEngineRecordsBoundary(t *testing.T) {
	collector, err := NewCollector()
	if err != nil {
		t.Fatalf("NewCollector returned error: %v", err)
	}
	lattice, err := pricing.NewLatticeEngine(pricing.LatticeConfig{Steps: 50})
	if err != nil {
		t.Fatalf("NewLatticeEngine: %v", err)
	}

	am := pricing.Params{Type: pricing.Put, Style: pricing.American, Strike: 100, Expiry: 1, Spot: 100, Rate: 0.05, Volatility: 0.2}
	v, err := pricing.Value(collector.InstrumentEngine(lattice), am, pricing.ValueOptions{Boundary: true})
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if len(v.ExerciseBoundary) == 0 {
		t.Fatal("expected an exercise boundary")
	}

	body := scrape(t, collector)
	if !strings.Contains(body, `pricer_engine_evaluations_total{engine="lattice",operation="evaluate",status="ok"} 1`) {
		t.Errorf("boundary evaluation not recorded, body=%q", body)
	}

	analytic := collector.InstrumentEngine(pricing.NewAnalyticEngine())
	if _, err := analytic.Evaluate(am); err == nil {
		t.Error("expected analytic Evaluate to fail")
	}
}
