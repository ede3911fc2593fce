// Command cascade-demo exposes a single cascade definition over HTTP: a
// POST to /execute runs the cascade against the request body and returns
// the result or the structured escalation error.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/cascade-run/cascade/cascade"
	"github.com/cascade-run/cascade/core"
	"github.com/cascade-run/cascade/telemetry"
	"github.com/cascade-run/cascade/tierhandlers/agentic"
	"github.com/cascade-run/cascade/tierhandlers/generative"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := core.NewStructuredLogger("cascade-demo", "text", os.Getenv("CASCADE_DEBUG") != "", os.Stdout)

	provider, err := telemetry.NewOTelProvider(ctx, telemetry.ProviderOptions{
		ServiceName:       "cascade-demo",
		CollectorEndpoint: os.Getenv("OTEL_COLLECTOR_ENDPOINT"),
		Logger:            logger,
	})
	if err != nil {
		log.Fatalf("cascade-demo: telemetry init: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("cascade-demo: telemetry shutdown", map[string]interface{}{"error": err.Error()})
		}
	}()

	var opts *cascade.Options
	if path := os.Getenv("CASCADE_OPTIONS_FILE"); path != "" {
		opts, err = cascade.LoadOptions(path)
		if err != nil {
			log.Fatalf("cascade-demo: loading cascade options: %v", err)
		}
	}

	genHandler, err := generative.NewHandler(generative.Config{Client: &echoAIClient{}})
	if err != nil {
		log.Fatalf("cascade-demo: building generative handler: %v", err)
	}

	agentHandler, err := agentic.NewHandler(agentic.Config{
		MaxSteps: 3,
		Step:     agenticStep,
		Logger:   logger,
	})
	if err != nil {
		log.Fatalf("cascade-demo: building agentic handler: %v", err)
	}

	c, err := cascade.New("demo", map[cascade.Tier]cascade.Handler{
		cascade.TierCode:       cascade.HandlerFunc(codeTier),
		cascade.TierGenerative: genHandler,
		cascade.TierAgentic:    agentHandler,
	}, opts, cascade.WithLogger(logger), cascade.WithTelemetry(provider))
	if err != nil {
		log.Fatalf("cascade-demo: building cascade: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/execute", executeHandler(c, logger))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := otelhttp.NewHandler(mux, "cascade-demo")

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("cascade-demo: server shutdown", map[string]interface{}{"error": err.Error()})
		}
	}()

	logger.Info("cascade-demo: listening", map[string]interface{}{"addr": srv.Addr})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("cascade-demo: server error: %v", err)
	}
}

// codeTier is a trivial example handler: it expects {"n": <number>} and
// returns its square, failing for negative input to give the demo cascade
// something to escalate past.
func codeTier(ctx context.Context, input interface{}, tierCtx *cascade.TierContext) (interface{}, error) {
	m, ok := input.(map[string]interface{})
	if !ok {
		return nil, errors.New("code tier: expected a JSON object input")
	}
	n, ok := m["n"].(float64)
	if !ok || n < 0 {
		return nil, cascade.WithPartialResult(cascade.TierCode, errors.New("code tier: n must be a non-negative number"), m)
	}
	return map[string]interface{}{"result": n * n, "tier": "code"}, nil
}

// echoAIClient is a stand-in core.AIClient for the demo binary: it never
// calls out to a real model, it just reports what it would have asked,
// which is enough to show the generative tier being exercised end to end.
type echoAIClient struct{}

func (echoAIClient) GenerateResponse(ctx context.Context, prompt string, options *core.AIOptions) (*core.AIResponse, error) {
	return &core.AIResponse{
		Content: fmt.Sprintf("(demo model) resolved: %s", prompt),
		Model:   "demo-echo",
	}, nil
}

// agenticStep is a trivial three-step loop for the demo: it just counts
// up, so the cascade has a real (if pointless) agentic tier to escalate
// into once code and generative both run out.
func agenticStep(ctx context.Context, input interface{}, state interface{}, stepNum int) (agentic.StepResult, error) {
	count := 0
	if prev, ok := state.(map[string]interface{}); ok {
		count, _ = prev["steps"].(int)
	}
	count++
	return agentic.StepResult{
		Output: map[string]interface{}{"steps": count, "input": input},
		Done:   count >= 3,
	}, nil
}

func executeHandler(c *cascade.Cascade, logger core.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}

		var input interface{}
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}

		result, err := c.Execute(r.Context(), input, nil)
		if err != nil {
			logger.ErrorWithContext(r.Context(), "cascade-demo: execute failed", map[string]interface{}{"error": err.Error()})
			writeError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var tte *cascade.TierTimeoutError
	var exhausted *cascade.CascadeExhaustedError
	var skipped *cascade.AllTiersSkippedError
	var aborted *cascade.AbortedError

	switch {
	case errors.As(err, &tte):
		status = http.StatusGatewayTimeout
	case errors.As(err, &exhausted):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &skipped):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &aborted):
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
