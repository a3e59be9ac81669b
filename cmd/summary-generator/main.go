package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/Lllllllleong/heatsheetflow/internal/models"
	"github.com/Lllllllleong/heatsheetflow/internal/services"
)

var (
	instance *services.SummaryGeneratorFunction
	once     sync.Once
	initErr  error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleGenerateSummary", handleGenerateSummary)
}

// main is required by the Go Functions Framework.
func main() {}

func handleGenerateSummary(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		instance, initErr = services.NewSummaryGenerator(context.Background())
	})
	if initErr != nil {
		slog.Error("CRITICAL: initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var req models.SummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Could not decode request body", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	res, err := instance.Process(r.Context(), &req)
	if err != nil {
		code := services.StatusCode(err)
		if code == http.StatusInternalServerError {
			http.Error(w, "Internal Server Error: processing failed", code)
			return
		}
		http.Error(w, err.Error(), code)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
