package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/VenCasMet/finboard/internal/dashboard"
	"github.com/VenCasMet/finboard/internal/provider"
	"github.com/VenCasMet/finboard/internal/widget"
)

type api struct {
	dash    *dashboard.Dashboard
	quotes  dashboard.QuoteResolver
	series  dashboard.SeriesResolver
	timeout time.Duration
}

type widgetsResponse struct {
	Widgets []widget.Descriptor `json:"widgets"`
}

type addBody struct {
	Title  string `json:"title"`
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
}

type reorderBody struct {
	OldIndex *int `json:"old_index"`
	NewIndex *int `json:"new_index"`
}

type intervalBody struct {
	Interval string `json:"interval"`
}

type styleBody struct {
	Style string `json:"style"`
}

type seriesResponse struct {
	Symbol   string            `json:"symbol"`
	Interval provider.Interval `json:"interval"`
	Series   provider.Series   `json:"series"`
}

func (a *api) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /api/widgets", a.handleListWidgets)
	mux.HandleFunc("POST /api/widgets", a.handleAddWidget)
	mux.HandleFunc("POST /api/widgets/reorder", a.handleReorder)
	mux.HandleFunc("GET /api/widgets/{id}", a.handleGetWidget)
	mux.HandleFunc("DELETE /api/widgets/{id}", a.handleRemoveWidget)
	mux.HandleFunc("POST /api/widgets/{id}/interval", a.handleSetInterval)
	mux.HandleFunc("POST /api/widgets/{id}/style", a.handleSetStyle)
	mux.HandleFunc("GET /api/quotes/{symbol}", a.handleQuote)
	mux.HandleFunc("GET /api/series/{symbol}", a.handleSeries)
	return mux
}

func (a *api) handleListWidgets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, widgetsResponse{Widgets: a.dash.Widgets()})
}

func (a *api) handleAddWidget(w http.ResponseWriter, r *http.Request) {
	var b addBody
	if !decodeBody(w, r, &b) {
		return
	}
	kind, err := widget.ParseKind(b.Type)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	d, err := widget.New(b.Title, kind, b.Symbol)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	vm, err := a.dash.Add(r.Context(), d)
	if err != nil {
		// the widget is live; only its persistence failed
		log.Printf("[WARN] %v", err)
	}
	writeJSON(w, http.StatusCreated, vm.Snapshot())
}

func (a *api) handleReorder(w http.ResponseWriter, r *http.Request) {
	var b reorderBody
	if !decodeBody(w, r, &b) {
		return
	}
	if b.OldIndex == nil || b.NewIndex == nil {
		http.Error(w, "old_index and new_index are required", http.StatusBadRequest)
		return
	}
	if err := a.dash.Reorder(*b.OldIndex, *b.NewIndex); err != nil {
		log.Printf("[WARN] %v", err)
	}
	writeJSON(w, http.StatusOK, widgetsResponse{Widgets: a.dash.Widgets()})
}

func (a *api) handleGetWidget(w http.ResponseWriter, r *http.Request) {
	vm, ok := a.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, vm.Snapshot())
}

func (a *api) handleRemoveWidget(w http.ResponseWriter, r *http.Request) {
	if err := a.dash.Remove(r.PathValue("id")); err != nil {
		log.Printf("[WARN] %v", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleSetInterval(w http.ResponseWriter, r *http.Request) {
	vm, ok := a.lookup(w, r)
	if !ok {
		return
	}
	var b intervalBody
	if !decodeBody(w, r, &b) {
		return
	}
	iv, err := provider.ParseInterval(b.Interval)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := vm.SetInterval(r.Context(), iv); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, vm.Snapshot())
}

func (a *api) handleSetStyle(w http.ResponseWriter, r *http.Request) {
	vm, ok := a.lookup(w, r)
	if !ok {
		return
	}
	var b styleBody
	if !decodeBody(w, r, &b) {
		return
	}
	style, err := dashboard.ParseChartStyle(b.Style)
	if err == nil {
		err = vm.SetChartStyle(style)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, vm.Snapshot())
}

func (a *api) handleQuote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), a.timeout)
	defer cancel()

	q, err := a.quotes.Resolve(ctx, r.PathValue("symbol"))
	if err != nil {
		var all *provider.AllProvidersFailedError
		if errors.As(err, &all) {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (a *api) handleSeries(w http.ResponseWriter, r *http.Request) {
	iv := provider.Day
	if s := r.URL.Query().Get("interval"); strings.TrimSpace(s) != "" {
		var err error
		if iv, err = provider.ParseInterval(s); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	ctx, cancel := context.WithTimeout(r.Context(), a.timeout)
	defer cancel()

	sym := provider.NormalizeSymbol(r.PathValue("symbol"))
	s := a.series.Resolve(ctx, sym, iv)
	if s == nil {
		s = provider.Series{}
	}
	writeJSON(w, http.StatusOK, seriesResponse{Symbol: sym, Interval: iv, Series: s})
}

func (a *api) lookup(w http.ResponseWriter, r *http.Request) (*dashboard.Widget, bool) {
	vm, err := a.dash.Widget(r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, false
	}
	return vm, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
