// Package inspect provides the read-only HTTP API that exposes the hooks,
// options and registration outcomes of the current plugin pass. serve
// mounts it together with the Prometheus /metrics endpoint.
package inspect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ferro-labs/pressplug/internal/ledger"
	"github.com/ferro-labs/pressplug/plugin"
)

// Source exposes the current registration pass. *pressplug.Site satisfies it.
type Source interface {
	Registry() *plugin.Registry
	Report() *plugin.Report
	PassID() string
}

// LedgerReader lists recorded registration outcomes.
type LedgerReader interface {
	List(ctx context.Context, q ledger.Query) (ledger.ListResult, error)
}

// Handlers holds dependencies for inspect HTTP handlers.
type Handlers struct {
	Source Source
	Ledger LedgerReader
	// Token guards every route except /health when non-empty.
	Token string
}

// Routes returns a chi.Router with all inspect endpoints mounted.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/health", h.healthCheck)

	r.Group(func(r chi.Router) {
		r.Use(TokenMiddleware(h.Token))
		r.Get("/hooks", h.listHooks)
		r.Get("/hooks/{name}", h.getHook)
		r.Get("/options", h.listOptions)
		r.Get("/options/{name}", h.getOption)
		r.Get("/report", h.getReport)
		r.Get("/ledger", h.listLedger)
		r.Handle("/metrics", promhttp.Handler())
	})
	return r
}

type hookView struct {
	Name         plugin.HookName `json:"name"`
	Contributors []string        `json:"contributors"`
}

type entryView struct {
	Contributor string      `json:"contributor"`
	Value       interface{} `json:"value"`
}

type optionView struct {
	Name         plugin.OptionName `json:"name"`
	Kinds        []plugin.Kind     `json:"kinds"`
	Contributors []string          `json:"contributors"`
	Value        interface{}       `json:"value"`
	Entries      []entryView       `json:"entries,omitempty"`
}

func (h *Handlers) registry(w http.ResponseWriter) (*plugin.Registry, bool) {
	if h.Source == nil || h.Source.Registry() == nil {
		writeError(w, http.StatusServiceUnavailable, "no registration pass has completed", "no_registry")
		return nil, false
	}
	return h.Source.Registry(), true
}

func (h *Handlers) healthCheck(w http.ResponseWriter, _ *http.Request) {
	if h.Source == nil || h.Source.Registry() == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "starting"})
		return
	}
	resp := map[string]interface{}{
		"status":  "ok",
		"pass_id": h.Source.PassID(),
	}
	if report := h.Source.Report(); report != nil {
		resp["applied"] = report.Count(plugin.StatusApplied)
		resp["disabled"] = report.Count(plugin.StatusDisabled)
		resp["diagnostics"] = len(report.Diagnostics())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) listHooks(w http.ResponseWriter, _ *http.Request) {
	reg, ok := h.registry(w)
	if !ok {
		return
	}
	data := make([]hookView, 0, len(plugin.HookNames))
	for _, name := range plugin.HookNames {
		data = append(data, viewHook(reg.Hook(name)))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": data})
}

func (h *Handlers) getHook(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.registry(w)
	if !ok {
		return
	}
	name := plugin.HookName(chi.URLParam(r, "name"))
	if !name.IsValid() {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown hook %q", name), "unknown_hook")
		return
	}
	writeJSON(w, http.StatusOK, viewHook(reg.Hook(name)))
}

func (h *Handlers) listOptions(w http.ResponseWriter, _ *http.Request) {
	reg, ok := h.registry(w)
	if !ok {
		return
	}
	data := make([]optionView, 0, len(plugin.OptionNames))
	for _, name := range plugin.OptionNames {
		data = append(data, viewOption(reg.Option(name), false))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": data})
}

func (h *Handlers) getOption(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.registry(w)
	if !ok {
		return
	}
	name := plugin.OptionName(chi.URLParam(r, "name"))
	if !name.IsValid() {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown option %q", name), "unknown_option")
		return
	}
	writeJSON(w, http.StatusOK, viewOption(reg.Option(name), true))
}

func (h *Handlers) getReport(w http.ResponseWriter, _ *http.Request) {
	if _, ok := h.registry(w); !ok {
		return
	}
	report := h.Source.Report()
	if report == nil {
		report = &plugin.Report{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pass_id":  h.Source.PassID(),
		"outcomes": report.Outcomes,
	})
}

func (h *Handlers) listLedger(w http.ResponseWriter, r *http.Request) {
	if h.Ledger == nil {
		writeError(w, http.StatusNotImplemented, "registration ledger is not enabled", "not_implemented")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit: must be a positive integer", "invalid_request")
			return
		}
		if parsed > 200 {
			parsed = 200
		}
		limit = parsed
	}

	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset: must be a non-negative integer", "invalid_request")
			return
		}
		offset = parsed
	}

	result, err := h.Ledger.List(r.Context(), ledger.Query{
		PassID: r.URL.Query().Get("pass_id"),
		Plugin: r.URL.Query().Get("plugin"),
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list ledger entries", "internal_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": result.Data,
		"summary": map[string]interface{}{
			"total":  result.Total,
			"limit":  limit,
			"offset": offset,
		},
	})
}

func viewHook(hook *plugin.Hook) hookView {
	return hookView{Name: hook.Name(), Contributors: nonNil(hook.Contributors())}
}

func viewOption(opt plugin.Option, withEntries bool) optionView {
	v := optionView{
		Name:  opt.Name(),
		Kinds: opt.Kinds(),
		Value: jsonSafe(opt.Value()),
	}
	contributors := []string{}
	for _, e := range opt.Entries() {
		contributors = append(contributors, e.Contributor)
		if withEntries {
			v.Entries = append(v.Entries, entryView{Contributor: e.Contributor, Value: jsonSafe(e.Value)})
		}
	}
	v.Contributors = contributors
	return v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// maxSafeDepth bounds jsonSafe recursion so self-referencing values terminate.
const maxSafeDepth = 32

// jsonSafe converts v into something encoding/json accepts: functions are
// rendered as "[Function]", structs become maps of their exported fields and
// other unencodable values are rendered by their Go syntax.
func jsonSafe(v interface{}) interface{} {
	return safeValue(v, 0)
}

func safeValue(v interface{}, depth int) interface{} {
	if v == nil {
		return nil
	}
	if depth >= maxSafeDepth {
		return fmt.Sprintf("%T", v)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func:
		if rv.IsNil() {
			return nil
		}
		return "[Function]"
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []interface{}{}
		}
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return string(rv.Bytes())
		}
		out := make([]interface{}, rv.Len())
		for i := range out {
			out[i] = safeValue(rv.Index(i).Interface(), depth+1)
		}
		return out
	case reflect.Map:
		out := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = safeValue(iter.Value().Interface(), depth+1)
		}
		return out
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return safeValue(rv.Elem().Interface(), depth+1)
	case reflect.Struct:
		return safeStruct(rv, depth)
	case reflect.Chan, reflect.Complex64, reflect.Complex128, reflect.UnsafePointer:
		return fmt.Sprintf("%#v", v)
	default:
		return v
	}
}

func safeStruct(rv reflect.Value, depth int) interface{} {
	if m, ok := rv.Interface().(json.Marshaler); ok {
		if data, err := m.MarshalJSON(); err == nil {
			return json.RawMessage(data)
		}
	}
	rt := rv.Type()
	out := make(map[string]interface{}, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, _, _ := strings.Cut(f.Tag.Get("json"), ","); tag == "-" {
			continue
		} else if tag != "" {
			name = tag
		}
		out[name] = safeValue(rv.Field(i).Interface(), depth+1)
	}
	return out
}
