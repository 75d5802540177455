package openapi

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
)

// Operation is a single HTTP operation to surface in the document.
type Operation struct {
	Method      string         `json:"method"`
	Path        string         `json:"path"`
	OperationID string         `json:"operationId,omitempty"`
	Summary     string         `json:"summary,omitempty"`
	Description string         `json:"description,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Parameters  []any          `json:"parameters,omitempty"`
	Responses   map[string]any `json:"responses"`
}

// Registry collects the operations a service exposes.
type Registry struct {
	Ops     []Operation
	Schemas map[string]any
}

func NewRegistry() *Registry { return &Registry{Ops: []Operation{}, Schemas: map[string]any{}} }

func (r *Registry) Register(op Operation) {
	op.Method = strings.ToLower(op.Method)
	r.Ops = append(r.Ops, op)
}

// Schema adds a named component schema and returns a $ref to it.
func (r *Registry) Schema(name string, schema any) map[string]any {
	r.Schemas[name] = schema
	return Ref(name)
}

func Ref(name string) map[string]any { return map[string]any{"$ref": "#/components/schemas/" + name} }

// Build produces an OpenAPI 3.1 document for the registered operations.
func (r *Registry) Build(serviceName, version string) map[string]any {
	paths := map[string]any{}
	for _, op := range r.Ops {
		if _, ok := paths[op.Path]; !ok {
			paths[op.Path] = map[string]any{}
		}
		m := map[string]any{"responses": op.Responses}
		if op.OperationID != "" {
			m["operationId"] = op.OperationID
		}
		if op.Summary != "" {
			m["summary"] = op.Summary
		}
		if op.Description != "" {
			m["description"] = op.Description
		}
		if len(op.Tags) > 0 {
			m["tags"] = op.Tags
		}
		if len(op.Parameters) > 0 {
			m["parameters"] = op.Parameters
		}
		paths[op.Path].(map[string]any)[op.Method] = m
	}
	return map[string]any{
		"openapi":    "3.1.0",
		"info":       map[string]any{"title": serviceName, "version": version},
		"paths":      paths,
		"components": map[string]any{"schemas": r.Schemas},
	}
}

// Paths lists the documented paths, sorted.
func (r *Registry) Paths() []string {
	seen := map[string]bool{}
	var out []string
	for _, op := range r.Ops {
		if !seen[op.Path] {
			seen[op.Path] = true
			out = append(out, op.Path)
		}
	}
	sort.Strings(out)
	return out
}

// ServeHandler returns an HTTP handler that serves the built OpenAPI JSON.
func (r *Registry) ServeHandler(serviceName, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(r.Build(serviceName, version))
	}
}
