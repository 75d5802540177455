package directory

import (
	"storefront/pkg/openapi"
)

// APIDoc describes the directory endpoints mounted at path.
func APIDoc(path string) *openapi.Registry {
	reg := openapi.NewRegistry()
	vendor := reg.Schema("VendorConfig", map[string]any{
		"type":     "object",
		"required": []string{"path", "domains", "isActive"},
		"properties": map[string]any{
			"path":      map[string]any{"type": "string"},
			"domains":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"isActive":  map[string]any{"type": "boolean"},
			"storeName": map[string]any{"type": "string"},
		},
	})
	problem := reg.Schema("Problem", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type":   map[string]any{"type": "string"},
			"title":  map[string]any{"type": "string"},
			"status": map[string]any{"type": "integer"},
			"detail": map[string]any{"type": "string"},
		},
	})
	problemResp := func(desc string) map[string]any {
		return map[string]any{"description": desc, "content": map[string]any{"application/problem+json": map[string]any{"schema": problem}}}
	}

	reg.Register(openapi.Operation{
		Method:      "GET",
		Path:        path,
		OperationID: "listVendors",
		Summary:     "Active vendors keyed by path, in directory order",
		Tags:        []string{"vendors"},
		Responses: map[string]any{
			"200": map[string]any{
				"description": "Vendor directory",
				"content": map[string]any{"application/json": map[string]any{"schema": map[string]any{
					"type":                 "object",
					"additionalProperties": vendor,
				}}},
			},
			"503": problemResp("Vendor store unavailable"),
		},
	})
	reg.Register(openapi.Operation{
		Method:      "GET",
		Path:        path + "/{vendor}",
		OperationID: "getVendor",
		Summary:     "One vendor, active or not",
		Tags:        []string{"vendors"},
		Parameters: []any{map[string]any{
			"name": "vendor", "in": "path", "required": true, "schema": map[string]any{"type": "string"},
		}},
		Responses: map[string]any{
			"200": map[string]any{"description": "Vendor", "content": map[string]any{"application/json": map[string]any{"schema": vendor}}},
			"404": problemResp("Unknown vendor"),
			"503": problemResp("Vendor store unavailable"),
		},
	})
	return reg
}
