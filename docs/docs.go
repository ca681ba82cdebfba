// Package docs holds the OpenAPI description served under /swagger/.
// Regenerate with: swag init -g cmd/batchgen-api/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/runs": {
            "get": {
                "description": "Get recorded runs with their status and totals, newest first",
                "produces": ["application/json"],
                "tags": ["runs"],
                "summary": "List runs",
                "parameters": [
                    {"type": "integer", "default": 50, "description": "Maximum number of runs", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Runs", "schema": {"type": "array", "items": {"$ref": "#/definitions/store.RunRecord"}}},
                    "500": {"description": "Internal server error", "schema": {"type": "object", "additionalProperties": true}}
                }
            },
            "post": {
                "description": "Validate the request, record the run and execute it asynchronously in its own directory under the output root",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["runs"],
                "summary": "Start a generation run",
                "parameters": [
                    {"description": "Run request", "name": "run", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.RunRequest"}}
                ],
                "responses": {
                    "202": {"description": "Run accepted", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Invalid request payload", "schema": {"type": "object", "additionalProperties": true}},
                    "500": {"description": "Internal server error", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/runs/latest": {
            "get": {
                "description": "Summary of the most recently finished run",
                "produces": ["application/json"],
                "tags": ["runs"],
                "summary": "Latest run summary",
                "responses": {
                    "200": {"description": "Run summary", "schema": {"$ref": "#/definitions/model.RunSummary"}},
                    "404": {"description": "No finished run", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/runs/{id}": {
            "get": {
                "description": "Status, request and summary of a run",
                "produces": ["application/json"],
                "tags": ["runs"],
                "summary": "Get run",
                "parameters": [
                    {"type": "string", "description": "Run ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Run details", "schema": {"$ref": "#/definitions/store.RunRecord"}},
                    "400": {"description": "Invalid run ID", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Run not found", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/runs/{id}/workers": {
            "get": {
                "description": "Per-worker summaries ordered by phase and worker id",
                "produces": ["application/json"],
                "tags": ["runs"],
                "summary": "Get run worker stats",
                "parameters": [
                    {"type": "string", "description": "Run ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Worker summaries", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.WorkerSummary"}}},
                    "400": {"description": "Invalid run ID", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Run not found", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        }
    },
    "definitions": {
        "model.PhaseCounts": {
            "type": "object",
            "properties": {
                "negative": {"type": "integer"},
                "positive": {"type": "integer"}
            }
        },
        "model.RunRequest": {
            "type": "object",
            "required": ["output_root"],
            "properties": {
                "corpus": {"type": "string", "enum": ["phi", "cui"]},
                "formats": {"type": "array", "items": {"type": "string"}},
                "negative": {"type": "integer", "minimum": 0},
                "output_root": {"type": "string"},
                "positive": {"type": "integer", "minimum": 0},
                "seed": {"type": "integer"},
                "workers": {"type": "integer", "minimum": 1}
            }
        },
        "model.LostWorker": {
            "type": "object",
            "properties": {
                "completed": {"type": "integer"},
                "end": {"type": "integer"},
                "failed": {"type": "integer"},
                "lost": {"type": "integer"},
                "phase": {"type": "string"},
                "reason": {"type": "string"},
                "start": {"type": "integer"},
                "worker_id": {"type": "integer"}
            }
        },
        "model.WorkerSummary": {
            "type": "object",
            "properties": {
                "by_category": {"type": "object", "additionalProperties": {"type": "integer"}},
                "by_format": {"type": "object", "additionalProperties": {"type": "integer"}},
                "end": {"type": "integer"},
                "end_time": {"type": "string"},
                "items_completed": {"type": "integer"},
                "items_failed": {"type": "integer"},
                "lost": {"type": "boolean"},
                "phase": {"type": "string"},
                "phase_counts": {"$ref": "#/definitions/model.PhaseCounts"},
                "start": {"type": "integer"},
                "start_time": {"type": "string"},
                "worker_id": {"type": "integer"}
            }
        },
        "model.RunSummary": {
            "type": "object",
            "properties": {
                "by_category": {"type": "object", "additionalProperties": {"type": "integer"}},
                "by_format": {"type": "object", "additionalProperties": {"type": "integer"}},
                "corpus": {"type": "string"},
                "docs_per_second": {"type": "number"},
                "duration": {"type": "integer"},
                "end_time": {"type": "string"},
                "errors": {"type": "integer"},
                "lost_items": {"type": "integer"},
                "lost_workers": {"type": "array", "items": {"$ref": "#/definitions/model.LostWorker"}},
                "output_dir": {"type": "string"},
                "phase_counts": {"$ref": "#/definitions/model.PhaseCounts"},
                "requested": {"$ref": "#/definitions/model.PhaseCounts"},
                "run_id": {"type": "string"},
                "seed": {"type": "integer"},
                "start_time": {"type": "string"},
                "total_generated": {"type": "integer"},
                "worker_stats": {"type": "array", "items": {"$ref": "#/definitions/model.WorkerSummary"}},
                "workers": {"type": "integer"}
            }
        },
        "store.RunRecord": {
            "type": "object",
            "properties": {
                "corpus": {"type": "string"},
                "created_at": {"type": "string"},
                "error": {"type": "string"},
                "errors": {"type": "integer"},
                "id": {"type": "string"},
                "lost_items": {"type": "integer"},
                "request": {"$ref": "#/definitions/model.RunRequest"},
                "seed": {"type": "integer"},
                "status": {"type": "string"},
                "summary": {"$ref": "#/definitions/model.RunSummary"},
                "total_generated": {"type": "integer"},
                "updated_at": {"type": "string"},
                "workers": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Batch Generator API",
	Description:      "Start document generation runs and inspect their history.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
