// Package docs registers the admin API's OpenAPI description with swag so
// that http-swagger can serve it at /docs/doc.json.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "WoDaGOAT"
        },
        "license": {
            "name": "MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/health": {
            "get": {
                "tags": ["health"],
                "summary": "Health check",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/health/db": {
            "get": {
                "tags": ["health"],
                "summary": "Database health check",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}
            }
        },
        "/health/cache": {
            "get": {
                "tags": ["health"],
                "summary": "Cache health check",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/admin/enrichment/scan": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["enrichment"],
                "summary": "Scan athletes for enrichment suggestions",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{
                    "name": "request", "in": "body", "required": true,
                    "schema": {"$ref": "#/definitions/handler.ScanRequest"}
                }],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/enrich.ScanResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/api/v1/admin/enrichment/apply": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["enrichment"],
                "summary": "Apply approved suggestions",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{
                    "name": "request", "in": "body", "required": true,
                    "schema": {"$ref": "#/definitions/handler.ApplyRequest"}
                }],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/enrich.ApplyResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/api/v1/admin/import/parse": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["import"],
                "summary": "Parse a CSV upload",
                "consumes": ["text/plain"],
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.ParseResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/api/v1/admin/import/preview": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["import"],
                "summary": "Preview a mapped CSV import",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{
                    "name": "request", "in": "body", "required": true,
                    "schema": {"$ref": "#/definitions/handler.ImportRequest"}
                }],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.PreviewResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/api/v1/admin/import/commit": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["import"],
                "summary": "Commit a CSV import",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{
                    "name": "request", "in": "body", "required": true,
                    "schema": {"$ref": "#/definitions/handler.ImportRequest"}
                }],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/athlete.ImportResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "athlete.ImportResult": {
            "type": "object",
            "properties": {
                "inserted_count": {"type": "integer"},
                "updated_count": {"type": "integer"},
                "skipped_count": {"type": "integer"},
                "errors": {"type": "array", "items": {"type": "string"}}
            }
        },
        "enrich.Suggestion": {
            "type": "object",
            "properties": {
                "field": {"type": "string"},
                "current_value": {},
                "suggested_value": {},
                "confidence": {"type": "string", "enum": ["high", "medium", "low"]},
                "source": {"type": "string"}
            }
        },
        "enrich.AthleteSuggestions": {
            "type": "object",
            "properties": {
                "athlete_id": {"type": "string"},
                "athlete_name": {"type": "string"},
                "suggestions": {"type": "array", "items": {"$ref": "#/definitions/enrich.Suggestion"}}
            }
        },
        "enrich.ScanResult": {
            "type": "object",
            "properties": {
                "processed": {"type": "integer"},
                "suggestions_found": {"type": "integer"},
                "errors": {"type": "array", "items": {"type": "string"}},
                "athlete_suggestions": {"type": "array", "items": {"$ref": "#/definitions/enrich.AthleteSuggestions"}}
            }
        },
        "enrich.ApplyResult": {
            "type": "object",
            "properties": {
                "athlete_id": {"type": "string"},
                "applied_fields": {"type": "array", "items": {"type": "string"}}
            }
        },
        "handler.ScanRequest": {
            "type": "object",
            "properties": {
                "athlete_id": {"type": "string"},
                "athlete_ids": {"type": "array", "items": {"type": "string"}},
                "all": {"type": "boolean"}
            }
        },
        "handler.ApplyRequest": {
            "type": "object",
            "properties": {
                "athlete_id": {"type": "string"},
                "suggestions": {"type": "array", "items": {"$ref": "#/definitions/enrich.Suggestion"}}
            }
        },
        "handler.ImportRequest": {
            "type": "object",
            "properties": {
                "csv": {"type": "string"},
                "mapping": {"type": "object", "additionalProperties": {"type": "string"}},
                "update_mode": {"type": "boolean"}
            }
        },
        "handler.ParseResponse": {
            "type": "object",
            "properties": {
                "headers": {"type": "array", "items": {"type": "string"}},
                "row_count": {"type": "integer"},
                "sample": {"type": "array", "items": {"type": "array", "items": {"type": "string"}}},
                "suggested_mapping": {"type": "object", "additionalProperties": {"type": "string"}},
                "targets": {"type": "array", "items": {"type": "string"}}
            }
        },
        "handler.PreviewResponse": {
            "type": "object",
            "properties": {
                "athletes": {"type": "array", "items": {"type": "object"}},
                "duplicates": {"type": "array", "items": {"type": "object"}},
                "dropped": {"type": "integer"},
                "update_mode": {"type": "boolean"}
            }
        },
        "respond.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {"type": "string"},
                        "message": {"type": "string"},
                        "detail": {"type": "string"}
                    }
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8000",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "WoDaGOAT Data Admin API",
	Description:      "Admin API for the athlete enrichment and CSV reconciliation pipelines. All /api/v1/admin routes require a bearer token for an administrator.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
