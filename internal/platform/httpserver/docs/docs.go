// Package docs serves the OpenAPI document for the approval workflow API.
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
        "/v1/creative-requests": {
            "get": {
                "produces": ["application/json"],
                "tags": ["creative-requests"],
                "summary": "List creative requests",
                "parameters": [
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "string", "name": "approval_stage", "in": "query"},
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "string", "name": "advertiser_id", "in": "query"},
                    {"type": "string", "name": "publisher_id", "in": "query"},
                    {"type": "string", "name": "reviewed_by", "in": "query"},
                    {"type": "string", "enum": ["submitted_at", "priority", "advertiser_name"], "name": "sort_by", "in": "query"},
                    {"type": "string", "enum": ["asc", "desc"], "name": "order", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ListRequestsResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/Problem"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["creative-requests"],
                "summary": "Submit a creative request for review",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitRequestRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/SubmitRequestResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/Problem"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/Problem"}}
                }
            }
        },
        "/v1/creative-requests/{request_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["creative-requests"],
                "summary": "Get one creative request",
                "parameters": [
                    {"type": "string", "name": "request_id", "in": "path", "required": true},
                    {"type": "string", "name": "X-User-Role", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/GetRequestResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/Problem"}}
                }
            }
        },
        "/v1/creative-requests/{request_id}/history": {
            "get": {
                "produces": ["application/json"],
                "tags": ["creative-requests"],
                "summary": "List the audit history of a request",
                "parameters": [
                    {"type": "string", "name": "request_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/GetHistoryResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/Problem"}}
                }
            }
        },
        "/v1/creative-requests/{request_id}/{operation}": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["review"],
                "summary": "Apply a review operation",
                "parameters": [
                    {"type": "string", "name": "request_id", "in": "path", "required": true},
                    {"type": "string", "enum": ["approve", "reject", "forward", "return"], "name": "operation", "in": "path", "required": true},
                    {"type": "string", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "string", "enum": ["admin", "advertiser"], "name": "X-User-Role", "in": "header", "required": true},
                    {"name": "body", "in": "body", "schema": {"$ref": "#/definitions/TransitionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TransitionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/Problem"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/Problem"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/Problem"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/Problem"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/Problem"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/Problem"}}
                }
            }
        }
    },
    "definitions": {
        "Problem": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "title": {"type": "string"},
                "status": {"type": "integer"},
                "detail": {"type": "string"},
                "instance": {"type": "string"}
            }
        },
        "SubmitRequestRequest": {
            "type": "object",
            "required": ["offer_id", "advertiser_id", "publisher_id"],
            "properties": {
                "request_id": {"type": "string"},
                "offer_id": {"type": "string"},
                "offer_name": {"type": "string"},
                "advertiser_id": {"type": "string"},
                "advertiser_name": {"type": "string"},
                "publisher_id": {"type": "string"},
                "priority": {"type": "string", "enum": ["low", "medium", "high", "urgent"]},
                "creative_type": {"type": "string"},
                "creative_count": {"type": "integer"}
            }
        },
        "TransitionRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
            }
        },
        "CreativeRequest": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string"},
                "status": {"type": "string"},
                "approval_stage": {"type": "string"},
                "offer_id": {"type": "string"},
                "offer_name": {"type": "string"},
                "advertiser_id": {"type": "string"},
                "advertiser_name": {"type": "string"},
                "publisher_id": {"type": "string"},
                "priority": {"type": "string"},
                "creative_type": {"type": "string"},
                "creative_count": {"type": "integer"},
                "admin_status": {"type": "string"},
                "admin_approved_at": {"type": "string"},
                "admin_comments": {"type": "string"},
                "advertiser_status": {"type": "string"},
                "advertiser_responded_at": {"type": "string"},
                "advertiser_comments": {"type": "string"},
                "submitted_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "HistoryEntry": {
            "type": "object",
            "properties": {
                "history_id": {"type": "string"},
                "request_id": {"type": "string"},
                "operation": {"type": "string"},
                "from_status": {"type": "string"},
                "from_stage": {"type": "string"},
                "to_status": {"type": "string"},
                "to_stage": {"type": "string"},
                "actor_id": {"type": "string"},
                "actor_role": {"type": "string"},
                "reason": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "SubmitRequestResponse": {
            "type": "object",
            "properties": {"request": {"$ref": "#/definitions/CreativeRequest"}}
        },
        "ListRequestsResponse": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/CreativeRequest"}},
                "total": {"type": "integer"},
                "page": {"type": "integer"},
                "limit": {"type": "integer"}
            }
        },
        "GetRequestResponse": {
            "type": "object",
            "properties": {
                "request": {"$ref": "#/definitions/CreativeRequest"},
                "terminal": {"type": "boolean"},
                "permitted_operations": {"type": "array", "items": {"type": "string"}}
            }
        },
        "GetHistoryResponse": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/HistoryEntry"}}
            }
        },
        "TransitionResponse": {
            "type": "object",
            "properties": {
                "request": {"$ref": "#/definitions/CreativeRequest"},
                "history_entry": {"$ref": "#/definitions/HistoryEntry"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "creativehub approval workflow API",
	Description:      "Review workflow for publisher-submitted advertising creatives.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
