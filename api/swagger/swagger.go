package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Timetable Editor API",
        "description": "Conflict-aware editor for lessons, invigilations and staff unavailability",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Editor", "description": "Timetable event editor sessions"},
        {"name": "Observability", "description": "Health, readiness and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Observability"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Observability"],
                "summary": "Readiness check against postgres and redis",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unreachable"}
                }
            }
        },
        "/editor/sessions": {
            "post": {
                "tags": ["Editor"],
                "summary": "Open an editor session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OpenSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/editor/sessions/{id}": {
            "get": {
                "tags": ["Editor"],
                "summary": "Get an editor session",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Editor"],
                "summary": "Cancel an editor session",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "An action is in flight", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/editor/sessions/{id}/form": {
            "patch": {
                "tags": ["Editor"],
                "summary": "Overwrite form fields",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FormPatchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "An action is in flight", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/editor/sessions/{id}/validate": {
            "post": {
                "tags": ["Editor"],
                "summary": "Validate the current form",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/editor/sessions/{id}/confirm": {
            "post": {
                "tags": ["Editor"],
                "summary": "Validate and save the current form",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Saved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Backend rejected the event", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Backend unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/editor/sessions/{id}/delete": {
            "post": {
                "tags": ["Editor"],
                "summary": "Delete the event the session was opened on",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Deleted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Backend rejected the deletion", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/editor/conflicts": {
            "post": {
                "tags": ["Editor"],
                "summary": "Annotate rooms with conflicts for a range",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ConflictQuery"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/editor/occupancy": {
            "get": {
                "tags": ["Editor"],
                "summary": "Export occupancy of a window",
                "produces": ["text/calendar", "text/csv", "application/pdf"],
                "parameters": [
                    {"name": "window_start", "in": "query", "required": true, "type": "integer"},
                    {"name": "window_end", "in": "query", "required": true, "type": "integer"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["ics", "csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Occupancy document"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Range": {
            "type": "object",
            "properties": {
                "start": {"type": "integer"},
                "end": {"type": "integer"}
            },
            "required": ["start", "end"]
        },
        "EventRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "range": {"$ref": "#/definitions/Range"},
                "room_id": {"type": "integer"},
                "subject_id": {"type": "integer"},
                "repeat_count": {"type": "integer"},
                "topic_id": {"type": "integer"},
                "note": {"type": "string"}
            }
        },
        "OpenSessionRequest": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "enum": ["lesson", "unavailable", "invigilate"]},
                "mode": {"type": "string", "enum": ["add", "edit"]},
                "window": {"$ref": "#/definitions/Range"},
                "selection": {"$ref": "#/definitions/Range"},
                "class_id": {"type": "integer"},
                "staff_id": {"type": "integer"},
                "event": {"$ref": "#/definitions/EventRequest"}
            },
            "required": ["kind", "window"]
        },
        "FormPatchRequest": {
            "type": "object",
            "properties": {
                "start": {"type": "integer"},
                "end": {"type": "integer"},
                "room_id": {"type": "integer"},
                "clear_room": {"type": "boolean"},
                "subject_id": {"type": "integer"},
                "clear_subject": {"type": "boolean"},
                "repeat_count": {"type": "integer"},
                "topic_id": {"type": "integer"},
                "note": {"type": "string"}
            }
        },
        "ConflictQuery": {
            "type": "object",
            "properties": {
                "window": {"$ref": "#/definitions/Range"},
                "range": {"$ref": "#/definitions/Range"},
                "room_ids": {"type": "array", "items": {"type": "integer"}},
                "exclude_event_id": {"type": "string"},
                "exclude_room_id": {"type": "integer"},
                "exclude_range": {"$ref": "#/definitions/Range"},
                "repeat_count": {"type": "integer"}
            },
            "required": ["window", "range"]
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
