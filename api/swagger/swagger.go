package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Innovation Hub API",
        "description": "Idea lifecycle, mentor assignment and incubation workflow engine",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, token refresh and session management"},
        {"name": "Ideas", "description": "Idea submission and lifecycle transitions"},
        {"name": "Mentor Assignments", "description": "Mentor pairing, requests and responses"},
        {"name": "Incubation", "description": "Incubation centre review queue and decisions"},
        {"name": "Notifications", "description": "Per-user notification feed"},
        {"name": "Chats", "description": "Assignment-scoped mentor chats"},
        {"name": "Reports", "description": "Pipeline breakdown exports"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {
                    "200": {"description": "Tokens issued"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/ideas": {
            "get": {
                "tags": ["Ideas"],
                "summary": "List ideas visible to the caller",
                "responses": {
                    "200": {"$ref": "#/definitions/ResponseEnvelope"}
                }
            },
            "post": {
                "tags": ["Ideas"],
                "summary": "Register a new idea",
                "responses": {
                    "201": {"$ref": "#/definitions/ResponseEnvelope"}
                }
            }
        },
        "/ideas/{id}/status": {
            "put": {
                "tags": ["Ideas"],
                "summary": "Move an idea to a new status",
                "responses": {
                    "200": {"$ref": "#/definitions/ResponseEnvelope"},
                    "400": {"description": "Transition not allowed"},
                    "403": {"description": "Role or scope violation"},
                    "409": {"description": "Concurrent modification"}
                }
            }
        },
        "/mentor-assignments/assign": {
            "post": {
                "tags": ["Mentor Assignments"],
                "summary": "Directly assign a mentor to an idea",
                "responses": {
                    "201": {"$ref": "#/definitions/ResponseEnvelope"},
                    "409": {"description": "Mentor at capacity"}
                }
            }
        },
        "/mentor-assignments/request": {
            "post": {
                "tags": ["Mentor Assignments"],
                "summary": "Request a mentor for the caller's idea",
                "responses": {
                    "201": {"$ref": "#/definitions/ResponseEnvelope"}
                }
            }
        },
        "/incubator/ideas/endorsed": {
            "get": {
                "tags": ["Incubation"],
                "summary": "Forwarded ideas awaiting incubation review",
                "responses": {
                    "200": {"$ref": "#/definitions/ResponseEnvelope"}
                }
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List the caller's notifications",
                "responses": {
                    "200": {"$ref": "#/definitions/ResponseEnvelope"}
                }
            }
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
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
