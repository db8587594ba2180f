// Package docs registers the OpenAPI description served under /swagger.
// Regenerate with: swag init -g cmd/reforma-budgets/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/drafts": {
            "post": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["drafts"],
                "summary": "Start a budget form",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/api/v1/drafts/{id}": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["drafts"],
                "summary": "Get a budget form",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "patch": {
                "security": [{"Bearer": []}],
                "tags": ["drafts"],
                "summary": "Update budget form fields",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/v1/drafts/{id}/attachment": {
            "put": {
                "security": [{"Bearer": []}],
                "consumes": ["multipart/form-data"],
                "tags": ["drafts"],
                "summary": "Select the material budget PDF",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "file", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "415": {"description": "Unsupported Media Type"}}
            },
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["application/pdf"],
                "tags": ["drafts"],
                "summary": "Preview the selected attachment",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "delete": {
                "security": [{"Bearer": []}],
                "tags": ["drafts"],
                "summary": "Remove the selected attachment",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/drafts/{id}/submit": {
            "post": {
                "security": [{"Bearer": []}],
                "tags": ["drafts"],
                "summary": "Generate the budget PDF",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Conflict"},
                    "422": {"description": "Unprocessable Entity"},
                    "502": {"description": "Bad Gateway"}
                }
            }
        },
        "/api/v1/budgets": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["budgets"],
                "summary": "List generated budgets",
                "parameters": [
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "integer", "default": 50, "name": "limit", "in": "query"},
                    {"type": "integer", "default": 0, "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/budgets/{id}": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["budgets"],
                "summary": "Get a budget",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "delete": {
                "security": [{"Bearer": []}],
                "tags": ["budgets"],
                "summary": "Delete a budget record",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/api/v1/budgets/{id}/status": {
            "patch": {
                "security": [{"Bearer": []}],
                "tags": ["budgets"],
                "summary": "Change a budget's status",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/settings": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["settings"],
                "summary": "Get the company profile",
                "responses": {"200": {"description": "OK"}}
            },
            "put": {
                "security": [{"Bearer": []}],
                "tags": ["settings"],
                "summary": "Save the company profile",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/settings/logo": {
            "put": {
                "security": [{"Bearer": []}],
                "consumes": ["multipart/form-data"],
                "tags": ["settings"],
                "summary": "Upload the company logo",
                "parameters": [{"type": "file", "name": "file", "in": "formData", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/portfolio": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["portfolio"],
                "summary": "List portfolio items",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"Bearer": []}],
                "consumes": ["multipart/form-data"],
                "tags": ["portfolio"],
                "summary": "Publish a finished job",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/api/v1/portfolio/{id}": {
            "delete": {
                "security": [{"Bearer": []}],
                "tags": ["portfolio"],
                "summary": "Delete a portfolio item and its images",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/public/portfolio": {
            "get": {
                "tags": ["public"],
                "summary": "Public portfolio",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/public/portfolio/{shareId}": {
            "get": {
                "tags": ["public"],
                "summary": "Shared portfolio item",
                "parameters": [{"type": "string", "name": "shareId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        }
    },
    "securityDefinitions": {
        "Bearer": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Reforma Budgets API",
	Description:      "Budget PDF generation, company profile and portfolio for a renovation business",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
