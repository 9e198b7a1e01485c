// Package docs holds the OpenAPI document served at /swagger when
// SWAGGER_ENABLED is set. It is generated by swag from the handler
// annotations; regenerate with `swag init -g cmd/leadcapture/main.go`.
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
        "/guardar-lead": {
            "post": {
                "description": "Stores the submitted contact fields and forwards a hashed Lead conversion event. The forward is best-effort and never changes the response. OPTIONS answers pre-flight with an empty 200; other methods get 405.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Leads"],
                "summary": "Capture a lead",
                "operationId": "saveLead",
                "parameters": [
                    {
                        "description": "Lead form fields",
                        "name": "body",
                        "in": "body",
                        "schema": {"$ref": "#/definitions/handlers.LeadRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.LeadResponse"}},
                    "405": {"description": "Method not allowed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Store write failed (raw store message)", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "options": {
                "description": "Stores the submitted contact fields and forwards a hashed Lead conversion event. The forward is best-effort and never changes the response. OPTIONS answers pre-flight with an empty 200; other methods get 405.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Leads"],
                "summary": "Capture a lead",
                "operationId": "saveLead",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "Method not allowed"}
            }
        },
        "handlers.LeadRequest": {
            "type": "object",
            "properties": {
                "apellido": {"type": "string", "example": "Perez"},
                "direccion": {"type": "string", "example": "Calle 1"},
                "email": {"type": "string", "example": "juan@test.com"},
                "nombre": {"type": "string", "example": "Juan"},
                "telefono": {"type": "string", "example": "5551234"}
            }
        },
        "handlers.LeadResponse": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"type": "object"}},
                "message": {"type": "string", "example": "Lead guardado y enviado a CAPI"},
                "success": {"type": "boolean", "example": true}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Lead Capture API",
	Description:      "Landing-page lead capture with server-side conversion events.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
