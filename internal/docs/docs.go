// Package docs registers the OpenAPI description of the HTTP API so that
// echo-swagger can serve it under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "consumes": ["application/json"],
    "produces": ["application/json"],
    "securityDefinitions": {
        "session": {
            "type": "apiKey",
            "in": "header",
            "name": "Authorization",
            "description": "Bearer session token. The helpkart_session cookie is accepted as well."
        }
    },
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Register a distribution center",
                "responses": {
                    "201": {"description": "Center created"},
                    "400": {"description": "VALIDATION_ERROR or WEAK_PASSWORD"},
                    "409": {"description": "DUPLICATE_EMAIL"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Log in and receive a session token",
                "responses": {
                    "200": {"description": "Session token, also set as cookie"},
                    "401": {"description": "INVALID_CREDENTIALS"},
                    "429": {"description": "TOO_MANY_ATTEMPTS"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["auth"],
                "summary": "Revoke the current session",
                "security": [{"session": []}],
                "responses": {"204": {"description": "Logged out"}}
            }
        },
        "/me": {
            "get": {
                "tags": ["account"],
                "summary": "Current center profile",
                "security": [{"session": []}],
                "responses": {"200": {"description": "Profile"}}
            },
            "put": {
                "tags": ["account"],
                "summary": "Update the current center profile",
                "security": [{"session": []}],
                "responses": {"200": {"description": "Updated profile"}}
            },
            "delete": {
                "tags": ["account"],
                "summary": "Delete the current center with its items and requests",
                "security": [{"session": []}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/me/password": {
            "put": {
                "tags": ["account"],
                "summary": "Change password",
                "security": [{"session": []}],
                "responses": {"204": {"description": "Changed"}}
            }
        },
        "/inventory": {
            "get": {
                "tags": ["inventory"],
                "summary": "List own items",
                "security": [{"session": []}],
                "parameters": [
                    {"name": "query", "in": "query", "type": "string"},
                    {"name": "category", "in": "query", "type": "string"},
                    {"name": "classification", "in": "query", "type": "string", "enum": ["surplus", "in_stock"]},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "Items"}}
            },
            "post": {
                "tags": ["inventory"],
                "summary": "Add an item",
                "security": [{"session": []}],
                "responses": {"201": {"description": "Item created"}}
            }
        },
        "/inventory/{id}": {
            "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}],
            "get": {
                "tags": ["inventory"],
                "summary": "Get an item",
                "security": [{"session": []}],
                "responses": {"200": {"description": "Item"}, "404": {"description": "NOT_FOUND"}}
            },
            "put": {
                "tags": ["inventory"],
                "summary": "Update an own item",
                "security": [{"session": []}],
                "responses": {"200": {"description": "Item"}, "403": {"description": "FORBIDDEN"}, "409": {"description": "CONFLICT"}}
            },
            "delete": {
                "tags": ["inventory"],
                "summary": "Delete an own item and reject its pending transactions",
                "security": [{"session": []}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/requests": {
            "get": {
                "tags": ["requests"],
                "summary": "List own requests split into open and fulfilled",
                "security": [{"session": []}],
                "responses": {"200": {"description": "Requests"}}
            },
            "post": {
                "tags": ["requests"],
                "summary": "Post a request for goods",
                "security": [{"session": []}],
                "responses": {"201": {"description": "Request created"}}
            }
        },
        "/requests/{id}": {
            "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}],
            "delete": {
                "tags": ["requests"],
                "summary": "Delete an own request",
                "security": [{"session": []}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/requests/{id}/fulfill": {
            "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}],
            "post": {
                "tags": ["requests"],
                "summary": "Mark an own request fulfilled by another center",
                "security": [{"session": []}],
                "responses": {"200": {"description": "Request"}}
            }
        },
        "/browse/surplus": {
            "get": {
                "tags": ["browse"],
                "summary": "Surplus items of other centers",
                "security": [{"session": []}],
                "responses": {"200": {"description": "Listings"}}
            }
        },
        "/browse/surplus/by-center": {
            "get": {
                "tags": ["browse"],
                "summary": "Surplus items of other centers grouped by center",
                "security": [{"session": []}],
                "responses": {"200": {"description": "Groups"}}
            }
        },
        "/browse/requests": {
            "get": {
                "tags": ["browse"],
                "summary": "Open requests of other centers",
                "security": [{"session": []}],
                "responses": {"200": {"description": "Listings"}}
            }
        },
        "/transactions": {
            "get": {
                "tags": ["transactions"],
                "summary": "Completed received and sent transactions, plus pending and rejected ones",
                "security": [{"session": []}],
                "responses": {"200": {"description": "History"}}
            }
        },
        "/transactions/request": {
            "post": {
                "tags": ["transactions"],
                "summary": "Request part of another center's surplus item",
                "security": [{"session": []}],
                "responses": {"201": {"description": "Pending transaction"}, "409": {"description": "CONFLICT"}}
            }
        },
        "/transactions/offer": {
            "post": {
                "tags": ["transactions"],
                "summary": "Offer goods against another center's request",
                "security": [{"session": []}],
                "responses": {"201": {"description": "Pending transaction"}}
            }
        },
        "/transactions/{id}": {
            "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}],
            "get": {
                "tags": ["transactions"],
                "summary": "Get a transaction the caller is party to",
                "security": [{"session": []}],
                "responses": {"200": {"description": "Transaction"}}
            }
        },
        "/transactions/{id}/approve": {
            "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}],
            "post": {
                "tags": ["transactions"],
                "summary": "Approve a pending transaction as the non-initiating party",
                "security": [{"session": []}],
                "responses": {"200": {"description": "Completed"}, "403": {"description": "FORBIDDEN"}, "409": {"description": "INVALID_STATE or CONFLICT"}}
            }
        },
        "/transactions/{id}/reject": {
            "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}],
            "post": {
                "tags": ["transactions"],
                "summary": "Reject a pending transaction",
                "security": [{"session": []}],
                "responses": {"200": {"description": "Rejected"}}
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["dashboard"],
                "summary": "Dashboard summary of the caller",
                "security": [{"session": []}],
                "responses": {"200": {"description": "Summary"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "HelpKart API",
	Description:      "Inventory sharing between distribution centers.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
