package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "CareConnect API",
        "description": "Donation and request matching for community clubs",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Account registration and login"},
        {"name": "Donations", "description": "Donor lifecycle"},
        {"name": "Requests", "description": "Requester lifecycle"},
        {"name": "Manager", "description": "Club manager operations"},
        {"name": "Inventory", "description": "Aggregates and exports"},
        {"name": "Notifications", "description": "User notifications"},
        {"name": "Broadcast", "description": "Shortage subscriptions"},
        {"name": "Public", "description": "Unauthenticated reads"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register a client account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/profile": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Get the caller's profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized"}
                }
            },
            "put": {
                "tags": ["Authentication"],
                "summary": "Update the caller's profile",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateProfileRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/community_clubs": {
            "get": {
                "tags": ["Public"],
                "summary": "Community club map markers",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/donations": {
            "get": {
                "tags": ["Donations"],
                "summary": "List the caller's donations",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Donations"],
                "summary": "Submit a donation",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateDonationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed"}
                }
            }
        },
        "/donations/{id}": {
            "get": {
                "tags": ["Donations"],
                "summary": "Fetch one donation",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Donations"],
                "summary": "Edit a pending donation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateDonationRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Not editable in current status"}}
            },
            "delete": {
                "tags": ["Donations"],
                "summary": "Withdraw a donation",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}, "409": {"description": "Already added"}}
            }
        },
        "/requests": {
            "get": {
                "tags": ["Requests"],
                "summary": "List the caller's requests",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Requests"],
                "summary": "Submit a request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateRequestRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed"}
                }
            }
        },
        "/requests/reject": {
            "post": {
                "tags": ["Requests"],
                "summary": "Withdraw a matched request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RejectRequestPayload"}}
                ],
                "responses": {"204": {"description": "Rejected"}, "409": {"description": "Not matched"}}
            }
        },
        "/requests/{id}": {
            "get": {
                "tags": ["Requests"],
                "summary": "Fetch one request",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Requests"],
                "summary": "Edit a pending request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateRequestRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Not editable in current status"}}
            },
            "delete": {
                "tags": ["Requests"],
                "summary": "Withdraw a pending request",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}, "409": {"description": "Already matched"}}
            }
        },
        "/client/cc_summary": {
            "get": {
                "tags": ["Inventory"],
                "summary": "Per-club aggregate summary",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/manager/donations": {
            "get": {
                "tags": ["Manager"],
                "summary": "List the club's reviewable donations",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/manager/donations/{id}/approve": {
            "post": {
                "tags": ["Manager"],
                "summary": "Approve a pending donation",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Not pending"}}
            }
        },
        "/manager/donations/{id}/reject": {
            "post": {
                "tags": ["Manager"],
                "summary": "Reject a donation",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Rejected"}, "409": {"description": "Already added"}}
            }
        },
        "/manager/donations/{id}/add": {
            "post": {
                "tags": ["Manager"],
                "summary": "Credit an approved donation to inventory",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Not approved"}}
            }
        },
        "/manager/requests/matched": {
            "get": {
                "tags": ["Manager"],
                "summary": "List matched requests awaiting pickup",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/manager/requests/{id}/complete": {
            "post": {
                "tags": ["Manager"],
                "summary": "Mark a matched request as collected",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Not matched"}}
            }
        },
        "/manager/cc_summary": {
            "get": {
                "tags": ["Manager"],
                "summary": "Per-club aggregate summary",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/manager/inventory/{location}": {
            "get": {
                "tags": ["Inventory"],
                "summary": "Per-item inventory of one club",
                "parameters": [{"name": "location", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/manager/inventory/{location}/export": {
            "get": {
                "tags": ["Inventory"],
                "summary": "Download inventory as CSV or PDF",
                "parameters": [
                    {"name": "location", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {"200": {"description": "File"}}
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List the caller's notifications",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/notifications/unread-count": {
            "get": {
                "tags": ["Notifications"],
                "summary": "Count the caller's unread notifications",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/notifications/mark-read": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Mark every notification as read",
                "responses": {"204": {"description": "Done"}}
            }
        },
        "/notifications/{id}": {
            "delete": {
                "tags": ["Notifications"],
                "summary": "Delete one notification",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}, "404": {"description": "Not found"}}
            }
        },
        "/broadcast/subscribe": {
            "post": {
                "tags": ["Broadcast"],
                "summary": "Subscribe to shortage broadcasts",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubscriptionRequest"}}
                ],
                "responses": {"204": {"description": "Subscribed"}}
            }
        },
        "/broadcast/unsubscribe": {
            "post": {
                "tags": ["Broadcast"],
                "summary": "Unsubscribe from shortage broadcasts",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubscriptionRequest"}}
                ],
                "responses": {"204": {"description": "Unsubscribed"}}
            }
        },
        "/broadcast/subscriptions": {
            "get": {
                "tags": ["Broadcast"],
                "summary": "List the caller's subscriptions",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "RegisterRequest": {
            "type": "object",
            "required": ["email", "password", "full_name", "contact_number"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "full_name": {"type": "string"},
                "contact_number": {"type": "string"},
                "monthly_income": {"type": "string"}
            }
        },
        "UpdateProfileRequest": {
            "type": "object",
            "properties": {
                "full_name": {"type": "string"},
                "contact_number": {"type": "string"},
                "monthly_income": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "CreateDonationRequest": {
            "type": "object",
            "required": ["category", "item", "quantity", "location", "image_link"],
            "properties": {
                "category": {"type": "string", "enum": ["Food", "Drinks", "Furnitures", "Electronics", "Essentials"]},
                "item": {"type": "string"},
                "quantity": {"type": "integer", "minimum": 1},
                "location": {"type": "string"},
                "image_link": {"type": "string"},
                "expiry_date": {"type": "string", "format": "date"}
            }
        },
        "UpdateDonationRequest": {
            "type": "object",
            "properties": {
                "category": {"type": "string"},
                "item": {"type": "string"},
                "quantity": {"type": "integer"},
                "location": {"type": "string"},
                "image_link": {"type": "string"},
                "expiry_date": {"type": "string", "format": "date"}
            }
        },
        "CreateRequestRequest": {
            "type": "object",
            "required": ["category", "item", "quantity", "location"],
            "properties": {
                "category": {"type": "string", "enum": ["Food", "Drinks", "Furnitures", "Electronics", "Essentials"]},
                "item": {"type": "string"},
                "quantity": {"type": "integer", "minimum": 1},
                "location": {"type": "string"}
            }
        },
        "UpdateRequestRequest": {
            "type": "object",
            "properties": {
                "category": {"type": "string"},
                "item": {"type": "string"},
                "quantity": {"type": "integer"},
                "location": {"type": "string"}
            }
        },
        "RejectRequestPayload": {
            "type": "object",
            "required": ["request_id", "item", "location"],
            "properties": {
                "request_id": {"type": "string"},
                "item": {"type": "string"},
                "location": {"type": "string"}
            }
        },
        "SubscriptionRequest": {
            "type": "object",
            "required": ["location"],
            "properties": {
                "location": {"type": "string"}
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
