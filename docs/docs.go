// Package docs holds the generated Swagger specification.
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
        "/sessions": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Open and start an attempt session",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request"},
                    "409": {"description": "Assignment already completed"},
                    "422": {"description": "No eligible questions"},
                    "502": {"description": "Backend unavailable"}
                }
            }
        },
        "/sessions/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Get the current state of a session",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            },
            "delete": {
                "tags": ["sessions"],
                "summary": "Tear a session down",
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/sessions/{id}/start": {
            "post": {
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Retry starting a session after a failed start",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"},
                    "502": {"description": "Backend unavailable"}
                }
            }
        },
        "/sessions/{id}/answer": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Submit the answer for the current question",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"},
                    "409": {"description": "Session is not in progress"},
                    "502": {"description": "Recording rejected by the backend"}
                }
            }
        },
        "/sessions/{id}/back": {
            "post": {
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Go back to the previously answered question",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"},
                    "409": {"description": "Nothing to go back to"}
                }
            }
        },
        "/sessions/{id}/finish": {
            "post": {
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Finalize the attempt",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"},
                    "409": {"description": "Session has not started"},
                    "502": {"description": "Backend unavailable"}
                }
            }
        },
        "/questions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["questions"],
                "summary": "List the question bank",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["questions"],
                "summary": "Create a bank question",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request"},
                    "502": {"description": "Backend rejected the question"}
                }
            }
        },
        "/questions/{id}": {
            "delete": {
                "tags": ["questions"],
                "summary": "Delete a bank question",
                "responses": {
                    "204": {"description": "No Content"},
                    "502": {"description": "Backend rejected the delete"}
                }
            }
        },
        "/questions/{id}/review": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["questions"],
                "summary": "Change a question's review status",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"},
                    "502": {"description": "Backend rejected the change"}
                }
            }
        },
        "/attempts/mine": {
            "get": {
                "produces": ["application/json"],
                "tags": ["attempts"],
                "summary": "List the candidate's attempts",
                "responses": {
                    "200": {"description": "OK"},
                    "502": {"description": "Backend unavailable"}
                }
            }
        },
        "/attempts/{id}/summary": {
            "get": {
                "produces": ["application/json"],
                "tags": ["attempts"],
                "summary": "Get one attempt's summary",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"},
                    "502": {"description": "Backend unavailable"}
                }
            }
        },
        "/attempts/{id}/items": {
            "get": {
                "produces": ["application/json"],
                "tags": ["attempts"],
                "summary": "List one attempt's recorded items",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"},
                    "502": {"description": "Backend unavailable"}
                }
            }
        },
        "/completions/mine": {
            "get": {
                "produces": ["application/json"],
                "tags": ["completions"],
                "summary": "List the candidate's assignment completions",
                "responses": {
                    "200": {"description": "OK"},
                    "502": {"description": "Backend unavailable"}
                }
            }
        },
        "/analytics/overview": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Get the analytics dashboard overview",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"},
                    "502": {"description": "All analytics sources unavailable"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Examgate Attempt Gateway API",
	Description:      "Assessment attempt lifecycle gateway: guarded attempt sessions with per-question timers, optimistic answer recording and locally aggregated analytics over an upstream assessment backend.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
