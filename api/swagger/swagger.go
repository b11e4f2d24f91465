package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Admin Console Gateway",
        "description": "Filtered, paginated list sync for the admin dashboard",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {
            "name": "Sessions",
            "description": "Dashboard session lifecycle"
        },
        {
            "name": "Screens",
            "description": "List screen intents and streams"
        },
        {
            "name": "LiveCount",
            "description": "Live user count"
        },
        {
            "name": "Observability",
            "description": "Metrics and probes"
        }
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Liveness check",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {
                        "description": "Ready"
                    },
                    "503": {
                        "description": "Degraded"
                    }
                }
            }
        },
        "/metrics": {
            "get": {
                "summary": "Prometheus metrics",
                "produces": [
                    "text/plain"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/console/sessions": {
            "post": {
                "tags": [
                    "Sessions"
                ],
                "summary": "Open a console session",
                "responses": {
                    "201": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/OpenSessionRequest"
                        }
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Sessions"
                ],
                "summary": "Close the current console session",
                "responses": {
                    "204": {
                        "description": "OK"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/console/sessions/current": {
            "get": {
                "tags": [
                    "Sessions"
                ],
                "summary": "Describe the current console session",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/console/sessions/current/audit": {
            "get": {
                "tags": [
                    "Sessions"
                ],
                "summary": "Recent intents recorded for the current session",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "name": "screen",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer",
                        "default": 100
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/console/metrics": {
            "get": {
                "tags": [
                    "Observability"
                ],
                "summary": "Gateway metrics snapshot",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/console/live-count": {
            "get": {
                "tags": [
                    "LiveCount"
                ],
                "summary": "Last published live user count",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "post": {
                "tags": [
                    "LiveCount"
                ],
                "summary": "Publish a live user count",
                "responses": {
                    "202": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/LiveCountRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/console/screens": {
            "get": {
                "tags": [
                    "Screens"
                ],
                "summary": "List available screens",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/console/screens/{screen}": {
            "get": {
                "tags": [
                    "Screens"
                ],
                "summary": "Current state of a screen",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "name": "screen",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "orders",
                            "customers",
                            "users",
                            "roles"
                        ]
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/console/screens/{screen}/mount": {
            "post": {
                "tags": [
                    "Screens"
                ],
                "summary": "Mount a screen and fetch its first page",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "name": "screen",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "orders",
                            "customers",
                            "users",
                            "roles"
                        ]
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/console/screens/{screen}/filters/status": {
            "post": {
                "tags": [
                    "Screens"
                ],
                "summary": "Apply a status filter",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "name": "screen",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "orders",
                            "customers",
                            "users",
                            "roles"
                        ]
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/StatusFilterRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/console/screens/{screen}/filters/role": {
            "post": {
                "tags": [
                    "Screens"
                ],
                "summary": "Apply a role filter",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "name": "screen",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "orders",
                            "customers",
                            "users",
                            "roles"
                        ]
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/RoleFilterRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/console/screens/{screen}/filters/date-range": {
            "post": {
                "tags": [
                    "Screens"
                ],
                "summary": "Apply a date range preset or custom range",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "name": "screen",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "orders",
                            "customers",
                            "users",
                            "roles"
                        ]
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/DateRangeFilterRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/console/screens/{screen}/filters": {
            "delete": {
                "tags": [
                    "Screens"
                ],
                "summary": "Clear every filter",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "name": "screen",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "orders",
                            "customers",
                            "users",
                            "roles"
                        ]
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/console/screens/{screen}/search": {
            "post": {
                "tags": [
                    "Screens"
                ],
                "summary": "Apply a search term immediately",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "name": "screen",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "orders",
                            "customers",
                            "users",
                            "roles"
                        ]
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SearchRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/console/screens/{screen}/search/input": {
            "post": {
                "tags": [
                    "Screens"
                ],
                "summary": "Record a debounced search keystroke",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "name": "screen",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "orders",
                            "customers",
                            "users",
                            "roles"
                        ]
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SearchInputRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/console/screens/{screen}/sentinel": {
            "post": {
                "tags": [
                    "Screens"
                ],
                "summary": "Report sentinel visibility",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "name": "screen",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "orders",
                            "customers",
                            "users",
                            "roles"
                        ]
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SentinelRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/console/screens/{screen}/more": {
            "post": {
                "tags": [
                    "Screens"
                ],
                "summary": "Append the next page",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "name": "screen",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "orders",
                            "customers",
                            "users",
                            "roles"
                        ]
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/console/screens/{screen}/events": {
            "get": {
                "tags": [
                    "Screens"
                ],
                "summary": "Stream screen state and notifications",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "name": "screen",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "orders",
                            "customers",
                            "users",
                            "roles"
                        ]
                    },
                    {
                        "name": "token",
                        "in": "query",
                        "type": "string"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "text/event-stream"
                ]
            }
        },
        "/console/screens/{screen}/export": {
            "get": {
                "tags": [
                    "Screens"
                ],
                "summary": "Download the displayed rows",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "name": "screen",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "orders",
                            "customers",
                            "users",
                            "roles"
                        ]
                    },
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string",
                        "enum": [
                            "csv",
                            "pdf"
                        ],
                        "default": "csv"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "text/csv",
                    "application/pdf"
                ]
            }
        }
    },
    "definitions": {
        "OpenSessionRequest": {
            "type": "object",
            "required": [
                "operator"
            ],
            "properties": {
                "operator": {
                    "type": "string",
                    "maxLength": 120
                }
            }
        },
        "StatusFilterRequest": {
            "type": "object",
            "required": [
                "status"
            ],
            "properties": {
                "status": {
                    "type": "string"
                }
            }
        },
        "RoleFilterRequest": {
            "type": "object",
            "required": [
                "role"
            ],
            "properties": {
                "role": {
                    "type": "string"
                }
            }
        },
        "DateRangeFilterRequest": {
            "type": "object",
            "required": [
                "preset"
            ],
            "properties": {
                "preset": {
                    "type": "string",
                    "enum": [
                        "today",
                        "week",
                        "month",
                        "custom"
                    ]
                },
                "start_date": {
                    "type": "string",
                    "format": "date-time"
                },
                "end_date": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "SearchRequest": {
            "type": "object",
            "properties": {
                "term": {
                    "type": "string",
                    "maxLength": 255
                }
            }
        },
        "SearchInputRequest": {
            "type": "object",
            "properties": {
                "submit": {
                    "type": "boolean"
                },
                "term": {
                    "type": "string",
                    "maxLength": 255
                }
            }
        },
        "SentinelRequest": {
            "type": "object",
            "required": [
                "sentinel"
            ],
            "properties": {
                "sentinel": {
                    "type": "string"
                },
                "ratio": {
                    "type": "number",
                    "minimum": 0,
                    "maximum": 1
                }
            }
        },
        "LiveCountRequest": {
            "type": "object",
            "properties": {
                "totalUserCount": {
                    "type": "integer",
                    "minimum": 0,
                    "x-nullable": true
                }
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
