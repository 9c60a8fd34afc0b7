package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the Season Engine API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	seasonSchema := map[string]interface{}{
		"type": "string",
		"enum": []string{"unknown", "winter", "spring", "summer", "autumn"},
	}

	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Season Engine API",
			"description": "Meteorological season detection from daily outdoor temperature means using SMHI consecutive-day threshold rules",
			"version":     "1.0.0",
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/season": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get current season status",
					"description": "Current season label, per-season counter progress, arrival dates, and the most recent daily mean",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"current_season": seasonSchema,
											"last_mean": map[string]interface{}{
												"type":     "object",
												"nullable": true,
												"properties": map[string]interface{}{
													"date":         map[string]string{"type": "string", "format": "date-time"},
													"mean_celsius": map[string]string{"type": "number"},
													"sample_count": map[string]string{"type": "integer"},
												},
											},
											"updated_at": map[string]string{"type": "string", "format": "date-time"},
											"seasons": map[string]interface{}{
												"type": "array",
												"items": map[string]interface{}{
													"type": "object",
													"properties": map[string]interface{}{
														"season":           seasonSchema,
														"consecutive_days": map[string]string{"type": "integer"},
														"run_length":       map[string]string{"type": "integer"},
														"progress":         map[string]string{"type": "string"},
														"arrival_date":     map[string]interface{}{"type": "string", "format": "date", "nullable": true},
														"manually_set":     map[string]string{"type": "boolean"},
													},
												},
											},
										},
									},
								},
							},
						},
					},
				},
			},
			"/api/season/history": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get historical season arrivals",
					"description": "Prior-year arrival dates, replaced wholesale at each year-boundary rollover",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"year": map[string]string{"type": "integer"},
											"arrivals": map[string]interface{}{
												"type": "array",
												"items": map[string]interface{}{
													"type": "object",
													"properties": map[string]interface{}{
														"season": seasonSchema,
														"date":   map[string]interface{}{"type": "string", "format": "date", "nullable": true},
													},
												},
											},
										},
									},
								},
							},
						},
					},
				},
			},
			"/api/season/tick": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Run the daily tick",
					"description": "Aggregate a completed day's samples and evaluate the season rules; defaults to yesterday",
					"parameters": []map[string]interface{}{
						{
							"name":        "date",
							"in":          "query",
							"description": "Day to process (YYYY-MM-DD)",
							"required":    false,
							"schema":      map[string]string{"type": "string", "format": "date"},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Tick summary",
						},
					},
				},
			},
			"/api/season/{season}/override": map[string]interface{}{
				"put": map[string]interface{}{
					"summary":     "Set a manual arrival date",
					"description": "Fixes a season's arrival date; automatic commits are blocked until cleared",
					"parameters": []map[string]interface{}{
						{
							"name":     "season",
							"in":       "path",
							"required": true,
							"schema":   seasonSchema,
						},
					},
					"requestBody": map[string]interface{}{
						"required": true,
						"content": map[string]interface{}{
							"application/json": map[string]interface{}{
								"schema": map[string]interface{}{
									"type": "object",
									"properties": map[string]interface{}{
										"date": map[string]string{"type": "string", "format": "date"},
									},
								},
							},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Override set"},
					},
				},
				"delete": map[string]interface{}{
					"summary":     "Clear a manual arrival date",
					"description": "Removes the override and re-enables automatic commit for the rest of the year",
					"parameters": []map[string]interface{}{
						{
							"name":     "season",
							"in":       "path",
							"required": true,
							"schema":   seasonSchema,
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Override cleared"},
					},
				},
			},
			"/api/means": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get daily means",
					"description": "Retrieve stored daily temperature means with filtering and pagination",
					"parameters": []map[string]interface{}{
						{
							"name":        "start_date",
							"in":          "query",
							"description": "Filter by start date (YYYY-MM-DD)",
							"required":    false,
							"schema":      map[string]string{"type": "string", "format": "date"},
						},
						{
							"name":        "end_date",
							"in":          "query",
							"description": "Filter by end date (YYYY-MM-DD)",
							"required":    false,
							"schema":      map[string]string{"type": "string", "format": "date"},
						},
						{
							"name":        "page",
							"in":          "query",
							"description": "Page number (default: 1)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 1},
						},
						{
							"name":        "limit",
							"in":          "query",
							"description": "Records per page (default: 100)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 100},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
						},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Check if the API is running",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "API is healthy",
						},
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
						},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
