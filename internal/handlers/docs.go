package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the Waste Analytics API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	yearParam := func(name, description string) map[string]interface{} {
		return map[string]interface{}{
			"name":        name,
			"in":          "query",
			"description": description,
			"required":    true,
			"schema":      map[string]string{"type": "integer"},
		}
	}
	metricParam := func(name, description string) map[string]interface{} {
		return map[string]interface{}{
			"name":        name,
			"in":          "query",
			"description": description,
			"required":    false,
			"schema": map[string]interface{}{
				"type": "string",
				"enum": []string{"gpc_dom", "q_dom", "q_nondom", "q_mun"},
			},
		}
	}
	regionParam := map[string]interface{}{
		"name":        "region",
		"in":          "query",
		"description": "Region name (case and accents are normalized)",
		"required":    true,
		"schema":      map[string]string{"type": "string"},
	}
	districtParam := map[string]interface{}{
		"name":        "district",
		"in":          "query",
		"description": "District name (case and accents are normalized)",
		"required":    true,
		"schema":      map[string]string{"type": "string"},
	}
	chartResponse := map[string]interface{}{
		"200": map[string]interface{}{
			"description": "Computed result plus its chart specification",
		},
		"400": map[string]interface{}{"description": "Validation error"},
		"404": map[string]interface{}{"description": "Data gap for the selection (warning)"},
		"503": map[string]interface{}{"description": "Dataset unavailable"},
	}

	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Waste Analytics API",
			"description": "Municipal waste-generation analytics over a semicolon-delimited CSV: region/district/year filtering, percent-change variation, trends, composition and correlation views with chart specifications",
			"version":     "1.0.0",
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/regions": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "List regions present in the dataset",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Sorted region names"},
					},
				},
			},
			"/api/regions/{region}/years": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "List years with data for a region",
					"parameters": []map[string]interface{}{
						{
							"name":     "region",
							"in":       "path",
							"required": true,
							"schema":   map[string]string{"type": "string"},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Ascending years"},
						"400": map[string]interface{}{"description": "Unknown region"},
					},
				},
			},
			"/api/regions/{region}/districts": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "List districts with data for a region",
					"parameters": []map[string]interface{}{
						{
							"name":     "region",
							"in":       "path",
							"required": true,
							"schema":   map[string]string{"type": "string"},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Sorted district names"},
						"400": map[string]interface{}{"description": "Unknown region"},
					},
				},
			},
			"/api/variation": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Top districts by percent change of a metric between two years",
					"description": "Inner-joins per-district metric values at the two years, excludes districts with a zero endpoint, sorts descending and caps the result (default 15 rows). Returns the rows and a sign-colored bar chart specification.",
					"parameters": []map[string]interface{}{
						regionParam,
						metricParam("metric", "Metric to compare (default gpc_dom)"),
						yearParam("start_year", "Base year"),
						yearParam("end_year", "Comparison year, must be after start_year"),
						{
							"name":     "limit",
							"in":       "query",
							"required": false,
							"schema":   map[string]interface{}{"type": "integer", "default": 15},
						},
					},
					"responses": chartResponse,
				},
			},
			"/api/correlation": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Per-district scatter of two metrics in one year",
					"parameters": []map[string]interface{}{
						regionParam,
						yearParam("year", "Snapshot year"),
						metricParam("x_metric", "X axis metric (default q_dom)"),
						metricParam("y_metric", "Y axis metric (default gpc_dom)"),
					},
					"responses": chartResponse,
				},
			},
			"/api/trend": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "One metric across all years for a single district",
					"parameters": []map[string]interface{}{
						regionParam,
						districtParam,
						metricParam("metric", "Metric to plot (default gpc_dom)"),
					},
					"responses": chartResponse,
				},
			},
			"/api/composition": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Domestic vs non-domestic split for one district and year",
					"parameters": []map[string]interface{}{
						regionParam,
						districtParam,
						yearParam("year", "Snapshot year"),
					},
					"responses": chartResponse,
				},
			},
			"/api/records": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Paginated archived records (requires archive database)",
					"description": "Served from the Postgres archive; registered only when the archive database is configured.",
					"parameters": []map[string]interface{}{
						{
							"name":     "region",
							"in":       "query",
							"required": false,
							"schema":   map[string]string{"type": "string"},
						},
						{
							"name":     "district",
							"in":       "query",
							"required": false,
							"schema":   map[string]string{"type": "string"},
						},
						{
							"name":     "year",
							"in":       "query",
							"required": false,
							"schema":   map[string]string{"type": "integer"},
						},
						{
							"name":     "page",
							"in":       "query",
							"required": false,
							"schema":   map[string]interface{}{"type": "integer", "default": 1},
						},
						{
							"name":     "limit",
							"in":       "query",
							"required": false,
							"schema":   map[string]interface{}{"type": "integer", "default": 100},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Paginated records"},
					},
				},
			},
			"/api/records/{region}/{district}/{year}": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Single archived observation",
					"description": "Served from the Postgres archive; registered only when the archive database is configured.",
					"parameters": []map[string]interface{}{
						{
							"name":     "region",
							"in":       "path",
							"required": true,
							"schema":   map[string]string{"type": "string"},
						},
						{
							"name":     "district",
							"in":       "path",
							"required": true,
							"schema":   map[string]string{"type": "string"},
						},
						{
							"name":     "year",
							"in":       "path",
							"required": true,
							"schema":   map[string]string{"type": "integer"},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "The archived record"},
						"404": map[string]interface{}{"description": "No such record"},
					},
				},
			},
			"/api/summary": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Per-year aggregates for one region, computed in SQL",
					"description": "District count, average per-capita domestic waste and total municipal waste per year. Served from the Postgres archive; registered only when the archive database is configured.",
					"parameters": []map[string]interface{}{
						regionParam,
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Yearly summary rows"},
						"400": map[string]interface{}{"description": "Missing region"},
						"404": map[string]interface{}{"description": "No archived data for the region (warning)"},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Health check",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Service health status"},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
