// Package api provides an HTTP client for the recipe service API.
//
// # Overview
//
// The client speaks JSON over HTTP. Every list endpoint is cursor
// paginated and returns the same envelope:
//
//	{"items": [...], "nextCursor": "opaque", "hasMore": true}
//
// Fetch methods convert that envelope into a state.Page so they can be used
// directly as paging.FetchFunc values:
//
//	client, err := api.NewClient("127.0.0.1:8088")
//	if err != nil {
//		log.Fatalf("failed to create client: %v", err)
//	}
//	feed := paging.New(client.FetchFeed, paging.Options[api.Recipe]{})
//
// # Endpoints
//
//   - GET /api/feed
//   - GET /api/recipes/{id}/comments
//   - GET /api/users/{id}/recipes
//   - GET /api/users/{id}/cooking-logs
//   - GET /api/search/recipes?q=
//   - GET /api/admin/recipes and GET /api/admin/users
//   - POST /api/{kind}/{id}/actions with {"action": "like"}
//   - PATCH /api/admin/{kind}/{id} with {"field": "status", "value": "hidden"}
//
// List endpoints accept cursor and size query parameters. The PATCH endpoint
// answers with the updated entity so callers can adopt the stored value.
//
// # Errors
//
// Responses with status >= 400 become *StatusError. Transport and decode
// failures are wrapped with %w. Every request carries a fresh X-Request-ID.
package api
