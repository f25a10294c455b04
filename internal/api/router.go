package api

import (
	httpSwagger "github.com/swaggo/http-swagger"

	_ "eventstore-sqlite/docs" // registers the swagger spec
	"eventstore-sqlite/internal/api/handler"
	"eventstore-sqlite/pkg/router"
)

// RegisterRoutes mounts the snapshot query endpoints and the swagger
// UI.
func RegisterRoutes(r *router.Router, q *handler.Query) {
	r.GET("/api/v1/stats", q.GetStats)
	r.GET("/api/v1/events", q.ListEvents)
	r.GET("/api/v1/streams", q.ListStreams)
	r.GET("/api/v1/metadata", q.GetMetadata)
	r.GET("/swagger/*", router.HandlerFunc(httpSwagger.WrapHandler))
}
