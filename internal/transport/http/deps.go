package http

import (
	"time"

	"github.com/portfolio-gate/internal/application/notification"
	"github.com/portfolio-gate/internal/infrastructure/catalog"
	"github.com/portfolio-gate/internal/infrastructure/kv"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	Store   kv.Store
	Catalog *catalog.Catalog
	Mailer  notification.Mailer
	Alerts  notification.AlertPublisher // nil disables SNS alerts
	Now     func() time.Time            // defaults to time.Now
}
