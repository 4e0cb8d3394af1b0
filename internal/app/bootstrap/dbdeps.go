// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/coursehub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// LoginLimiter is process-wide state shared by all requests; it is
	// created with the backends so Shutdown can stop it.
	LoginLimiter *ratelimit.LoginLimiter
}
