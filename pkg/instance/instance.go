package instance

import "os"

// GetID identifies the running process for log correlation. Heroku-style
// deployments expose DYNO, container deployments set WORKER_ID, and local
// runs get a stable fallback.
func GetID() string {
	if id := os.Getenv("DYNO"); id != "" {
		return id
	}
	if id := os.Getenv("WORKER_ID"); id != "" {
		return id
	}
	return "local"
}
