package app

import (
	"net/http"

	"wisper/internal/config"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Client *config.ClientConfig // parsed client configuration; defaults if nil
	HTTP   *http.Client         // optional; lifecycle requests get their own client otherwise
}
