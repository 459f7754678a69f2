// Package config loads the collector configuration.
//
// The file holds a single `server:` section. Defaults are applied first, then
// the YAML, then the environment variables existing deployments already set
// (OFFICE, GRID_X, GRID_Y, NWS_USER_AGENT, HTTP_PORT). Webhook URLs are never
// stored in the file: each webhook names the environment variable that holds
// its URL.
package config
