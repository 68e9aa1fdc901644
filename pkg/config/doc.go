/*
Package config loads and saves the CLI's config.toml and auth.json,
mirroring the context-switching model of the original ring client: a
config.toml holds one or more named [contexts.<name>] tables (each an
API endpoint), a current_context pointer, and scheduler defaults; an
auth.json alongside it maps context name to the bearer token obtained
from the last successful login against that context.
*/
package config
