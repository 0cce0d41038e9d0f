package server

import "github.com/teranos/typeahead/errors"

// Sentinel errors for transport-level failures. Domain lookups use the
// sentinels of the errors package.
var (
	// ErrClientTooOld indicates the client is below server.min_client_version
	ErrClientTooOld = errors.New("client version not supported")

	// ErrDraining indicates the server is shutting down
	ErrDraining = errors.New("server is shutting down")
)
