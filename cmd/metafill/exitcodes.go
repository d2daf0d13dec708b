package main

// Exit codes
const (
	ExitSuccess           = 0 // Success
	ExitError             = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError       = 2 // Configuration error (no repository, bad config)
	ExitDataError         = 3 // Data error (malformed inventory, unreadable response)
	ExitInvalidIdentifier = 4 // Platform or identifier rejected before any request
	ExitNotFound          = 5 // Identifier unknown to the platform
	ExitDuplicate         = 6 // Entry already in the inventory
	ExitAPIError          = 7 // Upstream API error (rate limit, network, auth)
)
