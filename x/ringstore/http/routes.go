package http

// Route patterns for the ring store HTTP surface.
const (
	routeQuery           = "/query"
	routeHead            = "/v1/head"
	routeRootByTimestamp = "/v1/root/{timestamp}"
	routeAddressByStep   = "/v1/address/{step}"
)

// Route names for mux URL building.
const (
	routeNameQuery           = "ringstore_query"
	routeNameHead            = "ringstore_head"
	routeNameRootByTimestamp = "ringstore_root_by_timestamp"
	routeNameAddressByStep   = "ringstore_address_by_step"
)

// AuthorityTokenHeader carries the shared writer token on the head route.
const AuthorityTokenHeader = "X-Authority-Token"
