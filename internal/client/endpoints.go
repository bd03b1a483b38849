package client

const (
	apiV1Prefix = "/api/v1"

	endpointLogin = apiV1Prefix + "/auth/login"

	endpointSites           = apiV1Prefix + "/sites"
	endpointSiteByID        = apiV1Prefix + "/sites/%s"        // GET, PUT, DELETE
	endpointSiteEvents      = apiV1Prefix + "/sites/%s/events" // GET, POST
	endpointSiteMedia       = apiV1Prefix + "/sites/%s/media"  // POST multipart
	endpointSitesSearch     = apiV1Prefix + "/sites/search"
	endpointSitesNearby     = apiV1Prefix + "/sites/nearby"
	endpointSitesPopular    = apiV1Prefix + "/sites/popular"
	endpointSitesByCategory = apiV1Prefix + "/sites/category/%s"
)
