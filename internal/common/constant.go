package common

// AuthorizationHeader is the HTTP header that carries the bearer token on
// outbound API requests.
const AuthorizationHeader = "Authorization"

// BearerPrefix is the scheme prefix expected in the Authorization header.
const BearerPrefix = "Bearer "
