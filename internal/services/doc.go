// Package services implements the HTTP clients for the two APIs the media tracker consumes.
//
// # Catalog
//
// [CatalogService] wraps the read-only TMDB v3 endpoints: trending, popular, top rated,
// search and details. Each listing is paginated by page number with a server-reported
// page count. Missing results decode as an empty slice and a missing page count as 1.
// A blank search query short-circuits to an empty page with zero total pages.
// Requests are paced by a [rate.Limiter] since TMDB throttles bursts.
//
// # Backend
//
// [BackendService] wraps the tracker backend: register, login, logout and "who am I",
// plus add, remove and fetch for every (media kind, list kind) pair. Authentication is a
// cookie session kept in a [cookiejar.Jar]; [BackendService.Cookies] and
// [BackendService.SetCookies] let the CLI carry it across invocations.
//
// Login and Register never report a backend refusal as an error. They return an
// [AuthResult] whose Reason is derived from the HTTP status:
//   - 2xx : OK
//   - 401 : [ReasonInvalidCredentials]
//   - 409 : [ReasonUsernameTaken]
//   - other : [ReasonRejected]
//
// [APIService] makes raw calls against the same backend for debugging.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - transport failures wrap the [http.Client] error
//   - [APIError] : non-2xx backend response, message is the raw body, matches [shared.ErrAPIRequest]
//   - [StatusError] : non-OK catalog response, message is the status code, matches [shared.ErrCatalogRequest]
//
// Nothing is retried.
package services
