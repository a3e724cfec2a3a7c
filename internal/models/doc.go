// Package models defines domain entities and persistence interfaces for the mtx media tracker.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs representing external service data
//   - [CatalogItem] : A single TMDB result (movie or TV show)
//   - [Page] : One page of catalog results with the server-reported page count
//   - [MediaItem] : The normalized snapshot stored in a user list
//   - [ListEntry] : One membership row returned by the tracker backend
//   - [Identity] : The answer to the backend's "who am I" check
//
// 2. Persistent Entities: Database-backed models
//   - [Activity] : One list mutation attempt (add/remove) and its outcome
//   - [SessionRecord] : Cookies, username and pending return path for a backend
//
// Persistent entities implement the [Model] interface providing ID, timestamps, and validation.
package models
