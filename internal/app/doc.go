// Package app provides the application service layer.
//
// Orchestrates use cases: text analysis, prompt suggestions, the cached post
// feed and feedback submission. Sits between HTTP handlers and the domain
// collaborators, depending only on domain interfaces.
package app
