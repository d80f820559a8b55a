// Package domain defines the core domain types and interfaces.
//
// Concept-oriented files (sentiment.go, feedback.go, feed.go, errors.go) hold shared
// types and the collaborator contracts consumed by the app layer. No implementation code.
package domain
