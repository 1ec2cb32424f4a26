// Package domain defines core data models and interfaces shared across the app.
// It contains plain types (wire/state), contracts (interfaces) and the error
// taxonomy with its recovery policy. It has no dependencies on other internal
// packages.
package domain
