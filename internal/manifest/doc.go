// Package manifest defines the nanobot.yaml data model and its parsing,
// validation, and serialization.
package manifest
