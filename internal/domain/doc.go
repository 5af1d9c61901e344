// Package domain defines the core relay types and sentinel errors.
//
// No implementation code, just contracts shared by the adapters, the
// channel registry and the lifecycle tracker. Keeping them here prevents
// circular imports between the adapter packages.
package domain
