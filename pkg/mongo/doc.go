// Package mongo holds the connection plumbing for the deprecated document
// store that predates schema-per-tenant Postgres. The archive is read-only
// and completely outside the tenant-context mechanism; new code must not
// grow dependencies on it beyond the health probe.
package mongo
