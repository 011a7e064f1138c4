// Package crawler holds the types, contracts and sentinel errors shared by the
// kalaam discovery, extraction, worker and storage packages.
package crawler
