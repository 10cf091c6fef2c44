// Package services holds the shared error taxonomy for the acquisition and
// conversion pipeline. Tool-specific clients live in subpackages.
package services
