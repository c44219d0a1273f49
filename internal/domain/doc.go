// Package domain defines the core task entities and errors.
package domain
