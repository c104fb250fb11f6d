// Package auth provides password hashing and JWT access tokens.
package auth
