// Package repository holds the database/sql data access for classrooms,
// students and seating records.  Queries use "?" placeholders so the same
// SQL runs on MySQL and SQLite.
package repository

import "errors"

// ErrClassroomNotFound is returned when a classroom lookup fails.  Handlers
// translate it into an HTTP 404 response.
var ErrClassroomNotFound = errors.New("classroom not found")
