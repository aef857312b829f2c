package runtimeconfig

import "errors"

var (
	// ErrFileNotFound is returned when LoadFromFile's path does not exist.
	ErrFileNotFound = errors.New("runtimeconfig: file not found")

	// ErrPermissionDenied is returned when the file exists but cannot be
	// read.
	ErrPermissionDenied = errors.New("runtimeconfig: permission denied")

	// ErrEmptyFile is returned when the file exists but has no content.
	ErrEmptyFile = errors.New("runtimeconfig: file is empty")

	// ErrIsDirectory is returned when path names a directory, not a file.
	ErrIsDirectory = errors.New("runtimeconfig: path is a directory")
)
