package main

import "errors"

var (
	errMissingImport  = errors.New("at least one --import root is required")
	errMissingSchema  = errors.New("either --proto or --import must be given")
	errMissingService = errors.New("--service is required")
	errMissingMethod  = errors.New("--method is required")
)

var errMissingMessageType = errors.New("--message-type is required")
