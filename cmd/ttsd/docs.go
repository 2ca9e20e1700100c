package main

// General API documentation for swaggo. Run `swag init -g cmd/ttsd/docs.go -o docs` to regenerate.
//
// @title           ttsd API
// @version         1.0
// @description     HTTP API for voice-cloning speech synthesis with a single exclusively accessed model session.
//
// @contact.name   ttsd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
