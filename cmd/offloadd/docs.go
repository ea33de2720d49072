package main

// General API documentation for swaggo. Run `swag init -g cmd/offloadd/docs.go` to regenerate docs/.
//
// @title           offloadd API
// @version         1.0
// @description     Status and control API for the staged device-memory offload scheduler.
//
// @contact.name   offloadd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
