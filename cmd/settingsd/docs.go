package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           settingsd API
// @version         1.0
// @description     HTTP API for desk-scoped settings storage, merged views and change subscriptions.
//
// @contact.name   settingsd maintainers
// @contact.url    https://github.com/your-org/settingsd
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
