// Package api provides the ContainerStacks VPS REST API.
//
// All routes under /api/v1 require a bearer JWT carrying the caller's
// organization. Provider administration additionally requires the admin role.
//
//	@title						ContainerStacks API
//	@version					1.0
//	@description				Multi-provider VPS lifecycle API
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package api

//go:generate go tool swag init -g doc.go -d .,./handler,./response,./request,../model,../core,../provider -o docs --outputTypes json
