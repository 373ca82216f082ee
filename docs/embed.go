package docs

import _ "embed"

//go:embed admin-api.openapi.yaml
var embeddedAdminOpenAPI []byte

//go:embed swagger.html
var embeddedAdminSwaggerHTML []byte

// AdminOpenAPI is the OpenAPI document for the admin surface.
var AdminOpenAPI = embeddedAdminOpenAPI

// AdminSwaggerHTML is the Swagger UI page serving that document.
var AdminSwaggerHTML = embeddedAdminSwaggerHTML
