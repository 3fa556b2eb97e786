/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package restapi contains helpers for JSON REST APIs: writing JSON and error responses on the server side
// and doing requests with JSON responses on the client side.
package restapi
