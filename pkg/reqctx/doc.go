// Package reqctx carries request-scoped data on context.Context: request
// metadata set by the HTTP middleware and the authentication claims of the
// caller.
//
// Services never read the caller from here. Handlers resolve the acting
// identity once and pass it explicitly; reqctx only feeds logging, event
// headers and the middleware chain.
//
// Contracts:
//
//   - RequestMeta is set by HTTP middleware for all requests
//   - Claims are set only for authenticated requests (token present and valid)
package reqctx
