// Package reqctx carries request-scoped metadata through context.Context.
//
// The HTTP request-id middleware stores a RequestMeta for every request and
// attaches it to the request context, so services and the logger can read
// it without depending on the web framework:
//
//	meta, ok := reqctx.RequestMetaFromContext(ctx)
//	rid := reqctx.RequestIDFromContext(ctx)
package reqctx
