package middleware

import "github.com/gin-gonic/gin"

// RouteOpt configures one route registration.
type RouteOpt struct {
	Auth gin.HandlerFunc // when set, the route is gated by this middleware
}

// POST registers a POST route, optionally behind auth.
func POST(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.Auth != nil {
		r.POST(path, opt.Auth, handler)
	} else {
		r.POST(path, handler)
	}
}

// GET registers a GET route, optionally behind auth.
func GET(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.Auth != nil {
		r.GET(path, opt.Auth, handler)
	} else {
		r.GET(path, handler)
	}
}

// PUT registers a PUT route, optionally behind auth.
func PUT(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.Auth != nil {
		r.PUT(path, opt.Auth, handler)
	} else {
		r.PUT(path, handler)
	}
}
