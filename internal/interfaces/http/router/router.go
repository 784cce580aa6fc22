// Package router assembles the gin engine: global middleware, the
// authenticated /api tree and the operational endpoints.
package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// Route is one method and path bound to its handler chain
type Route struct {
	Method   string
	Path     string
	Handlers []gin.HandlerFunc
}

// Resource collects the routes of one API resource below a path prefix,
// e.g. every /invoices route. Its middleware runs after the API's.
type Resource struct {
	prefix     string
	middleware []gin.HandlerFunc
	routes     []Route
}

// NewResource starts an empty resource mounted at prefix
func NewResource(prefix string) *Resource {
	return &Resource{prefix: prefix}
}

// Use appends middleware for every route of the resource
func (r *Resource) Use(mw ...gin.HandlerFunc) *Resource {
	r.middleware = append(r.middleware, mw...)
	return r
}

// Handle adds a route; relative is appended to the resource prefix
func (r *Resource) Handle(method, relative string, handlers ...gin.HandlerFunc) *Resource {
	r.routes = append(r.routes, Route{Method: method, Path: relative, Handlers: handlers})
	return r
}

func (r *Resource) GET(relative string, h ...gin.HandlerFunc) *Resource {
	return r.Handle(http.MethodGet, relative, h...)
}

func (r *Resource) POST(relative string, h ...gin.HandlerFunc) *Resource {
	return r.Handle(http.MethodPost, relative, h...)
}

func (r *Resource) PUT(relative string, h ...gin.HandlerFunc) *Resource {
	return r.Handle(http.MethodPut, relative, h...)
}

func (r *Resource) PATCH(relative string, h ...gin.HandlerFunc) *Resource {
	return r.Handle(http.MethodPatch, relative, h...)
}

func (r *Resource) DELETE(relative string, h ...gin.HandlerFunc) *Resource {
	return r.Handle(http.MethodDelete, relative, h...)
}

// Paths lists "METHOD /prefix/path" for every route, in registration order
func (r *Resource) Paths() []string {
	out := make([]string, 0, len(r.routes))
	for _, rt := range r.routes {
		p := r.prefix
		if rt.Path != "" {
			p = path.Join(r.prefix, rt.Path)
		}
		out = append(out, rt.Method+" "+p)
	}
	return out
}

func (r *Resource) mount(parent gin.IRouter) {
	g := parent.Group(r.prefix, r.middleware...)
	for _, rt := range r.routes {
		g.Handle(rt.Method, rt.Path, rt.Handlers...)
	}
}

// API mounts resources below a common prefix behind shared middleware
type API struct {
	prefix     string
	middleware []gin.HandlerFunc
	resources  []*Resource
}

// NewAPI creates an API rooted at prefix, "/api" when empty
func NewAPI(prefix string) *API {
	if prefix == "" {
		prefix = "/api"
	}
	return &API{prefix: prefix}
}

// Use appends middleware that runs for every resource
func (a *API) Use(mw ...gin.HandlerFunc) *API {
	a.middleware = append(a.middleware, mw...)
	return a
}

// Add registers resources; they are mounted in order by Mount
func (a *API) Add(resources ...*Resource) *API {
	a.resources = append(a.resources, resources...)
	return a
}

// Mount installs the API on engine
func (a *API) Mount(engine gin.IRouter) {
	root := engine.Group(a.prefix, a.middleware...)
	for _, res := range a.resources {
		res.mount(root)
	}
}
