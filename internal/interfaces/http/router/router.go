// Package router mounts the dashboard API on a gin engine.
package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// Registrar mounts its routes under an API group
type Registrar interface {
	RegisterRoutes(api *gin.RouterGroup)
}

// Router collects registrars and mounts them under /api/<version>
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []Registrar
}

// Option configures a Router
type Option func(*Router)

// WithAPIVersion overrides the "v1" path segment
func WithAPIVersion(version string) Option {
	return func(r *Router) { r.apiVersion = version }
}

// NewRouter returns a Router for engine
func NewRouter(engine *gin.Engine, opts ...Option) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues reg for Setup
func (r *Router) Register(reg Registrar) *Router {
	r.registrars = append(r.registrars, reg)
	return r
}

// BasePath is the prefix every registrar is mounted under
func (r *Router) BasePath() string {
	return "/api/" + r.apiVersion
}

// Setup mounts every registered group in registration order
func (r *Router) Setup() {
	api := r.engine.Group(r.BasePath())
	for _, reg := range r.registrars {
		reg.RegisterRoutes(api)
	}
}

type route struct {
	method   string
	path     string
	handlers gin.HandlersChain
}

// Group is a named set of routes sharing a prefix and middleware.
// Routes are recorded first and mounted by RegisterRoutes.
type Group struct {
	name       string
	prefix     string
	middleware gin.HandlersChain
	routes     []route
	children   []*Group
}

// NewGroup returns an empty group mounted at prefix
func NewGroup(name, prefix string) *Group {
	return &Group{name: name, prefix: prefix}
}

func (g *Group) Name() string   { return g.name }
func (g *Group) Prefix() string { return g.prefix }

// Use appends middleware applied to every route of g and its children
func (g *Group) Use(mw ...gin.HandlerFunc) *Group {
	g.middleware = append(g.middleware, mw...)
	return g
}

// Handle records a route for method
func (g *Group) Handle(method, relPath string, handlers ...gin.HandlerFunc) *Group {
	g.routes = append(g.routes, route{method: method, path: relPath, handlers: handlers})
	return g
}

func (g *Group) GET(relPath string, handlers ...gin.HandlerFunc) *Group {
	return g.Handle(http.MethodGet, relPath, handlers...)
}

func (g *Group) POST(relPath string, handlers ...gin.HandlerFunc) *Group {
	return g.Handle(http.MethodPost, relPath, handlers...)
}

func (g *Group) DELETE(relPath string, handlers ...gin.HandlerFunc) *Group {
	return g.Handle(http.MethodDelete, relPath, handlers...)
}

// Group adds and returns a child group nested under g
func (g *Group) Group(name, prefix string) *Group {
	child := NewGroup(name, prefix)
	g.children = append(g.children, child)
	return child
}

// RegisterRoutes implements Registrar
func (g *Group) RegisterRoutes(parent *gin.RouterGroup) {
	rg := parent.Group(g.prefix, g.middleware...)
	for _, rt := range g.routes {
		rg.Handle(rt.method, rt.path, rt.handlers...)
	}
	for _, child := range g.children {
		child.RegisterRoutes(rg)
	}
}

// Routes lists "METHOD /path" for g and its children, relative to the
// parent g is mounted on
func (g *Group) Routes() []string {
	var out []string
	g.walk("", func(method, full string) {
		out = append(out, method+" "+full)
	})
	return out
}

func (g *Group) walk(base string, fn func(method, full string)) {
	base = joinPath(base, g.prefix)
	for _, rt := range g.routes {
		fn(rt.method, joinPath(base, rt.path))
	}
	for _, child := range g.children {
		child.walk(base, fn)
	}
}

func joinPath(base, rel string) string {
	if rel == "" {
		return base
	}
	return path.Join(base, rel)
}
