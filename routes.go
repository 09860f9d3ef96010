package fetchkit

// TypedRouteNode is one entry of a declarative route tree with statically
// typed per-node metadata. Path is the node's relative segment; Children may
// nest arbitrarily deep.
type TypedRouteNode[M any] struct {
	Path     string
	Children map[string]TypedRouteNode[M]
	Meta     M
}

// TypedRoute is a flattened route: its absolute path plus the underscore-
// joined ancestor key chain, the parent's key (empty at root level) and the
// source node's metadata.
type TypedRoute[M any] struct {
	Path      string
	Key       string
	ParentKey string
	Meta      M
}

// String returns the route's absolute path, so routes can be used wherever a
// URL string is expected.
func (r TypedRoute[M]) String() string {
	return r.Path
}

// GeneratePath interpolates params into this route's absolute path template.
func (r TypedRoute[M]) GeneratePath(params PathParams) (string, error) {
	return GeneratePath(r.Path, params)
}

// RouteNode is a route tree node carrying free-form metadata.
type RouteNode = TypedRouteNode[map[string]any]

// Route is a flattened route carrying free-form metadata.
type Route = TypedRoute[map[string]any]

// Routes flattens a declarative route tree into a map of absolute paths. The
// tree is walked depth-first; every node, leaf or internal, contributes one
// entry keyed by its underscore-joined ancestor chain. Absolute paths are
// built with URLJoin and therefore carry a trailing slash.
func Routes(tree map[string]RouteNode) map[string]Route {
	return TypedRoutes(tree)
}

// TypedRoutes is Routes with a statically-known metadata shape attached to
// every node. Runtime behavior is identical.
func TypedRoutes[M any](tree map[string]TypedRouteNode[M]) map[string]TypedRoute[M] {
	out := make(map[string]TypedRoute[M])
	flattenRoutes(tree, "", "", out)
	return out
}

func flattenRoutes[M any](tree map[string]TypedRouteNode[M], parentPath, parentKey string, out map[string]TypedRoute[M]) {
	for name, node := range tree {
		key := name
		if parentKey != "" {
			key = parentKey + "_" + name
		}
		abs := URLJoin([]string{parentPath, node.Path})
		out[key] = TypedRoute[M]{
			Path:      abs,
			Key:       key,
			ParentKey: parentKey,
			Meta:      node.Meta,
		}
		if len(node.Children) > 0 {
			flattenRoutes(node.Children, abs, key, out)
		}
	}
}
