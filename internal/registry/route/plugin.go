package route

import (
	"sort"
	"sync"

	"github.com/gin-gonic/gin"
)

// RouterLoader mounts routes that need nothing but the engine.
type RouterLoader func(r *gin.Engine) error

// Plugin is a self-registering route set. Plugins mount in ascending Order.
type Plugin struct {
	Order  int
	Loader RouterLoader
}

var (
	mu      sync.Mutex
	plugins []Plugin
)

// Register adds a route plugin. Called from init() in plugin packages.
func Register(p Plugin) {
	mu.Lock()
	defer mu.Unlock()
	plugins = append(plugins, p)
}

// Loaders returns the registered loaders sorted by order.
func Loaders() []RouterLoader {
	mu.Lock()
	defer mu.Unlock()
	sort.SliceStable(plugins, func(i, j int) bool { return plugins[i].Order < plugins[j].Order })
	loaders := make([]RouterLoader, 0, len(plugins))
	for _, p := range plugins {
		loaders = append(loaders, p.Loader)
	}
	return loaders
}
