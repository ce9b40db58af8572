package property

// DefaultRegistry builds the full property registry: every handler group,
// in the same grouping the property Set/Get concerns are documented under.
// Callers must still call Registry.Init with a live KernelProbe before
// dispatching any request.
func DefaultRegistry() *Registry {
	var handlers []Handler
	handlers = append(handlers, registerIdentity()...)
	handlers = append(handlers, registerResources()...)
	handlers = append(handlers, registerIsolation()...)
	handlers = append(handlers, registerNetwork()...)
	handlers = append(handlers, registerLifecycle()...)
	handlers = append(handlers, registerObservable()...)
	handlers = append(handlers, registerPersist()...)
	return NewRegistry(handlers...)
}
