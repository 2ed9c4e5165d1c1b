package resolver

// subscriptionType is passed through unwrapped; namespacing subscriptions is
// not supported.
const subscriptionType = "Subscription"

// Namespace returns a copy of resolvers whose field and type resolvers receive
// Slice(ctx, namespace) in place of the context they are called with.
//
// Opaque entries and the Subscription entry are returned untouched. A nil map
// yields (nil, nil): there is nothing to contribute.
func Namespace(namespace string, resolvers Map) (Map, error) {
	if resolvers == nil {
		return nil, nil
	}
	out := make(Map, len(resolvers))
	for typeName, entry := range resolvers {
		if typeName == subscriptionType {
			out[typeName] = entry
			continue
		}
		if opaque, ok := entry.(Opaque); ok {
			out[typeName] = opaque
			continue
		}
		obj, ok := ObjectOf(entry)
		if !ok {
			return nil, &InvalidResolverError{Type: typeName, Value: entry}
		}
		wrapped, err := namespaceObject(namespace, typeName, obj)
		if err != nil {
			return nil, err
		}
		out[typeName] = wrapped
	}
	return out, nil
}

func namespaceObject(namespace, typeName string, obj Object) (Object, error) {
	out := make(Object, len(obj))
	for fieldName, leaf := range obj {
		if fieldName == TypeResolverKey {
			fn, ok := AsTypeFunc(leaf)
			if !ok {
				return nil, &InvalidResolverError{Type: typeName, Field: fieldName, Value: leaf}
			}
			out[fieldName] = TypeFunc(func(value any, ctx any, info *Info) (string, error) {
				return fn(value, Slice(ctx, namespace), info)
			})
			continue
		}
		fn, ok := AsFieldFunc(leaf)
		if !ok {
			return nil, &InvalidResolverError{Type: typeName, Field: fieldName, Value: leaf}
		}
		out[fieldName] = FieldFunc(func(source any, args map[string]any, ctx any, info *Info) (any, error) {
			return fn(source, args, Slice(ctx, namespace), info)
		})
	}
	return out, nil
}
