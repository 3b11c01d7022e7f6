package tree

// Merge merges source into target and returns target.
//
// The merge is two levels deep and no deeper:
//   - a field only in target is left untouched;
//   - a field only in source is inserted as a copy;
//   - a field that is an object on both sides is merged field by field, with each
//     source value copied over the target value as a whole (nested objects at this
//     level are replaced, not merged);
//   - any other conflict is resolved by replacing the target value with a copy of
//     the source value.
//
// A nil or empty source leaves target unchanged.
func Merge(target, source *Object) *Object {
	source.Range(func(name string, sv any) bool {
		tv, ok := target.Get(name)
		if !ok {
			target.Set(name, Clone(sv))
			return true
		}
		tobj, tok := tv.(*Object)
		sobj, sok := sv.(*Object)
		if !tok || !sok {
			target.Set(name, Clone(sv))
			return true
		}
		sobj.Range(func(k string, v any) bool {
			tobj.Set(k, Clone(v))
			return true
		})
		return true
	})
	return target
}
