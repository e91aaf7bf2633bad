package objstore

import (
	"slices"
	"strings"

	"github.com/aegistudio/go-memns/fserr"
	"github.com/aegistudio/go-memns/pathlock"
)

// Move re-keys the object obj found at fromNames in src, along
// with its whole subtree, to the vacant toNames in dst. The two
// stores may be the same or serve different roots of one
// namespace. The parent of toNames must be an existing directory,
// and within one store toNames must not lie below fromNames.
//
// Creation and deletion below either path are excluded while the
// move runs, but lookups may observe a partially moved subtree.
func Move(
	src *Store, fromNames []string, obj *Object,
	dst *Store, toNames []string,
) error {
	fromPath, toPath := src.format(fromNames), dst.format(toNames)
	if len(fromNames) == 0 || len(toNames) == 0 {
		return fserr.Newf("move", fromPath, fserr.UnsupportedOperation,
			"cannot move a root directory")
	}
	if src == dst && len(toNames) >= len(fromNames) &&
		slices.Equal(toNames[:len(fromNames)], fromNames) {
		return fserr.Newf("move", fromPath, fserr.UnsupportedOperation,
			"cannot move into its own subtree %s", toPath)
	}

	if err := dst.checkNames("move", toNames); err != nil {
		return err
	}

	fromLock := src.locker.Lock(fromNames)
	if fromLock == nil {
		return src.conflict("move", fromNames)
	}
	defer fromLock.Unlock()
	toLock := dst.locker.Lock(toNames)
	if toLock == nil {
		return dst.conflict("move", toNames)
	}
	defer toLock.Unlock()

	if current, ok := src.Lookup(fromNames); !ok || current != obj {
		return src.conflict("move", fromNames)
	}
	if _, ok := dst.Lookup(toNames); ok {
		return fserr.New("move", toPath, fserr.AlreadyExists)
	}
	newParent, err := dst.parentDir("move", toNames)
	if err != nil {
		return err
	}

	fromKey, toKey := pathlock.Key(fromNames), pathlock.Key(toNames)
	type entry struct {
		oldKey, newKey string
		obj            *Object
	}
	entries := []entry{{fromKey, toKey, obj}}
	if obj.IsDir() {
		prefix := pathlock.Prefix(fromNames)
		src.index.Range(func(key, value interface{}) bool {
			if k := key.(string); strings.HasPrefix(k, prefix) {
				entries = append(entries, entry{
					oldKey: k,
					newKey: toKey + k[len(fromKey):],
					obj:    value.(*Object),
				})
			}
			return true
		})
	}

	for i, e := range entries {
		if _, loaded := dst.index.LoadOrStore(e.newKey, e.obj); loaded {
			for _, stored := range entries[:i] {
				dst.index.CompareAndDelete(stored.newKey, stored.obj)
			}
			return dst.conflict("move", toNames)
		}
	}
	for _, e := range entries {
		src.index.CompareAndDelete(e.oldKey, e.obj)
	}
	newParent.members.Add(toNames[len(toNames)-1])
	if oldParent, ok := src.Lookup(fromNames[:len(fromNames)-1]); ok && oldParent.IsDir() {
		oldParent.members.Remove(fromNames[len(fromNames)-1])
	}
	src.logger.Debug("moved", "from", fromPath, "to", toPath,
		"target_root", dst.name, "id", obj.id, "entries", len(entries))
	return nil
}
