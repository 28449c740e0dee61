package attr

import "github.com/cuemby/tinymux/pkg/types"

// CanRead implements the read rule of spec.md §4.4's permission
// matrix: allowed if the attribute is VISUAL, or the executor is the
// value's owner, or the executor examines the target; wizards bypass
// all but INTERNAL, and God bypasses INTERNAL too.
func CanRead(executor types.Object, target types.Object, def types.AttrDef, value types.AttrValue, examines bool) bool {
	if def.Flags.Has(types.AttrInternal) && executor.Dbref != types.GOD {
		return false
	}
	if executor.Flags.Has(types.FlagWizard) || executor.Dbref == types.GOD {
		return true
	}
	if def.Flags.Has(types.AttrVisual) {
		return true
	}
	if executor.Dbref == value.Owner {
		return true
	}
	return examines
}

// CanWrite implements the write rule: denied outright for INTERNAL/
// CONST/LOCK; wizards are additionally blocked by LOCK/GOD; non-
// wizard controllers are additionally blocked by WIZARD/GOD;
// non-controllers are blocked outright.
func CanWrite(executor types.Object, def types.AttrDef, controls bool) bool {
	if def.Flags.Has(types.AttrInternal) || def.Flags.Has(types.AttrConst) || def.Flags.Has(types.AttrLock) {
		return false
	}
	if !controls {
		return false
	}
	if executor.Flags.Has(types.FlagWizard) {
		return !def.Flags.Has(types.AttrGod)
	}
	return !def.Flags.Has(types.AttrWizard) && !def.Flags.Has(types.AttrGod)
}

// CanLock implements the rule for changing an attribute's own lock
// flag: same as write, but INTERNAL/CONST/LOCK are always denied
// regardless of who asks.
func CanLock(executor types.Object, def types.AttrDef, controls bool) bool {
	if def.Flags.Has(types.AttrInternal) || def.Flags.Has(types.AttrConst) || def.Flags.Has(types.AttrLock) {
		return false
	}
	return CanWrite(executor, def, controls)
}
