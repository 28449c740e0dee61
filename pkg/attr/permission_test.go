package attr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cuemby/tinymux/pkg/types"
)

func TestCanReadVisualAlwaysAllowed(t *testing.T) {
	executor := types.Object{Dbref: 2}
	target := types.Object{Dbref: 5}
	def := types.AttrDef{Flags: types.AttrVisual}
	value := types.AttrValue{Owner: 99}
	assert.True(t, CanRead(executor, target, def, value, false), "VISUAL attribute should always be readable")
}

func TestCanReadOwnerAllowed(t *testing.T) {
	executor := types.Object{Dbref: 2}
	value := types.AttrValue{Owner: 2}
	assert.True(t, CanRead(executor, types.Object{}, types.AttrDef{}, value, false), "owner should be able to read their own value")
}

func TestCanReadInternalDeniedEvenToWizard(t *testing.T) {
	executor := types.Object{Dbref: 2, Flags: types.FlagWizard}
	def := types.AttrDef{Flags: types.AttrInternal}
	assert.False(t, CanRead(executor, types.Object{}, def, types.AttrValue{}, false), "INTERNAL should block even a wizard")
}

func TestCanReadInternalAllowedForGod(t *testing.T) {
	god := types.Object{Dbref: types.GOD}
	def := types.AttrDef{Flags: types.AttrInternal}
	assert.True(t, CanRead(god, types.Object{}, def, types.AttrValue{}, false), "God should bypass INTERNAL")
}

func TestCanWriteDeniedForConst(t *testing.T) {
	executor := types.Object{Dbref: 2}
	def := types.AttrDef{Flags: types.AttrConst}
	assert.False(t, CanWrite(executor, def, true), "CONST attribute should never be writable")
}

func TestCanWriteNonControllerBlocked(t *testing.T) {
	executor := types.Object{Dbref: 2}
	assert.False(t, CanWrite(executor, types.AttrDef{}, false), "non-controller should be blocked outright")
}

func TestCanWriteWizardBlockedByGod(t *testing.T) {
	executor := types.Object{Dbref: 2, Flags: types.FlagWizard}
	def := types.AttrDef{Flags: types.AttrGod}
	assert.False(t, CanWrite(executor, def, true), "GOD attribute should block even a wizard")
}

func TestCanLockAlwaysDeniedForLockFlag(t *testing.T) {
	executor := types.Object{Dbref: 2, Flags: types.FlagWizard}
	def := types.AttrDef{Flags: types.AttrLock}
	assert.False(t, CanLock(executor, def, true), "LOCK attribute's own lock flag should never be changeable")
}
