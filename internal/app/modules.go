package app

import (
	"github.com/vk/patterngrid/internal/registry"
	"github.com/vk/patterngrid/modules/mathfn"
	"github.com/vk/patterngrid/modules/music"
)

// coreModules is the definitive list of all function modules that are
// compiled into the patterngrid binary.
var coreModules = []registry.Module{
	&mathfn.Module{},
	&music.Module{},
}
