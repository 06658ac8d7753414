package app

import (
	"io"

	"github.com/specialistvlad/gridflow/internal/handlers"
	"github.com/specialistvlad/gridflow/modules/constant"
	"github.com/specialistvlad/gridflow/modules/describe"
	"github.com/specialistvlad/gridflow/modules/env_vars"
	"github.com/specialistvlad/gridflow/modules/http_request"
	"github.com/specialistvlad/gridflow/modules/print"
	"github.com/specialistvlad/gridflow/modules/socketio"
)

// coreModules is the definitive list of all modules that are compiled into
// the gridflow binary.
func coreModules(out io.Writer) []handlers.Module {
	return []handlers.Module{
		&constant.Module{},
		&describe.Module{},
		&env_vars.Module{},
		&http_request.Module{},
		&print.Module{Out: out},
		&socketio.Module{},
	}
}
