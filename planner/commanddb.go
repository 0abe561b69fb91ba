package planner

import (
	"encoding/json"
	"os"

	"github.com/crucible-build/crucible/toolchain"
)

// CompileCommand is one record of the compile-command database, the
// `{directory, arguments, file}` shape tools like clangd expect from a
// compile_commands.json.
type CompileCommand struct {
	Directory string   `json:"directory"`
	Arguments []string `json:"arguments"`
	File      string   `json:"file"`
}

// CompileCommands renders one CompileCommand per compile task in plan,
// in package/library/source order.
func (p *Planner) CompileCommands(plan *BuildPlan) []CompileCommand {
	var out []CompileCommand
	for _, pkgPlan := range plan.Packages {
		for _, libPlan := range pkgPlan.Libraries {
			for _, task := range libPlan.Compiles {
				args := p.Toolchain.RenderCompile(toolchain.CompileRequest{
					Source:               task.Source.AbsPath,
					IncludeRoots:         task.IncludeRoots,
					ExternalIncludeRoots: task.ExternalIncludeRoots,
					Defines:              task.Defines,
					Language:             task.Language,
					WarningsOn:           p.WarningsOn,
					ObjectPath:           task.OutputPath,
				})
				out = append(out, CompileCommand{
					Directory: p.OutputRoot,
					Arguments: args,
					File:      task.Source.AbsPath,
				})
			}
		}
	}
	return out
}

// EmitCompileCommands writes plan's compile-command database to
// outPath as a JSON array, backing the `emit_compile_commands` entry
// point.
func (p *Planner) EmitCompileCommands(plan *BuildPlan, outPath string) error {
	commands := p.CompileCommands(plan)
	if commands == nil {
		commands = []CompileCommand{}
	}
	data, err := json.MarshalIndent(commands, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, data, 0o644)
}
