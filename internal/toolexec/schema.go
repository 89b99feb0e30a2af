package toolexec

import "github.com/invopop/jsonschema"

// ToolSpec is the provider-facing description of one callable tool: its
// name, a short description, and a JSON Schema for its arguments.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
}

// Schemas returns the tool specs for all five sandboxed tools, generated
// from the same argument structs the executor unmarshals into.
func Schemas() []ToolSpec {
	reflector := &jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
	return []ToolSpec{
		{
			Name:        "bash",
			Description: "Run a shell command inside the workspace and capture its output.",
			Parameters:  reflector.Reflect(&bashArgs{}),
		},
		{
			Name:        "read_file",
			Description: "Read a UTF-8 text file from the workspace.",
			Parameters:  reflector.Reflect(&readFileArgs{}),
		},
		{
			Name:        "edit_file",
			Description: "Replace a single, unique occurrence of old_text with new_text in a workspace file.",
			Parameters:  reflector.Reflect(&editFileArgs{}),
		},
		{
			Name:        "write_file",
			Description: "Write content to a workspace file, creating parent directories as needed.",
			Parameters:  reflector.Reflect(&writeFileArgs{}),
		},
		{
			Name:        "apply_patch",
			Description: "Apply a \"*** Begin Patch\" envelope (add, delete, update, or move files in one multi-operation unit) to the workspace.",
			Parameters:  reflector.Reflect(&applyPatchArgs{}),
		},
	}
}
