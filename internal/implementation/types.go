// Package implementation implements stage B of the pipeline: file
// structure (B1) and interfaces/data-flow (B2) over the capability graph
// stage A produced, per spec.md §4.6.
package implementation

import "github.com/zerorepo/zerorepo/internal/llmgw"

// FolderSpec is one entry of the LLM's folder-skeleton response: a folder
// name plus the capability names it claims to host.
type FolderSpec struct {
	Name string   `json:"name"`
	Maps []string `json:"maps"`
}

// folderSkeletonResponse is the JSON shape the B1 folder-skeleton prompt
// asks the model to return.
type folderSkeletonResponse struct {
	Folders []FolderSpec `json:"folders"`
	Files   []string     `json:"files"`
}

// fileAssignmentResponse maps a file path to the feature paths it should
// implement, the JSON shape the B1 file-assignment prompt returns.
type fileAssignmentResponse map[string][]string

// folderSkeletonSchema and fileAssignmentSchema constrain the B1 "Dynamic
// JSON from the LLM" shapes spec.md §9 calls out, per
// github.com/santhosh-tekuri/jsonschema/v5 (shared with the rest of the
// proposal/implementation stages via llmgw.GenerateJSONSchema).
var (
	folderSkeletonSchema = llmgw.MustCompileSchema("implementation.folders", `{
		"type": "object",
		"required": ["folders"],
		"properties": {
			"folders": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["name"],
					"properties": {
						"name": {"type": "string"},
						"maps": {"type": "array", "items": {"type": "string"}}
					}
				}
			},
			"files": {"type": "array", "items": {"type": "string"}}
		}
	}`)

	fileAssignmentSchema = llmgw.MustCompileSchema("implementation.files", `{
		"type": "object",
		"additionalProperties": {
			"type": "array",
			"items": {"type": "string"}
		}
	}`)
)

// Result is what a controller run returns.
type Result struct {
	Interfaces  map[string]string // file path_hint -> generated interface source
	BaseClasses map[string]string // pattern name -> generated abstract base source
}

// fallbackFolderSkeleton is the deterministic skeleton used whenever the
// LLM's folder-skeleton response fails to parse.
func fallbackFolderSkeleton() folderSkeletonResponse {
	return folderSkeletonResponse{
		Folders: []FolderSpec{
			{Name: "src/core"},
			{Name: "src/algorithms"},
			{Name: "src/utils"},
			{Name: "tests"},
		},
	}
}
