// Package policytypes defines the shared data types for PolicyLens.
// This file contains the file-listing types shared by the selection and
// transfer components.
package policytypes

// FileKind identifies which server-side listing a file operation targets.
type FileKind string

// The two listing surfaces served by the backend.
const (
	KindDocuments FileKind = "documents"
	KindAnalysis  FileKind = "analysis"
)

// RootFolderName is the backend's name for the implicit top-level folder.
// Its files are addressed by bare file name rather than a composed path.
const RootFolderName = "根目录"

// DocumentGroup is one folder of a file listing: the folder's display name
// and the ordered bare file names it contains, exactly as the backend
// serves them. Full paths are composed client-side with ComposePath.
type DocumentGroup struct {
	Name  string   `json:"name"`
	Files []string `json:"files"`
}

// Paths returns the full path of every file in the group, in listing order.
func (g DocumentGroup) Paths() []string {
	paths := make([]string, len(g.Files))
	for i, name := range g.Files {
		paths[i] = ComposePath(g.Name, name)
	}
	return paths
}

// ComposePath joins a folder name and a bare file name into the path form
// the backend's file operations expect. Root-folder files stay bare.
func ComposePath(folder, name string) string {
	if folder == "" || folder == RootFolderName {
		return name
	}
	return folder + "/" + name
}

// FolderState is the derived tri-state of a folder checkbox. It is always a
// pure function of current file membership, never independently stored.
type FolderState int

// Tri-state folder selection indicators.
const (
	FolderNone FolderState = iota
	FolderPartial
	FolderAll
)

// String returns the display name of the folder state.
func (s FolderState) String() string {
	switch s {
	case FolderAll:
		return "all"
	case FolderPartial:
		return "partial"
	default:
		return "none"
	}
}
