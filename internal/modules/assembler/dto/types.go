package dto

type FileInput struct {
	Name      string
	Path      string
	MediaType string
	Data      []byte
}

type EntryView struct {
	ID         string
	Position   int
	Name       string
	SizeLabel  string
	SourcePath string
	PageCount  int
	State      string
	HasPreview bool
}

type ReorderInput struct {
	MovedID  string
	TargetID string
}

type CombineInput struct {
	OutputName string
}

type CombineOutput struct {
	Skipped   bool
	Filename  string
	Path      string
	Documents int
	Bytes     int
}

type PreviewOutput struct {
	ID        string
	Name      string
	State     string
	PageCount int
	PNG       []byte
}
