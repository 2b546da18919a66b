package harvest

import (
	"fmt"
	"path/filepath"
)

// Stage is the step of the per-post pipeline.
type Stage string

const (
	StageScanning        Stage = "scanning"
	StageExpanding       Stage = "expanding"
	StageExtractingText  Stage = "extracting_text"
	StageExtractingMedia Stage = "extracting_media"
	StagePersisting      Stage = "persisting"
)

// PostError is a failure after an entry directory was allocated. The
// directory is left without its metadata record.
type PostError struct {
	Dir   string
	Stage Stage
	Saved int
	Err   error
}

func (e *PostError) Error() string {
	return fmt.Sprintf("post %s failed while %s (%d images saved): %v",
		filepath.Base(e.Dir), e.Stage, e.Saved, e.Err)
}

func (e *PostError) Unwrap() error {
	return e.Err
}
