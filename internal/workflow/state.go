package workflow

import "github.com/Angad-2002/Darwix-AI/internal/domain"

// Phase names the active variant of State.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseFileSelected   Phase = "file_selected"
	PhaseUploading      Phase = "uploading"
	PhaseAwaitingResult Phase = "awaiting_result"
	PhaseSucceeded      Phase = "succeeded"
	PhaseFailed         Phase = "failed"
	PhaseCancelled      Phase = "cancelled"
)

// State is the sealed set of workflow states; exactly one is active.
type State interface {
	Phase() Phase
	isState()
}

// Idle means nothing is selected and nothing has run.
type Idle struct{}

// FileSelected holds a validated candidate ready for submission.
type FileSelected struct {
	Candidate domain.UploadCandidate
}

// Uploading tracks the highest progress observed for the current request.
type Uploading struct {
	Candidate domain.UploadCandidate
	Percent   float64
}

// AwaitingResult means the body is sent and the server is processing.
type AwaitingResult struct {
	Candidate domain.UploadCandidate
}

// Succeeded holds the latest successful result.
type Succeeded struct {
	Result domain.TranscriptionResult
}

// Failed holds a user-facing error message.
type Failed struct {
	Message string
}

// Cancelled means the user aborted the in-flight request.
type Cancelled struct{}

func (Idle) Phase() Phase           { return PhaseIdle }
func (FileSelected) Phase() Phase   { return PhaseFileSelected }
func (Uploading) Phase() Phase      { return PhaseUploading }
func (AwaitingResult) Phase() Phase { return PhaseAwaitingResult }
func (Succeeded) Phase() Phase      { return PhaseSucceeded }
func (Failed) Phase() Phase         { return PhaseFailed }
func (Cancelled) Phase() Phase      { return PhaseCancelled }

func (Idle) isState()           {}
func (FileSelected) isState()   {}
func (Uploading) isState()      {}
func (AwaitingResult) isState() {}
func (Succeeded) isState()      {}
func (Failed) isState()         {}
func (Cancelled) isState()      {}

// Snapshot is a flat, JSON-friendly view of a State for the UI.
type Snapshot struct {
	Phase     Phase                       `json:"phase"`
	RequestID string                      `json:"requestId,omitempty"`
	FileName  string                      `json:"fileName,omitempty"`
	FileSize  int64                       `json:"fileSize,omitempty"`
	Progress  float64                     `json:"progress"`
	Result    *domain.TranscriptionResult `json:"result,omitempty"`
	Error     string                      `json:"error,omitempty"`
}

// Describe flattens a state into a Snapshot.
func Describe(state State) Snapshot {
	snap := Snapshot{Phase: state.Phase()}
	switch s := state.(type) {
	case Idle, Cancelled:
	case FileSelected:
		snap.FileName = s.Candidate.Name
		snap.FileSize = s.Candidate.SizeBytes
	case Uploading:
		snap.FileName = s.Candidate.Name
		snap.FileSize = s.Candidate.SizeBytes
		snap.Progress = s.Percent
	case AwaitingResult:
		snap.FileName = s.Candidate.Name
		snap.FileSize = s.Candidate.SizeBytes
		snap.Progress = 100
	case Succeeded:
		result := s.Result
		snap.Result = &result
	case Failed:
		snap.Error = s.Message
	}
	return snap
}

// isActive reports whether a request is in flight.
func isActive(state State) bool {
	switch state.(type) {
	case Uploading, AwaitingResult:
		return true
	default:
		return false
	}
}
