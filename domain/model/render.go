package model

// RenderJobStatus is the lifecycle reported by the render service while polling.
type RenderJobStatus string

const (
	RenderJobQueued     RenderJobStatus = "queued"
	RenderJobProcessing RenderJobStatus = "processing"
	RenderJobComplete   RenderJobStatus = "completed"
	RenderJobFailed     RenderJobStatus = "failed"
)

// Terminal reports whether polling can stop.
func (s RenderJobStatus) Terminal() bool {
	return s == RenderJobComplete || s == RenderJobFailed
}

// RenderJob tracks a single in-flight render. It is owned exclusively by the
// client call that submitted it; nothing else holds or mutates it.
type RenderJob struct {
	JobID    string
	Status   RenderJobStatus
	AssetURL string
}
