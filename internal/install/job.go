package install

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adamancini/tuolauncher/internal/types"
	"github.com/adamancini/tuolauncher/internal/update"
)

// Job is one download and install of a release for a target
type Job struct {
	ID          string
	Target      types.Target
	Channel     types.Channel
	Release     *update.Release
	Asset       update.Asset
	Destination string
	StartedAt   time.Time

	onProgress update.ProgressFunc
	cancel     context.CancelFunc
	done       chan struct{}

	mu        sync.Mutex
	state     types.JobState
	progress  float64
	tempPath  string
	handedOff bool
	err       error
}

func newJob(target types.Target, ch types.Channel, rel *update.Release, asset update.Asset, dest string, onProgress update.ProgressFunc) *Job {
	return &Job{
		ID:          uuid.NewString(),
		Target:      target,
		Channel:     ch,
		Release:     rel,
		Asset:       asset,
		Destination: dest,
		StartedAt:   time.Now(),
		onProgress:  onProgress,
		cancel:      func() {},
		done:        make(chan struct{}),
		state:       types.StateDownloading,
	}
}

// State returns the job's current state
func (j *Job) State() types.JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Progress returns the download fraction in [0, 1]
func (j *Job) Progress() float64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.progress
}

// TempArchivePath returns the downloaded archive, empty before the download finishes
func (j *Job) TempArchivePath() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.tempPath
}

// HandedOff reports whether the install was delegated to the helper, in
// which case the caller must exit so the helper can replace its files
func (j *Job) HandedOff() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.handedOff
}

// Err returns the failure of a finished job
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Done is closed when the job reaches Ready or Failed
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finishes or ctx is cancelled
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return j.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel stops an in-flight download. Extraction is not interruptible.
func (j *Job) Cancel() {
	j.cancel()
}

func (j *Job) setState(s types.JobState) {
	j.mu.Lock()
	j.state = s
	j.mu.Unlock()
}

func (j *Job) setProgress(fraction float64) {
	j.mu.Lock()
	j.progress = fraction
	j.mu.Unlock()
	if j.onProgress != nil {
		j.onProgress(fraction)
	}
}

func (j *Job) setTempPath(path string) {
	j.mu.Lock()
	j.tempPath = path
	j.mu.Unlock()
}

func (j *Job) finish(s types.JobState, handedOff bool, err error) {
	j.mu.Lock()
	j.state = s
	j.handedOff = handedOff
	j.err = err
	j.mu.Unlock()
	close(j.done)
}
