package gpu

// Arena owns release functions for GPU objects and runs them together.
// Objects are released in reverse order of registration, exactly once.
type Arena struct {
	releases []func()
}

// Track registers a release function.
func (a *Arena) Track(release func()) {
	if release != nil {
		a.releases = append(a.releases, release)
	}
}

// Len returns the number of objects still owned.
func (a *Arena) Len() int {
	return len(a.releases)
}

// Release frees every tracked object. Calling it again is a no-op.
func (a *Arena) Release() {
	for i := len(a.releases) - 1; i >= 0; i-- {
		a.releases[i]()
	}
	a.releases = nil
}

// TrackBuffer registers b for deletion on r.
func (a *Arena) TrackBuffer(r Resources, b Buffer) {
	if b != NullBuffer {
		a.Track(func() { r.DeleteBuffer(b) })
	}
}

// TrackTexture registers t for deletion on r.
func (a *Arena) TrackTexture(r Resources, t Texture) {
	if t != NullTexture {
		a.Track(func() { r.DeleteTexture(t) })
	}
}

// TrackTarget registers t for deletion on r.
func (a *Arena) TrackTarget(r Resources, t Target) {
	if t != BackBuffer {
		a.Track(func() { r.DeleteTarget(t) })
	}
}

// TrackProgram registers p for deletion on r.
func (a *Arena) TrackProgram(r Resources, p Program) {
	if p != NullProgram {
		a.Track(func() { r.DeleteProgram(p) })
	}
}

// TrackSampler registers s for deletion on r.
func (a *Arena) TrackSampler(r Resources, s Sampler) {
	if s != NullSampler {
		a.Track(func() { r.DeleteSampler(s) })
	}
}

// TrackGeometry registers g for deletion on r.
func (a *Arena) TrackGeometry(r Resources, g Geometry) {
	if g != NullGeometry {
		a.Track(func() { r.DeleteGeometry(g) })
	}
}
