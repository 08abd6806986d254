package player

import "videoadguard/app/dto"

// PlaybackSurface is the player side of a connected page: current playback
// state plus the seek write, the only mutation this service performs.
type PlaybackSurface interface {
	CurrentTime() float64
	Duration() float64
	Seek(seconds float64)

	// OnTimeChanged subscribes to playback time updates. The returned
	// function detaches the subscription and must be safe to call from
	// inside the callback.
	OnTimeChanged(callback func(seconds float64)) (detach func())
}

// PresentationSurface mounts the skip affordances on a connected page. Show
// calls replace any previous instance of the same affordance.
type PresentationSurface interface {
	ShowSkipButton()
	HideSkipButton()
	SkipButtonVisible() bool

	ShowMarkers(markers []dto.AdMarker)
	HideMarkers()
	MarkersVisible() bool

	// ShowNotice surfaces the cancellable pre-skip notice. secondsLeft is
	// the time until the upcoming segment starts.
	ShowNotice(secondsLeft float64)
	HideNotice()
	NoticeVisible() bool
}
