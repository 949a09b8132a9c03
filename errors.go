package main

import "errors"

// Sentinel errors for each failure stage. Callers match them with errors.Is;
// wrapped messages carry the stage context.
var (
	// ErrInvalidConfig indicates the config supplies neither a URL nor a video ID.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInvalidVideoID indicates the input does not contain a well-formed video ID.
	ErrInvalidVideoID = errors.New("invalid video id")
	// ErrNetwork indicates a transport failure or a non-2xx response.
	ErrNetwork = errors.New("network failure")
	// ErrVideoUnavailable indicates the video is private, removed or restricted.
	ErrVideoUnavailable = errors.New("video unavailable")
	// ErrNoCaptions indicates the video has an empty caption track list.
	ErrNoCaptions = errors.New("no captions available")
	// ErrParse indicates the watch page or caption document did not match the expected shape.
	ErrParse = errors.New("unexpected document format")
	// ErrFileWrite indicates the transcript file could not be written.
	ErrFileWrite = errors.New("file write failed")
)
