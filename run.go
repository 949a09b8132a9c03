package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Pipeline sequences a single run: resolve ID, locate a caption track, fetch
// and parse the caption document, format, write the output file. Cache is
// optional; a hit skips both network calls.
type Pipeline struct {
	Fetcher  *Fetcher
	Cache    *Cache
	Select   TrackSelector
	OutDir   string
	Language string // cache key only; selection is driven by Select
}

// RunResult describes a completed run.
type RunResult struct {
	VideoID    string
	Title      string
	Transcript string
	OutputPath string
	Cached     bool
}

// Run executes the pipeline for the given config. Any stage's failure
// short-circuits the run and surfaces that stage's sentinel error.
func (p *Pipeline) Run(ctx context.Context, cfg *Config) (*RunResult, error) {
	videoID, err := cfg.resolveVideoID()
	if err != nil {
		return nil, err
	}

	if p.Cache != nil {
		if entry, err := p.Cache.Get(videoID, p.Language); err == nil {
			path, werr := p.writeTranscript(videoID, entry.Transcript)
			if werr != nil {
				return nil, werr
			}
			return &RunResult{
				VideoID:    videoID,
				Title:      entry.Title,
				Transcript: entry.Transcript,
				OutputPath: path,
				Cached:     true,
			}, nil
		}
	}

	track, meta, err := p.Fetcher.locateCaptionTrack(ctx, videoID, p.Select)
	if err != nil {
		return nil, err
	}

	items, err := p.Fetcher.fetchTranscript(ctx, track.BaseURL)
	if err != nil {
		return nil, err
	}

	transcript := formatTranscript(items)

	path, err := p.writeTranscript(videoID, transcript)
	if err != nil {
		return nil, err
	}

	if p.Cache != nil {
		if err := p.Cache.Put(videoID, p.Language, meta.Title, transcript); err != nil {
			logWarn("failed to cache transcript", "video_id", videoID, "error", err.Error())
		}
	}

	return &RunResult{
		VideoID:    videoID,
		Title:      meta.Title,
		Transcript: transcript,
		OutputPath: path,
	}, nil
}

func (p *Pipeline) writeTranscript(videoID, transcript string) (string, error) {
	path := filepath.Join(p.OutDir, "transcript_"+videoID+".txt")
	if err := os.WriteFile(path, []byte(transcript), 0644); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFileWrite, err)
	}
	return path, nil
}
