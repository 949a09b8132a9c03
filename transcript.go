package main

import (
	"fmt"
	"html"
	"math"
	"sort"
	"strconv"
	"strings"
)

// TranscriptItem is one parsed caption entry. Start and Duration are seconds
// since the video start; Text may still carry encoded character entities.
type TranscriptItem struct {
	Start    float64
	Duration float64
	Text     string
}

// formatTimestamp renders a start offset as [MM:SS]. Seconds are floored,
// both fields are zero-padded, and the minutes field grows past 59 instead
// of rolling into hours, so 6000s renders as [100:00].
func formatTimestamp(seconds float64) string {
	total := int(math.Floor(seconds))
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("[%02d:%02d]", total/60, total%60)
}

// formatTranscript renders the segments as "[MM:SS] text" lines joined by
// single newlines, decoding character entities in each payload. An empty
// sequence yields an empty string.
func formatTranscript(items []TranscriptItem) string {
	if len(items) == 0 {
		return ""
	}

	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, formatTimestamp(item.Start)+" "+html.UnescapeString(item.Text))
	}

	return strings.Join(lines, "\n")
}

// normalizeInterval is the bucket width, in seconds, used when regrouping a
// transcript into evenly spaced entries.
const normalizeInterval = 6

// parseTimestampLine splits a "[MM:SS] text" line back into an offset and its
// text. Lines that do not match the shape are reported as not ok.
func parseTimestampLine(line string) (float64, string, bool) {
	if !strings.HasPrefix(line, "[") {
		return 0, "", false
	}
	end := strings.IndexByte(line, ']')
	if end == -1 {
		return 0, "", false
	}

	mins, secs, found := strings.Cut(line[1:end], ":")
	if !found {
		return 0, "", false
	}

	m, err := strconv.ParseFloat(mins, 64)
	if err != nil {
		return 0, "", false
	}
	s, err := strconv.ParseFloat(secs, 64)
	if err != nil {
		return 0, "", false
	}

	return m*60 + s, strings.TrimSpace(line[end+1:]), true
}

// normalizeTranscript regroups a formatted transcript into fixed intervals,
// joining the text of all entries that fall inside each bucket. Malformed
// lines are skipped; entries are ordered by timestamp before grouping.
// Buckets with no text produce no output line.
func normalizeTranscript(content string) string {
	type entry struct {
		at   float64
		text string
	}

	var entries []entry
	for _, line := range strings.Split(content, "\n") {
		if at, text, ok := parseTimestampLine(line); ok {
			entries = append(entries, entry{at, text})
		}
	}
	if len(entries) == 0 {
		return ""
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].at < entries[j].at
	})

	var out strings.Builder
	last := int(entries[len(entries)-1].at)
	for bucket := 0; bucket <= last; bucket += normalizeInterval {
		lo, hi := float64(bucket), float64(bucket+normalizeInterval)

		var texts []string
		for _, e := range entries {
			if e.at >= lo && e.at < hi {
				texts = append(texts, e.text)
			}
		}
		if len(texts) == 0 {
			continue
		}

		out.WriteString(formatTimestamp(lo))
		out.WriteString(" ")
		out.WriteString(strings.Join(texts, " "))
		out.WriteString("\n")
	}

	return out.String()
}
