package composite

import (
	"strings"

	"autoshorts-pipeline/types"
)

// CaptionChunk is one on-screen caption with its display window.
type CaptionChunk struct {
	Text  string
	Start float64
	End   float64
}

// minChunkDur keeps captions readable: a chunk boundary closes early when a
// word ran long enough on its own.
const minChunkDur = 0.3

// PerfectChunks groups word timings into caption chunks. A chunk closes when
// it reaches maxWords, or when its span already exceeds the minimum display
// duration, or at the last word. Caption text is uppercased.
func PerfectChunks(words []types.WordTiming, maxWords int) []CaptionChunk {
	if maxWords < 1 {
		maxWords = 1
	}
	var chunks []CaptionChunk
	var buf []string
	start := 0.0

	for i, w := range words {
		if len(buf) == 0 {
			start = w.Start
		}
		buf = append(buf, w.Word)

		dur := w.End - start
		if dur > minChunkDur || len(buf) >= maxWords || i == len(words)-1 {
			chunks = append(chunks, CaptionChunk{
				Text:  strings.ToUpper(strings.Join(buf, " ")),
				Start: start,
				End:   w.End,
			})
			buf = buf[:0]
		}
	}
	return chunks
}

// EstimatedChunks splits raw text into caption chunks when no word timings
// survive. Long words stand alone, otherwise words pair up; each chunk's
// duration is proportional to its share of the scene's characters, with a
// floor so no caption flashes by. When the floors overflow the scene length
// the windows are rescaled to fit.
func EstimatedChunks(text string, total float64) []CaptionChunk {
	words := strings.Fields(text)
	if len(words) == 0 || total <= 0 {
		return nil
	}

	var groups []string
	for i := 0; i < len(words); {
		if len(words[i]) > 7 || i == len(words)-1 {
			groups = append(groups, words[i])
			i++
			continue
		}
		groups = append(groups, words[i]+" "+words[i+1])
		i += 2
	}

	totalChars := 0
	for _, g := range groups {
		totalChars += len(g)
	}
	if totalChars == 0 {
		return nil
	}

	// The floor can push the summed durations past the scene length; scale
	// them back down so every chunk keeps a positive window instead of the
	// tail collapsing to zero width at t=total.
	durs := make([]float64, len(groups))
	sum := 0.0
	for i, g := range groups {
		d := total * float64(len(g)) / float64(totalChars)
		if d < minChunkDur {
			d = minChunkDur
		}
		durs[i] = d
		sum += d
	}
	if sum > total {
		scale := total / sum
		for i := range durs {
			durs[i] *= scale
		}
	}

	chunks := make([]CaptionChunk, 0, len(groups))
	cursor := 0.0
	for i, g := range groups {
		end := cursor + durs[i]
		if i == len(groups)-1 {
			end = total
		}
		chunks = append(chunks, CaptionChunk{
			Text:  strings.ToUpper(g),
			Start: cursor,
			End:   end,
		})
		cursor = end
	}
	return chunks
}
